package podfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ParseError indicates a pod file could not be parsed into a raw document.
// It is fatal: no merge is attempted for the file, and the CLI aborts with a
// configuration error before any runtime call.
type ParseError struct {
	// Path is the file (or logical source name) that failed to parse.
	Path string

	// Reason describes what was malformed.
	Reason string

	// Err is the underlying parser error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying parser error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseErr is a small constructor shorthand used throughout this file.
func parseErr(path, format string, args ...interface{}) *ParseError {
	return &ParseError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Load reads and parses a single pod file. The format is chosen by file
// extension: .yml/.yaml for YAML, .json for JSON with comments (JSONC).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "cannot read file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return ParseYAML(path, data)
	case ".json":
		return ParseJSONC(path, data)
	default:
		return nil, parseErr(path, "unsupported file extension %q (expected .yml, .yaml, or .json)", filepath.Ext(path))
	}
}

// LoadAll loads an ordered list of pod files. The order is significant:
// the merger folds documents left to right, with later files overriding
// earlier ones.
func LoadAll(paths []string) ([]*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := Load(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ParseYAML parses pod file YAML into a raw document. It decodes into
// yaml.Node rather than typed structs so the original node kinds (scalar,
// sequence, mapping) and the file's key order survive into the raw
// representation the merger operates on.
func ParseYAML(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: path, Reason: "malformed YAML", Err: err}
	}

	// yaml.Unmarshal wraps the content in a DocumentNode; an empty file
	// produces a zero node with no content.
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, parseErr(path, "empty document")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, parseErr(path, "top level must be a mapping with \"version\" and \"services\" keys")
	}

	doc := NewDocument(path)
	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode, valNode := top.Content[i], top.Content[i+1]
		switch keyNode.Value {
		case "version":
			if valNode.Kind != yaml.ScalarNode {
				return nil, parseErr(path, "\"version\" must be a scalar")
			}
			doc.Version = valNode.Value
		case "services":
			if valNode.Kind != yaml.MappingNode {
				return nil, parseErr(path, "\"services\" must be a mapping of service name to service body")
			}
			if err := parseYAMLServices(path, doc, valNode); err != nil {
				return nil, err
			}
		default:
			return nil, parseErr(path, "unknown top-level key %q (expected \"version\" or \"services\")", keyNode.Value)
		}
	}

	return doc, nil
}

// parseYAMLServices walks the services mapping node and converts each
// service body to the raw representation.
func parseYAMLServices(path string, doc *Document, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, bodyNode := node.Content[i], node.Content[i+1]
		name := nameNode.Value
		if bodyNode.Kind != yaml.MappingNode {
			return parseErr(path, "service %q: body must be a mapping", name)
		}

		svc := NewService()
		for j := 0; j+1 < len(bodyNode.Content); j += 2 {
			keyNode, valNode := bodyNode.Content[j], bodyNode.Content[j+1]
			val, err := yamlValue(path, name, keyNode.Value, valNode)
			if err != nil {
				return err
			}
			svc.Set(keyNode.Value, val)
		}
		doc.AddService(name, svc)
	}
	return nil
}

// yamlValue converts one service body value node into a raw Value.
// Service values are at most one level deep: scalars, sequences of scalars,
// or mappings of scalars. Anything deeper is malformed.
func yamlValue(path, service, key string, node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return Value{Kind: KindScalar, Scalar: node.Value}, nil

	case yaml.SequenceNode:
		seq := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return Value{}, parseErr(path, "service %q: key %q: sequence items must be scalars", service, key)
			}
			seq = append(seq, item.Value)
		}
		return Value{Kind: KindSequence, Sequence: seq}, nil

	case yaml.MappingNode:
		mapping := make(map[string]string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return Value{}, parseErr(path, "service %q: key %q: mapping values must be scalars", service, key)
			}
			mapping[k.Value] = v.Value
		}
		return Value{Kind: KindMapping, Mapping: mapping}, nil

	default:
		return Value{}, parseErr(path, "service %q: key %q: unsupported value type", service, key)
	}
}

// ParseJSONC parses a JSON-with-comments pod file into a raw document.
// Comments and trailing commas are stripped with tidwall/jsonc first, then
// the clean JSON is decoded generically. json.Number is used so numeric
// scalars keep their source text instead of going through float64.
//
// JSON object key order is not observable through encoding/json, so service
// names are recorded in sorted order. This does not affect merge results
// (merging is keyed, not positional) and canonical output sorts names anyway.
func ParseJSONC(path string, data []byte) (*Document, error) {
	clean := jsonc.ToJSON(data)

	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.UseNumber()

	var rawTop map[string]interface{}
	if err := dec.Decode(&rawTop); err != nil {
		return nil, &ParseError{Path: path, Reason: "malformed JSON", Err: err}
	}

	doc := NewDocument(path)
	for key, val := range rawTop {
		switch key {
		case "version":
			s, ok := jsonScalar(val)
			if !ok {
				return nil, parseErr(path, "\"version\" must be a scalar")
			}
			doc.Version = s
		case "services":
			services, ok := val.(map[string]interface{})
			if !ok {
				return nil, parseErr(path, "\"services\" must be an object of service name to service body")
			}
			if err := parseJSONServices(path, doc, services); err != nil {
				return nil, err
			}
		default:
			return nil, parseErr(path, "unknown top-level key %q (expected \"version\" or \"services\")", key)
		}
	}

	return doc, nil
}

// parseJSONServices converts the decoded services object into raw service
// bodies, visiting names in sorted order for reproducible error reporting.
func parseJSONServices(path string, doc *Document, services map[string]interface{}) error {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		body, ok := services[name].(map[string]interface{})
		if !ok {
			return parseErr(path, "service %q: body must be an object", name)
		}

		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		svc := NewService()
		for _, key := range keys {
			val, err := jsonValue(path, name, key, body[key])
			if err != nil {
				return err
			}
			svc.Set(key, val)
		}
		doc.AddService(name, svc)
	}
	return nil
}

// jsonValue converts one decoded JSON value into a raw Value, enforcing the
// same shallow structure as the YAML path.
func jsonValue(path, service, key string, v interface{}) (Value, error) {
	if s, ok := jsonScalar(v); ok {
		return Value{Kind: KindScalar, Scalar: s}, nil
	}

	switch t := v.(type) {
	case []interface{}:
		seq := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := jsonScalar(item)
			if !ok {
				return Value{}, parseErr(path, "service %q: key %q: array items must be scalars", service, key)
			}
			seq = append(seq, s)
		}
		return Value{Kind: KindSequence, Sequence: seq}, nil

	case map[string]interface{}:
		mapping := make(map[string]string, len(t))
		for k, item := range t {
			s, ok := jsonScalar(item)
			if !ok {
				return Value{}, parseErr(path, "service %q: key %q: object values must be scalars", service, key)
			}
			mapping[k] = s
		}
		return Value{Kind: KindMapping, Mapping: mapping}, nil

	default:
		return Value{}, parseErr(path, "service %q: key %q: unsupported value type", service, key)
	}
}

// jsonScalar converts a decoded JSON leaf to its string form. Returns false
// for arrays, objects, and null.
func jsonScalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
