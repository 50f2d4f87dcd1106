package podfile

import "fmt"

// Kind classifies a raw value in a pod document. The merger's per-key-type
// rules (scalar override, sequence replace, mapping deep-merge) dispatch on
// this classification, and a Kind mismatch for the same key across two
// documents is a fatal merge conflict.
type Kind int

const (
	// KindScalar is a single string, number, or boolean, normalized to
	// its string form.
	KindScalar Kind = iota + 1

	// KindSequence is an ordered list of scalars.
	KindSequence

	// KindMapping is a string → scalar map (labels).
	KindMapping
)

// String returns a human-readable name for the kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one raw value inside a service body. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Value struct {
	Kind     Kind
	Scalar   string
	Sequence []string
	Mapping  map[string]string
}

// Clone returns a deep copy of the value. The merger folds documents
// copy-on-write, so accumulated state must never alias loader output.
func (v Value) Clone() Value {
	out := Value{Kind: v.Kind, Scalar: v.Scalar}
	if v.Sequence != nil {
		out.Sequence = append([]string(nil), v.Sequence...)
	}
	if v.Mapping != nil {
		out.Mapping = make(map[string]string, len(v.Mapping))
		for k, val := range v.Mapping {
			out.Mapping[k] = val
		}
	}
	return out
}

// Service is the raw body of one service entry: an ordered set of key →
// value pairs. Keys preserves the order keys first appeared in the source
// file; Fields is the lookup side.
type Service struct {
	Keys   []string
	Fields map[string]Value
}

// NewService returns an empty raw service body.
func NewService() *Service {
	return &Service{Fields: make(map[string]Value)}
}

// Set stores a value under key, tracking first-appearance order.
func (s *Service) Set(key string, v Value) {
	if _, ok := s.Fields[key]; !ok {
		s.Keys = append(s.Keys, key)
	}
	s.Fields[key] = v
}

// Get looks up the value for key.
func (s *Service) Get(key string) (Value, bool) {
	v, ok := s.Fields[key]
	return v, ok
}

// Clone returns a deep copy of the service body.
func (s *Service) Clone() *Service {
	out := &Service{
		Keys:   append([]string(nil), s.Keys...),
		Fields: make(map[string]Value, len(s.Fields)),
	}
	for k, v := range s.Fields {
		out.Fields[k] = v.Clone()
	}
	return out
}

// Document is the raw, order-preserving representation of one pod file.
// It carries no merge semantics; the config package folds a sequence of
// Documents into a canonical PodConfig.
type Document struct {
	// Path is the source file path, used in error messages.
	Path string

	// Version is the schema version tag declared by the file, or empty
	// if the file omitted it.
	Version string

	// ServiceNames preserves the order services appeared in the file.
	ServiceNames []string

	// Services maps service names to their raw bodies.
	Services map[string]*Service
}

// NewDocument returns an empty document for the given source path.
func NewDocument(path string) *Document {
	return &Document{Path: path, Services: make(map[string]*Service)}
}

// AddService stores a raw service body, tracking declaration order.
func (d *Document) AddService(name string, svc *Service) {
	if _, ok := d.Services[name]; !ok {
		d.ServiceNames = append(d.ServiceNames, name)
	}
	d.Services[name] = svc
}
