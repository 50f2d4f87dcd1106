package config

import (
	"fmt"

	"github.com/mmr-tortoise/stevedore/internal/model"
	"github.com/mmr-tortoise/stevedore/internal/podfile"
)

// DefaultVersion is the schema version assumed when no document in the
// merge sequence declares one.
const DefaultVersion = "2"

// Recognized service body keys and the raw kind each must have after the
// fold. Keys outside this table are allowed: they merge by the generic
// rules and are dropped at conversion time (forward-compatible passthrough
// applies only to label entries, which survive inside the labels mapping).
const (
	keyImage    = "image"
	keyBuild    = "build"
	keyPorts    = "ports"
	keyLinks    = "links"
	keyVolumes  = "volumes"
	keyHostname = "hostname"
	keyLabels   = "labels"
)

var recognizedKinds = map[string]podfile.Kind{
	keyImage:    podfile.KindScalar,
	keyBuild:    podfile.KindScalar,
	keyPorts:    podfile.KindSequence,
	keyLinks:    podfile.KindSequence,
	keyVolumes:  podfile.KindSequence,
	keyHostname: podfile.KindScalar,
	keyLabels:   podfile.KindMapping,
}

// Merge left-folds the ordered documents into one canonical PodConfig.
// Later documents override earlier ones per the package merge rules.
// The fold is associative: Merge([A,B,C]) == Merge([fold(A,B), C]).
func Merge(docs []*podfile.Document) (*model.PodConfig, error) {
	folded, err := Fold(docs)
	if err != nil {
		return nil, err
	}
	return convert(folded)
}

// Fold performs the raw left fold without converting to the typed config.
// It is exported separately so the fold law is directly testable and so
// callers can inspect the raw accumulated document.
func Fold(docs []*podfile.Document) (*podfile.Document, error) {
	if len(docs) == 0 {
		return nil, &ValidationError{Message: "no pod documents to merge"}
	}

	acc := cloneDocument(docs[0])
	for _, overlay := range docs[1:] {
		if err := foldInto(acc, overlay); err != nil {
			return nil, err
		}
		// The accumulated document now represents the combination of
		// several files; keep the rightmost path out of it so merge
		// errors can tell both sides apart.
		acc.Path = fmt.Sprintf("%s + %s", acc.Path, overlay.Path)
	}
	return acc, nil
}

// cloneDocument deep-copies a document so the fold never aliases loader
// output.
func cloneDocument(doc *podfile.Document) *podfile.Document {
	out := podfile.NewDocument(doc.Path)
	out.Version = doc.Version
	for _, name := range doc.ServiceNames {
		out.AddService(name, doc.Services[name].Clone())
	}
	return out
}

// foldInto merges overlay into acc in place.
func foldInto(acc, overlay *podfile.Document) error {
	// Version is a scalar: rightmost document that sets it wins.
	if overlay.Version != "" {
		acc.Version = overlay.Version
	}

	for _, name := range overlay.ServiceNames {
		overlaySvc := overlay.Services[name]
		accSvc, ok := acc.Services[name]
		if !ok {
			acc.AddService(name, overlaySvc.Clone())
			continue
		}
		if err := foldService(name, accSvc, overlaySvc, acc.Path, overlay.Path); err != nil {
			return err
		}
	}
	return nil
}

// foldService merges one overlay service body into the accumulated body,
// applying the per-key-type rules.
func foldService(service string, acc, overlay *podfile.Service, leftPath, rightPath string) error {
	for _, key := range overlay.Keys {
		overlayVal := overlay.Fields[key]

		accVal, ok := acc.Get(key)
		if !ok {
			acc.Set(key, overlayVal.Clone())
			continue
		}

		if accVal.Kind != overlayVal.Kind {
			return &MergeError{
				Service:   service,
				Key:       key,
				LeftKind:  accVal.Kind,
				RightKind: overlayVal.Kind,
				LeftPath:  leftPath,
				RightPath: rightPath,
			}
		}

		switch overlayVal.Kind {
		case podfile.KindScalar:
			// Rightmost wins.
			acc.Set(key, overlayVal.Clone())

		case podfile.KindSequence:
			// Full replacement. Concatenating would make override
			// files unable to drop entries, so the rightmost list
			// is taken verbatim.
			acc.Set(key, overlayVal.Clone())

		case podfile.KindMapping:
			// Deep merge: each inner key follows scalar override.
			merged := accVal.Clone()
			for k, v := range overlayVal.Mapping {
				merged.Mapping[k] = v
			}
			acc.Set(key, merged)
		}
	}
	return nil
}

// convert turns the folded raw document into a typed, validated PodConfig.
func convert(doc *podfile.Document) (*model.PodConfig, error) {
	cfg := &model.PodConfig{
		Version:  doc.Version,
		Services: make(map[string]*model.ServiceDefinition, len(doc.Services)),
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	for _, name := range doc.ServiceNames {
		if err := model.ValidateServiceName(name); err != nil {
			return nil, &ValidationError{Service: name, Message: err.Error()}
		}
		def, err := convertService(name, doc.Services[name])
		if err != nil {
			return nil, err
		}
		cfg.Services[name] = def
	}
	return cfg, nil
}

// convertService maps one raw service body onto a ServiceDefinition.
// Unrecognized keys are ignored here; they participated in merge type
// checking but have no typed home.
func convertService(name string, svc *podfile.Service) (*model.ServiceDefinition, error) {
	def := &model.ServiceDefinition{}

	for _, key := range svc.Keys {
		val := svc.Fields[key]

		wantKind, recognized := recognizedKinds[key]
		if !recognized {
			continue
		}
		if val.Kind != wantKind {
			return nil, &ValidationError{
				Service: name,
				Field:   key,
				Message: fmt.Sprintf("must be a %s, got a %s", wantKind, val.Kind),
			}
		}

		switch key {
		case keyImage:
			def.Image = val.Scalar
		case keyBuild:
			def.Build = val.Scalar
		case keyHostname:
			def.Hostname = val.Scalar
		case keyVolumes:
			def.Volumes = append([]string(nil), val.Sequence...)
		case keyPorts:
			for _, raw := range val.Sequence {
				pm, err := model.ParsePortMapping(raw)
				if err != nil {
					return nil, &ValidationError{Service: name, Field: key, Message: err.Error()}
				}
				def.Ports = append(def.Ports, pm)
			}
		case keyLinks:
			for _, raw := range val.Sequence {
				link, err := model.ParseLink(raw)
				if err != nil {
					return nil, &ValidationError{Service: name, Field: key, Message: err.Error()}
				}
				def.Links = append(def.Links, link)
			}
		case keyLabels:
			def.Labels = make(map[string]string, len(val.Mapping))
			for k, v := range val.Mapping {
				def.Labels[k] = v
			}
		}
	}

	if def.Image == "" && def.Build == "" {
		return nil, &ValidationError{Service: name, Message: "must declare an image or a build reference"}
	}

	return def, nil
}
