package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Canonical renders a PodConfig to its canonical YAML byte form. Services
// are emitted in sorted name order (and yaml.v3 sorts map keys such as
// labels), so the same merged configuration always serializes to identical
// bytes. The export command and the determinism tests both rely on this.
func Canonical(cfg *model.PodConfig) ([]byte, error) {
	services := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range cfg.ServiceNames() {
		var key yaml.Node
		key.SetString(name)

		var body yaml.Node
		if err := body.Encode(cfg.Services[name]); err != nil {
			return nil, fmt.Errorf("encode service %q: %w", name, err)
		}

		services.Content = append(services.Content, &key, &body)
	}

	var versionKey, versionVal, servicesKey yaml.Node
	versionKey.SetString("version")
	versionVal.SetString(cfg.Version)
	servicesKey.SetString("services")

	root := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{&versionKey, &versionVal, &servicesKey, services},
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode pod config: %w", err)
	}
	return out, nil
}
