// Package hooks extracts per-service operational hooks from merged service
// labels.
//
// The engine consumes a fixed, documented allowlist of label keys: the
// shell hook and the test hook. Hook command strings pass through
// byte-for-byte: no variable interpolation, no shell evaluation, no quoting
// fixups. How the string is tokenized or quoted is the runtime adapter's
// concern. Every other label key stays in ServiceDefinition.Labels untouched
// and is ignored by all orchestration logic.
package hooks

import (
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Label key constants define the allowlist of labels the engine recognizes.
// All keys share the "stevedore." prefix to namespace them away from labels
// set by other tools.
const (
	// LabelShell overrides the command invoked by `stevedore shell`.
	// Key: "stevedore.shell", Value: the exact command string.
	LabelShell = "stevedore.shell"

	// LabelTest configures the command invoked by `stevedore test`.
	// Key: "stevedore.test". A service without this label has no test.
	LabelTest = "stevedore.test"
)

// DefaultShell is the shell command used when a service carries no
// LabelShell label.
const DefaultShell = "sh"

// Defaults carries the fallback values applied when a recognized label is
// absent. It is passed explicitly by the caller, never read from globals,
// so substitute defaults in tests stay local.
type Defaults struct {
	// Shell is the fallback shell command. Use NewDefaults for the
	// documented default.
	Shell string
}

// NewDefaults returns the documented default configuration.
func NewDefaults() Defaults {
	return Defaults{Shell: DefaultShell}
}

// ToolHooks is the derived per-service hook record.
type ToolHooks struct {
	// Shell is the shell hook command. Never empty: it falls back to
	// the configured default when the label is absent.
	Shell string

	// Test is the test hook command, or empty when HasTest is false.
	Test string

	// HasTest reports whether the service configured a test hook at
	// all. There is no default test command; absence means "no test
	// defined" and the engine reports such a service as skipped with
	// reason "hook missing" when a test is requested.
	HasTest bool
}

// Extract derives the hook record for one service from its labels.
func Extract(def *model.ServiceDefinition, defaults Defaults) ToolHooks {
	hooks := ToolHooks{Shell: defaults.Shell}
	if hooks.Shell == "" {
		hooks.Shell = DefaultShell
	}

	if cmd, ok := def.Labels[LabelShell]; ok {
		hooks.Shell = cmd
	}
	if cmd, ok := def.Labels[LabelTest]; ok {
		hooks.Test = cmd
		hooks.HasTest = true
	}
	return hooks
}

// ExtractAll derives hook records for every service in the config.
func ExtractAll(cfg *model.PodConfig, defaults Defaults) map[string]ToolHooks {
	out := make(map[string]ToolHooks, len(cfg.Services))
	for name, def := range cfg.Services {
		out[name] = Extract(def, defaults)
	}
	return out
}
