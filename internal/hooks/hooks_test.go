package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

func TestExtract_DefaultShell(t *testing.T) {
	def := &model.ServiceDefinition{Image: "a"}

	h := Extract(def, NewDefaults())
	assert.Equal(t, "sh", h.Shell)
	assert.False(t, h.HasTest)
	assert.Empty(t, h.Test)
}

func TestExtract_ExplicitHooks(t *testing.T) {
	def := &model.ServiceDefinition{
		Image: "a",
		Labels: map[string]string{
			LabelShell: "bash -l",
			LabelTest:  "bundle exec rspec",
		},
	}

	h := Extract(def, NewDefaults())
	assert.Equal(t, "bash -l", h.Shell)
	assert.True(t, h.HasTest)
	assert.Equal(t, "bundle exec rspec", h.Test)
}

// Hook strings must pass through byte-for-byte: quoting and interpolation
// are the runtime adapter's concern.
func TestExtract_NoInterpolation(t *testing.T) {
	cmd := `sh -c "echo $HOME 'and \"quotes\"'"`
	def := &model.ServiceDefinition{
		Image:  "a",
		Labels: map[string]string{LabelShell: cmd},
	}

	h := Extract(def, NewDefaults())
	assert.Equal(t, cmd, h.Shell)
}

func TestExtract_CustomDefaults(t *testing.T) {
	def := &model.ServiceDefinition{Image: "a"}

	h := Extract(def, Defaults{Shell: "zsh"})
	assert.Equal(t, "zsh", h.Shell)

	// A zero Defaults still falls back to the documented default rather
	// than producing an empty shell command.
	h = Extract(def, Defaults{})
	assert.Equal(t, DefaultShell, h.Shell)
}

func TestExtract_UnrecognizedLabelsIgnored(t *testing.T) {
	def := &model.ServiceDefinition{
		Image: "a",
		Labels: map[string]string{
			"team":              "frontend",
			"stevedore.unknown": "x",
		},
	}

	h := Extract(def, NewDefaults())
	assert.Equal(t, "sh", h.Shell)
	assert.False(t, h.HasTest)
	// The labels themselves are untouched.
	assert.Equal(t, "frontend", def.Labels["team"])
}

func TestExtractAll(t *testing.T) {
	cfg := &model.PodConfig{
		Version: "2",
		Services: map[string]*model.ServiceDefinition{
			"web": {Image: "a", Labels: map[string]string{LabelTest: "make test"}},
			"db":  {Image: "pg"},
		},
	}

	all := ExtractAll(cfg, NewDefaults())
	assert.Len(t, all, 2)
	assert.True(t, all["web"].HasTest)
	assert.False(t, all["db"].HasTest)
	assert.Equal(t, "sh", all["db"].Shell)
}
