package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/stevedore/internal/model"
	"github.com/mmr-tortoise/stevedore/internal/podfile"
)

// mustParse is a test helper that parses YAML into a raw document.
func mustParse(t *testing.T, path, in string) *podfile.Document {
	t.Helper()
	doc, err := podfile.ParseYAML(path, []byte(in))
	require.NoError(t, err)
	return doc
}

const baseFile = `version: "2"
services:
  web:
    image: a
    ports:
      - "3000"
    links:
      - db
    labels:
      stevedore.shell: bash
      team: frontend
  db:
    image: postgres:16
    volumes:
      - ./data:/var/lib/postgresql/data
`

const overrideFile = `services:
  web:
    ports:
      - "4000"
      - "3000"
    labels:
      team: platform
`

func TestMerge_SingleDocument(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{mustParse(t, "pod.yml", baseFile)})
	require.NoError(t, err)

	assert.Equal(t, "2", cfg.Version)
	require.Len(t, cfg.Services, 2)

	web := cfg.Services["web"]
	assert.Equal(t, "a", web.Image)
	assert.Equal(t, []model.PortMapping{{ContainerPort: 3000}}, web.Ports)
	assert.Equal(t, []model.Link{{Target: "db"}}, web.Links)
	assert.Equal(t, "bash", web.Labels["stevedore.shell"])
}

// TestMerge_SequenceFullReplace covers the documented sequence policy: the
// rightmost document that defines a sequence key replaces the accumulated
// value entirely.
func TestMerge_SequenceFullReplace(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "pod.yml", baseFile),
		mustParse(t, "pod.override.yml", overrideFile),
	})
	require.NoError(t, err)

	web := cfg.Services["web"]
	assert.Equal(t, []model.PortMapping{{ContainerPort: 4000}, {ContainerPort: 3000}}, web.Ports,
		"override ports must fully replace base ports, not concatenate")

	// The override omitted links, so the accumulated value is untouched.
	assert.Equal(t, []model.Link{{Target: "db"}}, web.Links)
}

func TestMerge_ScalarRightmostWins(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: one\n    hostname: h1\n"),
		mustParse(t, "b.yml", "services:\n  web:\n    image: two\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "two", cfg.Services["web"].Image)
	assert.Equal(t, "h1", cfg.Services["web"].Hostname, "omitted scalar keeps earlier value")
}

func TestMerge_LabelsDeepMerge(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "pod.yml", baseFile),
		mustParse(t, "pod.override.yml", overrideFile),
	})
	require.NoError(t, err)

	labels := cfg.Services["web"].Labels
	// Overridden inner key takes the later value.
	assert.Equal(t, "platform", labels["team"])
	// Inner keys the override did not mention survive.
	assert.Equal(t, "bash", labels["stevedore.shell"])
}

func TestMerge_NewServiceFromOverride(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: a\n"),
		mustParse(t, "b.yml", "services:\n  cache:\n    image: redis:7\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cache", "web"}, cfg.ServiceNames())
}

func TestMerge_VersionRightmostWins(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "version: \"2\"\nservices:\n  web:\n    image: a\n"),
		mustParse(t, "b.yml", "version: \"3\"\nservices:\n  web:\n    image: a\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "3", cfg.Version)
}

func TestMerge_VersionDefaulted(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: a\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, cfg.Version)
}

func TestMerge_TypeConflictIsMergeError(t *testing.T) {
	_, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: a\n    ports:\n      - \"3000\"\n"),
		mustParse(t, "b.yml", "services:\n  web:\n    ports: \"4000\"\n"),
	})

	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "web", merr.Service)
	assert.Equal(t, "ports", merr.Key)
	assert.Equal(t, podfile.KindSequence, merr.LeftKind)
	assert.Equal(t, podfile.KindScalar, merr.RightKind)
	assert.Equal(t, "b.yml", merr.RightPath)
}

// Unrecognized keys flow through the merge (including type checking) but are
// dropped at conversion; they must not break anything.
func TestMerge_UnknownKeysIgnored(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: a\n    restart: always\n"),
		mustParse(t, "b.yml", "services:\n  web:\n    restart: never\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Services["web"].Image)

	// Conflicting kinds on an unknown key are still a merge error.
	_, err = Merge([]*podfile.Document{
		mustParse(t, "a.yml", "services:\n  web:\n    image: a\n    restart: always\n"),
		mustParse(t, "b.yml", "services:\n  web:\n    restart:\n      - never\n"),
	})
	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "restart", merr.Key)
}

func TestMerge_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		service string
		field   string
	}{
		{"scalar ports", "services:\n  web:\n    image: a\n    ports: \"3000\"\n", "web", "ports"},
		{"bad port value", "services:\n  web:\n    image: a\n    ports:\n      - http\n", "web", "ports"},
		{"bad link value", "services:\n  web:\n    image: a\n    links:\n      - a:b:c\n", "web", "links"},
		{"missing image and build", "services:\n  web:\n    hostname: h\n", "web", ""},
		{"scalar labels", "services:\n  web:\n    image: a\n    labels: prod\n", "web", "labels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge([]*podfile.Document{mustParse(t, "pod.yml", tt.in)})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.service, verr.Service)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestMerge_NoDocuments(t *testing.T) {
	_, err := Merge(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

// TestMerge_FoldLaw checks the strict left fold property:
// Merge([A,B,C]) == Merge([Fold(A,B), C]).
func TestMerge_FoldLaw(t *testing.T) {
	a := "services:\n  web:\n    image: one\n    ports:\n      - \"80\"\n    labels:\n      x: \"1\"\n"
	b := "services:\n  web:\n    image: two\n    labels:\n      y: \"2\"\n  db:\n    image: pg\n"
	c := "services:\n  web:\n    ports:\n      - \"8080:80\"\n    labels:\n      x: \"9\"\n"

	all, err := Merge([]*podfile.Document{
		mustParse(t, "a.yml", a), mustParse(t, "b.yml", b), mustParse(t, "c.yml", c),
	})
	require.NoError(t, err)

	ab, err := Fold([]*podfile.Document{mustParse(t, "a.yml", a), mustParse(t, "b.yml", b)})
	require.NoError(t, err)
	staged, err := Merge([]*podfile.Document{ab, mustParse(t, "c.yml", c)})
	require.NoError(t, err)

	allBytes, err := Canonical(all)
	require.NoError(t, err)
	stagedBytes, err := Canonical(staged)
	require.NoError(t, err)

	assert.Equal(t, string(allBytes), string(stagedBytes))
}

// TestCanonical_Deterministic verifies that repeated merges of the same
// ordered file list produce byte-identical canonical output.
func TestCanonical_Deterministic(t *testing.T) {
	render := func() string {
		cfg, err := Merge([]*podfile.Document{
			mustParse(t, "pod.yml", baseFile),
			mustParse(t, "pod.override.yml", overrideFile),
		})
		require.NoError(t, err)
		out, err := Canonical(cfg)
		require.NoError(t, err)
		return string(out)
	}

	first := render()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, render())
	}
}

func TestCanonical_SortedServices(t *testing.T) {
	cfg, err := Merge([]*podfile.Document{mustParse(t, "pod.yml", baseFile)})
	require.NoError(t, err)

	out, err := Canonical(cfg)
	require.NoError(t, err)

	text := string(out)
	assert.Less(t, indexOf(t, text, "db:"), indexOf(t, text, "web:"),
		"services must serialize in sorted name order")
}

// indexOf fails the test if sub is not present in s.
func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "expected %q in canonical output", sub)
	return idx
}
