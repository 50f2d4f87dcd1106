package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/stevedore/internal/graph"
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// withFlags sets the package-level flag variables for one test and restores
// the defaults afterwards, since cobra binds them globally.
func withFlags(t *testing.T, files, overrides []string) {
	t.Helper()
	podFiles = files
	overrideNames = overrides
	t.Cleanup(func() {
		podFiles = nil
		overrideNames = nil
	})
}

func TestResolveFilesDefault(t *testing.T) {
	withFlags(t, nil, nil)
	assert.Equal(t, []string{"pod.yml"}, resolveFiles())
}

func TestResolveFilesExplicitOrder(t *testing.T) {
	withFlags(t, []string{"a.yml", "b.yml"}, nil)
	assert.Equal(t, []string{"a.yml", "b.yml"}, resolveFiles())
}

func TestResolveFilesOverridesAppendAfterFiles(t *testing.T) {
	withFlags(t, []string{filepath.Join("deploy", "pod.yml")}, []string{"staging", "local"})
	assert.Equal(t, []string{
		filepath.Join("deploy", "pod.yml"),
		filepath.Join("deploy", "pod.staging.yml"),
		filepath.Join("deploy", "pod.local.yml"),
	}, resolveFiles())
}

func TestPodNameFromDirectory(t *testing.T) {
	assert.Equal(t, "deploy", podName([]string{filepath.Join("some", "deploy", "pod.yml")}))
}

func TestLoadPodMergesOverride(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "pod.yml")}, []string{"staging"})

	p, err := loadPod()
	require.NoError(t, err)

	web := p.Config.Services["web"]
	require.NotNil(t, web)
	// Scalar overridden, sequence replaced wholesale, labels untouched.
	assert.Equal(t, "web:staging", web.Image)
	require.Len(t, web.Ports, 1)
	assert.Equal(t, 9090, web.Ports[0].HostPort)
	assert.Equal(t, "bash", p.Hooks["web"].Shell)
	assert.True(t, p.Hooks["web"].HasTest)

	// The graph carries the link from the base file.
	assert.Equal(t, []string{"db"}, p.Graph.DependenciesOf("web"))
	assert.Equal(t, "testdata", p.Name)
}

func TestLoadPodMissingFileIsConfigError(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "nonexistent.yml")}, nil)

	_, err := loadPod()
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestLoadPodUnknownLinkIsConfigError(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "broken.yml")}, nil)

	_, err := loadPod()
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.Contains(t, err.Error(), "missing")
}

func TestLoadPodCyclicLinksIsConfigError(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "cyclic.yml")}, nil)

	_, err := loadPod()
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)

	var cycleErr *graph.CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Error(), "a")
	assert.Contains(t, cycleErr.Error(), "b")
}

func TestNewEngineRejectsBadTimeout(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "pod.yml")}, nil)
	timeout = "not-a-duration"
	t.Cleanup(func() { timeout = "5m" })

	p, err := loadPod()
	require.NoError(t, err)

	_, _, err = newEngine(p)
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestNewEngineDryRunNeedsNoDaemon(t *testing.T) {
	withFlags(t, []string{filepath.Join("testdata", "pod.yml")}, nil)
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	p, err := loadPod()
	require.NoError(t, err)

	eng, closeAdapter, err := newEngine(p)
	require.NoError(t, err)
	require.NotNil(t, eng)
	assert.NoError(t, closeAdapter())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"up", "stop", "build", "shell", "test", "status", "export"} {
		assert.Contains(t, names, want)
	}
}
