// Package cli — pipeline.go holds the shared load/merge/plan pipeline that
// every subcommand runs before touching the engine.
//
// The pipeline is: resolve the ordered file list from the -f and --override
// flags, load each file into a raw document, merge the documents left to
// right into one PodConfig, extract the per-service tool hooks, and build
// the dependency graph. Any failure along the way is a configuration error:
// it maps to exit code 2 and guarantees that no container operation has run.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mmr-tortoise/stevedore/internal/config"
	"github.com/mmr-tortoise/stevedore/internal/engine"
	"github.com/mmr-tortoise/stevedore/internal/graph"
	"github.com/mmr-tortoise/stevedore/internal/hooks"
	"github.com/mmr-tortoise/stevedore/internal/logging"
	"github.com/mmr-tortoise/stevedore/internal/model"
	"github.com/mmr-tortoise/stevedore/internal/podfile"
	"github.com/mmr-tortoise/stevedore/internal/runtime"
)

// defaultPodFile is used when no -f flag is given.
const defaultPodFile = "pod.yml"

// pod bundles everything the subcommands need: the merged configuration,
// the derived hooks and graph, and the name the pod's containers are
// labelled with.
type pod struct {
	Name   string
	Config *model.PodConfig
	Hooks  map[string]hooks.ToolHooks
	Graph  *graph.Graph
	Log    *zap.SugaredLogger
}

// resolveFiles computes the ordered file list from the persistent flags.
// Named overrides resolve to pod.<name>.yml next to the first listed file
// and are appended after the explicit files, so they take merge precedence.
func resolveFiles() []string {
	files := podFiles
	if len(files) == 0 {
		files = []string{defaultPodFile}
	}

	dir := filepath.Dir(files[0])
	for _, name := range overrideNames {
		files = append(files, filepath.Join(dir, fmt.Sprintf("pod.%s.yml", name)))
	}
	return files
}

// podName derives the pod name from the directory holding the base file.
// Containers are named "<pod>-<service>", so the name must be stable for a
// fixed project location.
func podName(files []string) string {
	abs, err := filepath.Abs(files[0])
	if err != nil {
		abs = files[0]
	}
	name := filepath.Base(filepath.Dir(abs))
	if name == "." || name == string(filepath.Separator) {
		name = "pod"
	}
	return name
}

// loadPod runs the full configuration pipeline. Every failure is wrapped
// into a CLIError with the configuration exit code.
func loadPod() (*pod, error) {
	files := resolveFiles()
	VerboseLog("Loading pod files: %v", files)

	docs, err := podfile.LoadAll(files)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot load pod files", err)
	}

	cfg, err := config.Merge(docs)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot merge pod files", err)
	}

	g, err := graph.Build(cfg)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid dependency graph", err)
	}

	log, err := logging.New(logLevel)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid log level", err)
	}

	return &pod{
		Name:   podName(files),
		Config: cfg,
		Hooks:  hooks.ExtractAll(cfg, hooks.NewDefaults()),
		Graph:  g,
		Log:    log,
	}, nil
}

// newEngine assembles the engine over the selected runtime adapter. With
// --dry-run the scripted adapter stands in for Docker: every operation
// reports success without any side effect, so users can inspect the plan.
// The returned closer releases the Docker client when one was opened.
func newEngine(p *pod) (*engine.Engine, func() error, error) {
	callTimeout, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid --timeout value %q", timeout), err)
	}

	var adapter runtime.Adapter
	closer := func() error { return nil }
	if dryRun {
		adapter = runtime.NewScriptedAdapter()
	} else {
		docker, err := runtime.NewDockerAdapter(p.Config, p.Name, p.Log)
		if err != nil {
			return nil, nil, model.WrapCLIError(model.ExitRunFailed,
				"cannot connect to Docker daemon", err)
		}
		adapter = docker
		closer = docker.Close
	}

	eng := engine.New(p.Config, p.Graph, p.Hooks, adapter, engine.Options{
		Workers:     concurrency,
		CallTimeout: callTimeout,
		Logger:      p.Log,
	})
	return eng, closer, nil
}
