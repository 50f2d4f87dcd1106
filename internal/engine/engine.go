package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mmr-tortoise/stevedore/internal/graph"
	"github.com/mmr-tortoise/stevedore/internal/hooks"
	"github.com/mmr-tortoise/stevedore/internal/logging"
	"github.com/mmr-tortoise/stevedore/internal/model"
	"github.com/mmr-tortoise/stevedore/internal/runtime"
)

// Default engine tuning. Callers override via Options.
const (
	DefaultWorkers     = 4
	DefaultCallTimeout = 5 * time.Minute
)

// Options tunes one Engine instance.
type Options struct {
	// Workers bounds how many adapter calls run concurrently within a
	// batch. Values below one fall back to DefaultWorkers.
	Workers int

	// CallTimeout bounds every single adapter call. An unresponsive
	// call past this bound counts as Failed. Values of zero or below
	// fall back to DefaultCallTimeout.
	CallTimeout time.Duration

	// Logger receives engine progress at debug level. Nil means silent.
	Logger *zap.SugaredLogger
}

// Engine executes commands against one merged pod configuration. The
// config, hook set, and graph it holds are immutable for the engine's
// lifetime; all mutable run state lives in per-invocation run values.
type Engine struct {
	cfg         *model.PodConfig
	graph       *graph.Graph
	hooks       map[string]hooks.ToolHooks
	adapter     runtime.Adapter
	workers     int64
	callTimeout time.Duration
	log         *zap.SugaredLogger
}

// New assembles an engine. The graph must have been built from cfg, so
// referential integrity and acyclicity are already guaranteed.
func New(cfg *model.PodConfig, g *graph.Graph, hookSet map[string]hooks.ToolHooks, adapter runtime.Adapter, opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &Engine{
		cfg:         cfg,
		graph:       g,
		hooks:       hookSet,
		adapter:     adapter,
		workers:     int64(workers),
		callTimeout: timeout,
		log:         log,
	}
}

// Start brings every service up in dependency order.
func (e *Engine) Start(ctx context.Context) (*Report, error) {
	r := e.newRun()
	r.executePlan(ctx, e.graph.Plan(), runtime.ActionStart, true)
	return r.report("start"), nil
}

// Stop stops every service, walking the plan in reverse batch order so
// dependents go down before the services they depend on. Stop failures do
// not cascade: a service that refuses to stop does not prevent stop
// attempts on the rest of the pod.
func (e *Engine) Stop(ctx context.Context) (*Report, error) {
	r := e.newRun()
	r.executePlan(ctx, e.graph.Plan().Reversed(), runtime.ActionStop, false)
	return r.report("stop"), nil
}

// Build builds or pulls every service's image in dependency order.
func (e *Engine) Build(ctx context.Context) (*Report, error) {
	r := e.newRun()
	r.executePlan(ctx, e.graph.Plan(), runtime.ActionBuild, true)
	return r.report("build"), nil
}

// Status queries every service's container state. There is no ordering
// constraint between status probes, so all services form a single batch.
func (e *Engine) Status(ctx context.Context) (*Report, error) {
	r := e.newRun()
	plan := &graph.Plan{Batches: [][]string{e.graph.Services()}}
	r.executePlan(ctx, plan, runtime.ActionStatus, false)
	return r.report("status"), nil
}

// Shell starts the target's ancestor closure and then invokes the shell
// hook on the target.
func (e *Engine) Shell(ctx context.Context, service string) (*Report, error) {
	return e.scopedHook(ctx, service, runtime.ActionShell)
}

// Test runs test hooks. With a service name it is a scoped command on that
// service; with an empty name it starts the full pod and then runs the test
// hook of every service that configured one. Services without a test hook
// end Skipped with reason "hook missing" and never abort other services'
// tests.
func (e *Engine) Test(ctx context.Context, service string) (*Report, error) {
	if service != "" {
		return e.scopedHook(ctx, service, runtime.ActionTest)
	}
	return e.broadTest(ctx)
}

// scopedHook implements the shell/test commands targeting one service:
// restrict the plan to the minimal ancestor closure plus the target, bring
// it up, then invoke the hook on the target. If any ancestor failed, the
// target is skipped and the hook is never invoked.
func (e *Engine) scopedHook(ctx context.Context, service string, action runtime.Action) (*Report, error) {
	closure, err := e.graph.AncestorClosure(service)
	if err != nil {
		return nil, err
	}

	r := e.newRun()

	// A scoped test on a service with no test hook is decided before
	// anything starts: the whole point of the closure run would be to
	// invoke a hook that does not exist.
	hookCmd, ok := e.hookCommand(service, action)
	if !ok {
		r.ensure(service)
		r.skip(service, ReasonHookMissing)
		return r.report(action.String()), nil
	}

	plan, err := e.graph.PlanFor(closure)
	if err != nil {
		return nil, err
	}

	e.log.Debugw("scoped plan computed", "target", service, "plan", plan.String())
	r.executePlan(ctx, plan, runtime.ActionStart, true)

	if st := r.statusOf(service); st == model.StatusRunning {
		r.invoke(ctx, service, action, hookCmd)
	}
	return r.report(action.String()), nil
}

// broadTest starts the full pod, then runs every configured test hook.
func (e *Engine) broadTest(ctx context.Context) (*Report, error) {
	r := e.newRun()
	r.executePlan(ctx, e.graph.Plan(), runtime.ActionStart, true)

	var wg sync.WaitGroup
	for _, service := range e.graph.Services() {
		if r.statusOf(service) != model.StatusRunning {
			// The start phase already recorded why (failed, or
			// skipped behind a failed dependency).
			continue
		}
		hookCmd, ok := e.hookCommand(service, runtime.ActionTest)
		if !ok {
			r.skip(service, ReasonHookMissing)
			continue
		}

		wg.Add(1)
		go func(service, hookCmd string) {
			defer wg.Done()
			r.invoke(ctx, service, runtime.ActionTest, hookCmd)
		}(service, hookCmd)
	}
	wg.Wait()

	return r.report("test"), nil
}

// hookCommand resolves the hook string for a hook action. The shell hook
// always resolves (it has a default); the test hook only exists when the
// service configured one.
func (e *Engine) hookCommand(service string, action runtime.Action) (string, bool) {
	h := e.hooks[service]
	switch action {
	case runtime.ActionShell:
		return h.Shell, true
	case runtime.ActionTest:
		return h.Test, h.HasTest
	default:
		return "", true
	}
}

// run holds the mutable state of one engine invocation: the per-node status
// map and result set. Each node's entries are written by the single worker
// executing that node; the mutex covers the scheduler's reads at batch
// boundaries and report time.
type run struct {
	engine *Engine

	mu      sync.Mutex
	status  map[string]model.NodeStatus
	results map[string]*ServiceResult

	sem *semaphore.Weighted
}

func (e *Engine) newRun() *run {
	return &run{
		engine:  e,
		status:  make(map[string]model.NodeStatus),
		results: make(map[string]*ServiceResult),
		sem:     semaphore.NewWeighted(e.workers),
	}
}

// executePlan walks the plan batch by batch. Within a batch every node
// dispatches concurrently (bounded by the worker budget); the barrier at
// the end of each batch guarantees batch k+1 never starts while any node
// of batch ≤ k is non-terminal. When gated is true, a node is dispatched
// only if all of its dependencies ended Running; otherwise it is skipped
// with the blocking dependency recorded as the reason.
func (r *run) executePlan(ctx context.Context, plan *graph.Plan, action runtime.Action, gated bool) {
	for _, batch := range plan.Batches {
		r.mu.Lock()
		for _, service := range batch {
			if _, ok := r.status[service]; !ok {
				r.status[service] = model.StatusPending
				r.results[service] = &ServiceResult{Service: service, Status: model.StatusPending}
			}
		}
		r.mu.Unlock()
	}

	aborted := false
	for i, batch := range plan.Batches {
		// An abort request stops dispatch of further batches; nodes
		// that never dispatched are reported as skipped.
		if aborted || ctx.Err() != nil {
			aborted = true
			for _, service := range batch {
				r.skip(service, ReasonAborted)
			}
			continue
		}

		r.engine.log.Debugw("dispatching batch", "action", action, "batch", i, "services", batch)

		var wg sync.WaitGroup
		for _, service := range batch {
			if gated {
				if reason, blocked := r.blockedBy(service); blocked {
					r.skip(service, reason)
					continue
				}
			}

			wg.Add(1)
			go func(service string) {
				defer wg.Done()
				r.execute(ctx, service, action)
			}(service)
		}
		wg.Wait()
	}
}

// blockedBy reports whether any dependency of the service ended in a
// non-Running terminal state. Dependencies always live in earlier batches,
// so their statuses are settled by the batch barrier; checking direct
// dependencies propagates failure transitively because a skipped dependency
// blocks its dependents in turn.
func (r *run) blockedBy(service string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dep := range r.engine.graph.DependenciesOf(service) {
		st, tracked := r.status[dep]
		if !tracked {
			// Restricted plans only track the closure; anything
			// outside it is not this run's concern.
			continue
		}
		if st != model.StatusRunning {
			return fmt.Sprintf("dependency %s %s", dep, st), true
		}
	}
	return "", false
}

// execute runs one adapter call for a node, transitioning
// Pending → Starting → Running/Failed.
func (r *run) execute(ctx context.Context, service string, action runtime.Action) {
	hookCmd := ""
	if action.IsHook() {
		hookCmd, _ = r.engine.hookCommand(service, action)
	}

	// The budget wait respects cancellation: nodes still queued when an
	// abort arrives are skipped, not started.
	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.skip(service, ReasonAborted)
		return
	}
	defer r.sem.Release(1)

	r.setStatus(service, model.StatusStarting)

	// In-flight calls survive an external abort but never outlive the
	// per-call timeout: an unresponsive adapter call is treated as
	// failed rather than being forcibly killed mid-flight.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.engine.callTimeout)
	defer cancel()

	started := time.Now()
	res, err := r.engine.adapter.Invoke(callCtx, service, action, hookCmd)
	r.finish(service, action, res, err, time.Since(started))
}

// invoke runs a hook action for one node outside the plan walk (the hook
// step of scoped and broad hook commands), reusing the same state
// transitions and budget as plan execution.
func (r *run) invoke(ctx context.Context, service string, action runtime.Action, hookCmd string) {
	r.ensure(service)
	if ctx.Err() != nil {
		r.skip(service, ReasonAborted)
		return
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.skip(service, ReasonAborted)
		return
	}
	defer r.sem.Release(1)

	r.setStatus(service, model.StatusStarting)

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.engine.callTimeout)
	defer cancel()

	started := time.Now()
	res, err := r.engine.adapter.Invoke(callCtx, service, action, hookCmd)
	r.finish(service, action, res, err, time.Since(started))
}

// finish records the outcome of one adapter call: Running on a clean exit,
// Failed on an error or a nonzero exit code.
func (r *run) finish(service string, action runtime.Action, res runtime.Result, err error, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.results[service]
	result.ExitCode = res.ExitCode
	result.Stdout = res.Stdout
	result.Stderr = res.Stderr
	result.Duration = duration
	result.Reason = ""

	switch {
	case err != nil:
		r.status[service] = model.StatusFailed
		result.Status = model.StatusFailed
		result.Reason = err.Error()
		if result.ExitCode == 0 {
			result.ExitCode = 1
		}
	case res.ExitCode != 0:
		r.status[service] = model.StatusFailed
		result.Status = model.StatusFailed
		result.Reason = fmt.Sprintf("%s exited with code %d", action, res.ExitCode)
	default:
		r.status[service] = model.StatusRunning
		result.Status = model.StatusRunning
	}

	r.engine.log.Debugw("node finished", "service", service, "action", action,
		"status", r.status[service], "duration", duration)
}

// ensure registers a node in the run if the plan walk has not already.
func (r *run) ensure(service string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.status[service]; !ok {
		r.status[service] = model.StatusPending
		r.results[service] = &ServiceResult{Service: service, Status: model.StatusPending}
	}
}

// skip transitions a node to Skipped with the given reason, unless it
// already reached a terminal state.
func (r *run) skip(service, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.status[service]; ok && st.IsTerminal() && st != model.StatusRunning {
		return
	}
	r.status[service] = model.StatusSkipped
	if res, ok := r.results[service]; ok {
		res.Status = model.StatusSkipped
		res.Reason = reason
	} else {
		r.results[service] = &ServiceResult{Service: service, Status: model.StatusSkipped, Reason: reason}
	}
}

// setStatus records a non-terminal transition.
func (r *run) setStatus(service string, st model.NodeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[service] = st
	if res, ok := r.results[service]; ok {
		res.Status = st
	}
}

// statusOf reads one node's current status.
func (r *run) statusOf(service string) model.NodeStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[service]
}

// report compiles the final per-service report.
func (r *run) report(command string) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]ServiceResult, 0, len(r.results))
	for _, res := range r.results {
		results = append(results, *res)
	}
	sortResults(results)
	return &Report{Command: command, Results: results}
}
