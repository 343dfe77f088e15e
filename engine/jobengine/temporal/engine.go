// Package temporal is the production realization of engine/jobengine.Engine
// on top of go.temporal.io/sdk: Node/Section/Workflow/Combine/Namespace
// Jobs run as Temporal Child Workflows (deterministic orchestration code
// that may itself submit further children), Task Job runs as a Temporal
// Activity (the one unit kind that performs blocking I/O: shell
// execution and file-store calls).
package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/workflow"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/jobengine/checkpoint"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

const (
	// UnitWorkflowName is the single registered child-workflow function
	// every composite unit runs under; it dispatches to the submitting
	// process's local RunFunc registry by unit ID. Workflow types must be
	// statically registered with Temporal, so this name (not the
	// caller's closure) is what Temporal actually schedules and replays.
	UnitWorkflowName = "WDLUnitWorkflow"
	// UnitActivityName is the single registered activity function every
	// leaf (Task Job) unit runs under.
	UnitActivityName = "WDLUnitActivity"
)

// registry maps a unit's ksuid to the RunFunc closure that produced it, so
// UnitWorkflow/UnitActivity (registered once, by name, ahead of any run)
// can recover the caller's actual logic. This only works because the
// submitting driver and the Temporal worker executing these registered
// functions share one process — the deployment model this adapter
// assumes (a single `wdlrun` binary acting as both workflow-starter and
// worker), not a fleet of independently-deployed workers.
type registry struct {
	mu sync.RWMutex
	m  map[string]jobengine.RunFunc
}

func newRegistry() *registry { return &registry{m: map[string]jobengine.RunFunc{}} }

func (r *registry) put(id string, run jobengine.RunFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = run
}

func (r *registry) get(id string) (jobengine.RunFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.m[id]
	return run, ok
}

// unitArgs is the serializable payload UnitWorkflow/UnitActivity
// actually receive over Temporal's wire protocol: the registry key plus
// the already-resolved predecessor Bindings (predecessors must resolve
// before a Temporal child is started, mirroring the fake engine's
// synchronous-resolution behavior, since Bindings cannot itself be
// shipped as an unresolved forward reference across the SDK boundary).
type unitArgs struct {
	RegistryID string
	Preds      []bindings.Bindings
}

// Engine is a Temporal-backed jobengine.Engine. One Engine corresponds to
// one workflow run (one Temporal workflow execution namespace-scoped by
// RunID); NewEngine is called once per `wdlrun run` invocation.
type Engine struct {
	client    client.Client
	taskQueue string
	runID     string
	store     filestore.Store
	reg       *registry
	statusCh  chan jobengine.StatusEvent
	ckpt      *checkpoint.Store
}

// NewEngine constructs a temporal.Engine bound to an already-connected
// Temporal client, task queue, and a file store shared by every unit in
// this run.
func NewEngine(c client.Client, taskQueue, runID string, store filestore.Store) *Engine {
	return &Engine{
		client:    c,
		taskQueue: taskQueue,
		runID:     runID,
		store:     store,
		reg:       newRegistry(),
		statusCh:  make(chan jobengine.StatusEvent, 256),
	}
}

// WithCheckpoint attaches a restart journal: once set, every unit's
// submission and completion is recorded so Restart can report which units
// a crashed run never finished. Returns e for chaining at construction time.
func (e *Engine) WithCheckpoint(s *checkpoint.Store) *Engine {
	e.ckpt = s
	return e
}

// Statuses implements jobengine.StatusSource. It only reports units
// executed by a worker running in this same process, per the registry's
// single-process deployment assumption.
func (e *Engine) Statuses() <-chan jobengine.StatusEvent { return e.statusCh }

func (e *Engine) publish(ev jobengine.StatusEvent) {
	select {
	case e.statusCh <- ev:
	default:
	}
}

var _ jobengine.Engine = (*Engine)(nil)

type ksuidUnit struct{ id core.ID }

func (u ksuidUnit) ID() string { return u.id.String() }

// workflowFuture adapts workflow.Future to jobengine.Future for code
// running inside a workflow's Go context.
type workflowFuture struct {
	wfCtx workflow.Context
	f     workflow.Future
}

func (wf workflowFuture) Get(_ context.Context) (bindings.Bindings, error) {
	var out bindings.Bindings
	err := wf.f.Get(wf.wfCtx, &out)
	return out, err
}

// clientFuture adapts a root (non-workflow) Temporal workflow run handle
// to jobengine.Future, used only for the outermost Submit call made by
// cmd/wdlrun before any workflow context exists.
type clientFuture struct {
	run client.WorkflowRun
}

func (cf clientFuture) Get(ctx context.Context) (bindings.Bindings, error) {
	var out bindings.Bindings
	err := cf.run.Get(ctx, &out)
	return out, err
}

type wfCtxKey struct{}

// ContextWithWorkflowContext attaches a Temporal workflow.Context to ctx
// so RunFunc implementations that recursively call Engine.Submit can be
// dispatched as child workflows rather than fresh top-level executions.
// UnitWorkflow calls this before invoking the registered RunFunc.
func ContextWithWorkflowContext(ctx context.Context, wfCtx workflow.Context) context.Context {
	return context.WithValue(ctx, wfCtxKey{}, wfCtx)
}

func workflowContextFrom(ctx context.Context) (workflow.Context, bool) {
	wfCtx, ok := ctx.Value(wfCtxKey{}).(workflow.Context)
	return wfCtx, ok
}

// Submit schedules run as a child workflow (if called from inside an
// already-running workflow) or as a brand-new top-level workflow
// execution (if called from outside any workflow — the root Submit made
// by cmd/wdlrun). preds are resolved synchronously first, matching the
// contract that a unit only starts once every predecessor has a value.
func (e *Engine) Submit(
	ctx context.Context,
	_ jobengine.Unit,
	preds []jobengine.Future,
	run jobengine.RunFunc,
) (jobengine.Unit, jobengine.Future, error) {
	resolved, err := resolveAll(ctx, preds)
	if err != nil {
		return nil, nil, err
	}
	id, err := core.NewID()
	if err != nil {
		return nil, nil, core.NewError(err, core.ErrIO, nil)
	}
	e.reg.put(id.String(), run)
	u := ksuidUnit{id: id}
	args := unitArgs{RegistryID: id.String(), Preds: resolved}

	if wfCtx, ok := workflowContextFrom(ctx); ok {
		childOpts := workflow.ChildWorkflowOptions{WorkflowID: fmt.Sprintf("%s-%s", e.runID, id)}
		childCtx := workflow.WithChildOptions(wfCtx, childOpts)
		f := workflow.ExecuteChildWorkflow(childCtx, UnitWorkflowName, args)
		return u, workflowFuture{wfCtx: wfCtx, f: f}, nil
	}

	run2, startErr := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID: fmt.Sprintf("%s-%s", e.runID, id), TaskQueue: e.taskQueue,
	}, UnitWorkflowName, args)
	if startErr != nil {
		return nil, nil, core.NewError(startErr, core.ErrIO, map[string]any{"unit_id": id.String()})
	}
	return u, clientFuture{run: run2}, nil
}

// SubmitLeaf schedules run as a Temporal Activity — the only unit kind
// permitted to perform blocking I/O directly. Leaf units must run inside
// a workflow context (Task Job is always reached via a Call's Node Job,
// which is itself a child workflow), so an outside-workflow SubmitLeaf
// call is a programmer error.
func (e *Engine) SubmitLeaf(
	ctx context.Context,
	_ jobengine.Unit,
	preds []jobengine.Future,
	run jobengine.RunFunc,
) (jobengine.Unit, jobengine.Future, error) {
	resolved, err := resolveAll(ctx, preds)
	if err != nil {
		return nil, nil, err
	}
	wfCtx, ok := workflowContextFrom(ctx)
	if !ok {
		return nil, nil, core.NewError(
			fmt.Errorf("SubmitLeaf called outside any workflow context"),
			core.ErrIO, nil,
		)
	}
	id, err := core.NewID()
	if err != nil {
		return nil, nil, core.NewError(err, core.ErrIO, nil)
	}
	e.reg.put(id.String(), run)
	actCtx := workflow.WithActivityOptions(wfCtx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
	})
	f := workflow.ExecuteActivity(actCtx, UnitActivityName, unitArgs{RegistryID: id.String(), Preds: resolved})
	return ksuidUnit{id: id}, workflowFuture{wfCtx: wfCtx, f: f}, nil
}

func resolveAll(ctx context.Context, preds []jobengine.Future) ([]bindings.Bindings, error) {
	out := make([]bindings.Bindings, len(preds))
	for i, p := range preds {
		v, err := p.Get(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FileStore returns the run-wide file store; the Temporal adapter does
// not partition storage per unit, matching the fake engine.
func (e *Engine) FileStore(_ jobengine.Unit) filestore.Store { return e.store }

// Restart re-executes every not-yet-completed unit registered under
// runID by signaling the Temporal client to start a new workflow
// execution reusing the same workflow ID with WorkflowIDReusePolicy set
// to allow-duplicate-failed-only.
func (e *Engine) Restart(ctx context.Context, runID string) error {
	if e.ckpt != nil {
		incomplete, err := e.ckpt.Incomplete(ctx, runID)
		if err != nil {
			return err
		}
		logger.FromContext(ctx).With("run_id", runID).
			Info("restarting run", "incomplete_units", len(incomplete))
	}
	_, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       runID,
		TaskQueue:                e.taskQueue,
		WorkflowIDReusePolicy:    enumsWorkflowIDReusePolicyAllowDuplicate(),
		WorkflowExecutionTimeout: 0,
	}, UnitWorkflowName, unitArgs{})
	if err != nil {
		return core.NewError(fmt.Errorf("restarting run %s: %w", runID, err), core.ErrIO, nil)
	}
	return nil
}

// recordSubmitted best-effort checkpoints a unit's submission. Checkpoint
// failures are logged, never propagated: the journal is inspectable
// bookkeeping, not the source of truth for what actually ran.
func (e *Engine) recordSubmitted(ctx context.Context, unitID string) {
	if e.ckpt == nil {
		return
	}
	if err := e.ckpt.RecordSubmitted(ctx, e.runID, unitID, ""); err != nil {
		logger.FromContext(ctx).Warn("checkpoint record submitted failed", "unit_id", unitID, "error", err)
	}
}

func (e *Engine) recordCompleted(ctx context.Context, unitID string) {
	if e.ckpt == nil {
		return
	}
	if err := e.ckpt.RecordCompleted(ctx, e.runID, unitID); err != nil {
		logger.FromContext(ctx).Warn("checkpoint record completed failed", "unit_id", unitID, "error", err)
	}
}

// UnitWorkflow is the single Temporal workflow function registered with
// every worker; it recovers the real RunFunc from the process-local
// registry and runs it with a workflow-context-carrying context.Context
// so any further Submit/SubmitLeaf calls it makes are dispatched as
// children of this workflow.
func UnitWorkflow(wfCtx workflow.Context, args unitArgs, eng *Engine) (bindings.Bindings, error) {
	run, ok := eng.reg.get(args.RegistryID)
	if !ok {
		return bindings.Bindings{}, core.NewError(
			fmt.Errorf("unit %s not found in registry (restarted on a different process?)", args.RegistryID),
			core.ErrIO, nil,
		)
	}
	// Publishing to a process-local channel is itself a side effect, so it
	// is skipped during replay (workflow.IsReplaying) and timestamped with
	// workflow.Now, the only deterministic clock a workflow function may
	// read.
	replaying := workflow.IsReplaying(wfCtx)
	ctx := ContextWithWorkflowContext(context.Background(), wfCtx)
	if !replaying {
		eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusSubmitted, At: workflow.Now(wfCtx)})
		eng.recordSubmitted(ctx, args.RegistryID)
	}
	out, err := run(ctx, args.Preds, eng.store)
	if !replaying {
		if err != nil {
			eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusFailed, At: workflow.Now(wfCtx), Err: err})
		} else {
			eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusCompleted, At: workflow.Now(wfCtx)})
			eng.recordCompleted(ctx, args.RegistryID)
		}
	}
	return out, err
}

// UnitActivity is the single Temporal activity function registered with
// every worker, backing Task Job.
func UnitActivity(ctx context.Context, args unitArgs, eng *Engine) (bindings.Bindings, error) {
	run, ok := eng.reg.get(args.RegistryID)
	if !ok {
		return bindings.Bindings{}, core.NewError(
			fmt.Errorf("unit %s not found in registry", args.RegistryID),
			core.ErrIO, nil,
		)
	}
	info := activity.GetInfo(ctx)
	logger.FromContext(ctx).With(
		"component", "temporal_activity",
		"activity_id", info.ActivityID,
		"correlation_id", uuid.NewString(),
	).Debug("running task job activity")
	eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusSubmitted, At: time.Now()})
	eng.recordSubmitted(ctx, args.RegistryID)
	out, err := run(ctx, args.Preds, eng.store)
	if err != nil {
		eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusFailed, At: time.Now(), Err: err})
	} else {
		eng.publish(jobengine.StatusEvent{UnitID: args.RegistryID, Status: jobengine.StatusCompleted, At: time.Now()})
		eng.recordCompleted(ctx, args.RegistryID)
	}
	return out, err
}

func enumsWorkflowIDReusePolicyAllowDuplicate() client.WorkflowIDReusePolicy {
	return client.WorkflowIDReusePolicyAllowDuplicateFailedOnly
}
