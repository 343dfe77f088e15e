// Package graph implements the translation core: Node, Task, Section,
// Scatter, Workflow, Combine, and Namespace Jobs, and the Subgraph
// Builder that wires them together (spec §4.4-§4.9).
package graph

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/stdlib"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// Runtime bundles what every job in this package needs to submit
// children and evaluate expressions: the job engine, a document lookup
// for call targets, and the filesystem/virtualizer the Standard-Library
// Shim is built against.
type Runtime struct {
	Engine      jobengine.Engine
	Document    wdl.Document
	Fs          afero.Fs
	Virtualizer *filestore.Virtualizer
}

func (rt *Runtime) newShim(store filestore.Store) (*stdlib.Shim, error) {
	return stdlib.New(rt.Fs, rt.Virtualizer, store)
}

// NodeJobRun builds the jobengine.RunFunc for evaluating exactly one WDL
// workflow node (spec §4.4).
func NodeJobRun(rt *Runtime, node wdl.Node) jobengine.RunFunc {
	return func(ctx context.Context, preds []bindings.Bindings, store filestore.Store) (bindings.Bindings, error) {
		log := logger.FromContext(ctx).With("component", "node_job", "workflow_node_id", node.ID())
		env := bindings.CombineSorted(preds...)

		switch n := node.(type) {
		case *wdl.Decl:
			return runDeclNode(ctx, rt, n, env, store, log)
		case *wdl.Call:
			return runCallNode(ctx, rt, n, env, store, log)
		case *wdl.Scatter:
			_, f, err := rt.Engine.Submit(ctx, nil, []jobengine.Future{literalFuture(env)}, ScatterJobRun(rt, n))
			if err != nil {
				return bindings.Bindings{}, err
			}
			return f.Get(ctx)
		case *wdl.Conditional:
			_, f, err := rt.Engine.Submit(ctx, nil, []jobengine.Future{literalFuture(env)}, ConditionalJobRun(rt, n))
			if err != nil {
				return bindings.Bindings{}, err
			}
			return f.Get(ctx)
		default:
			return bindings.Bindings{}, core.NewError(
				fmt.Errorf("node kind for id %s has no Node Job handling", node.ID()),
				core.ErrUnimplementedNode,
				map[string]any{"workflow_node_id": node.ID()},
			)
		}
	}
}

func runDeclNode(
	ctx context.Context,
	rt *Runtime,
	n *wdl.Decl,
	env bindings.Bindings,
	store filestore.Store,
	log logger.Logger,
) (bindings.Bindings, error) {
	shim, err := rt.newShim(store)
	if err != nil {
		return bindings.Bindings{}, err
	}
	defer shim.Close()

	v, err := wdl.EvaluateDecl(ctx, n, env, shim)
	if err != nil {
		log.Error("decl evaluation failed", "error", err)
		return bindings.Bindings{}, err
	}
	log.Debug("decl evaluated", "name", n.Name)
	return env.Bind(n.Name, v), nil
}

// runCallNode implements spec §4.4's Call branch exactly: evaluate
// inputs, submit the callee's own unit, wrap its return under the
// call's local name via a Namespace Job, then fold that back into the
// incoming environment via a Combine Job.
func runCallNode(
	ctx context.Context,
	rt *Runtime,
	n *wdl.Call,
	env bindings.Bindings,
	store filestore.Store,
	log logger.Logger,
) (bindings.Bindings, error) {
	shim, err := rt.newShim(store)
	if err != nil {
		return bindings.Bindings{}, err
	}
	defer shim.Close()

	inputs, err := wdl.EvaluateCallInputs(ctx, n.Inputs, env, shim)
	if err != nil {
		return bindings.Bindings{}, err
	}
	passedDown := env.EnterNamespace(n.LocalName)

	calleeRun, isLeaf, err := rt.calleeRunFunc(n)
	if err != nil {
		return bindings.Bindings{}, err
	}

	submit := rt.Engine.Submit
	if isLeaf {
		submit = rt.Engine.SubmitLeaf
	}
	_, subFuture, err := submit(
		ctx, nil,
		[]jobengine.Future{literalFuture(inputs), literalFuture(passedDown)},
		calleeRun,
	)
	if err != nil {
		return bindings.Bindings{}, err
	}

	_, nsFuture, err := rt.Engine.Submit(ctx, nil, []jobengine.Future{subFuture}, NamespaceJobRun(n.LocalName))
	if err != nil {
		return bindings.Bindings{}, err
	}

	_, combined, err := rt.Engine.Submit(
		ctx, nil,
		[]jobengine.Future{nsFuture, literalFuture(env)},
		CombineJobRun(),
	)
	if err != nil {
		return bindings.Bindings{}, err
	}

	log.Debug("call evaluated", "callee", n.Callee, "local_name", n.LocalName)
	return combined.Get(ctx)
}

// calleeRunFunc resolves a call's callee to its RunFunc, and reports
// whether it is a leaf (Task Job, submitted via Engine.SubmitLeaf) or a
// composite unit (sub-workflow, submitted via Engine.Submit).
func (rt *Runtime) calleeRunFunc(n *wdl.Call) (run jobengine.RunFunc, isLeaf bool, err error) {
	switch n.CalleeKind {
	case wdl.KindTask:
		task, ok := rt.Document.Task(n.Callee)
		if !ok {
			return nil, false, core.NewError(
				fmt.Errorf("task %q not found", n.Callee),
				core.ErrInvalidCallee,
				map[string]any{"callee": n.Callee},
			)
		}
		return TaskJobRun(rt, task), true, nil
	case wdl.KindWorkflow:
		wf := rt.Document.Workflow()
		if wf == nil || wf.Name != n.Callee {
			return nil, false, core.NewError(
				fmt.Errorf("sub-workflow %q not found", n.Callee),
				core.ErrInvalidCallee,
				map[string]any{"callee": n.Callee},
			)
		}
		return WorkflowJobRun(rt, wf), false, nil
	default:
		return nil, false, core.NewError(
			fmt.Errorf("callee %q is neither task nor workflow", n.Callee),
			core.ErrInvalidCallee,
			map[string]any{"callee": n.Callee},
		)
	}
}
