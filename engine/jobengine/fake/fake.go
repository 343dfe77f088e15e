// Package fake provides an in-memory, synchronous jobengine.Engine used
// by engine/graph's scenario tests (S1, S2, S4, S5 of spec §8) so
// they can assert deterministic behavior without a live Temporal server.
// Submit executes run inline, which is safe here because the Subgraph
// Builder always emits predecessor units before their dependents.
package fake

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
)

type unit struct{ id string }

func (u *unit) ID() string { return u.id }

type future struct {
	mu    sync.Mutex
	done  bool
	value bindings.Bindings
	err   error
}

func (f *future) Get(_ context.Context) (bindings.Bindings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.done {
		return bindings.Bindings{}, fmt.Errorf("fake engine: future read before its unit ran")
	}
	return f.value, f.err
}

func (f *future) resolve(v bindings.Bindings, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err, f.done = v, err, true
}

// Engine is a synchronous in-memory jobengine.Engine.
type Engine struct {
	fs       afero.Fs
	store    filestore.Store
	counter  int64
	statusCh chan jobengine.StatusEvent
}

// New builds an Engine backed by an in-memory afero filesystem.
func New() (*Engine, error) {
	fs := afero.NewMemMapFs()
	store, err := filestore.NewLocalStore(fs, "/store", "/tmp", 64)
	if err != nil {
		return nil, err
	}
	return &Engine{fs: fs, store: store, statusCh: make(chan jobengine.StatusEvent, 256)}, nil
}

// Statuses implements jobengine.StatusSource.
func (e *Engine) Statuses() <-chan jobengine.StatusEvent { return e.statusCh }

func (e *Engine) publish(ev jobengine.StatusEvent) {
	select {
	case e.statusCh <- ev:
	default:
	}
}

// Fs returns the in-memory filesystem backing the engine's file store, so
// callers (e.g. engine/graph's Runtime) can build a Standard-Library Shim
// against the same filesystem the store allocates temp directories on.
func (e *Engine) Fs() afero.Fs { return e.fs }

var _ jobengine.Engine = (*Engine)(nil)

// Submit runs fn immediately against preds' already-resolved values. The
// fake engine makes no workflow/activity distinction, so SubmitLeaf is a
// plain alias of this method.
func (e *Engine) Submit(
	ctx context.Context,
	_ jobengine.Unit,
	preds []jobengine.Future,
	run jobengine.RunFunc,
) (jobengine.Unit, jobengine.Future, error) {
	id := fmt.Sprintf("unit-%d", atomic.AddInt64(&e.counter, 1))
	u := &unit{id: id}
	f := &future{}

	resolved := make([]bindings.Bindings, len(preds))
	for i, p := range preds {
		v, err := p.Get(ctx)
		if err != nil {
			f.resolve(bindings.Bindings{}, err)
			return u, f, nil
		}
		resolved[i] = v
	}

	e.publish(jobengine.StatusEvent{UnitID: id, Status: jobengine.StatusSubmitted, At: time.Now()})
	out, err := run(ctx, resolved, e.store)
	if err != nil {
		e.publish(jobengine.StatusEvent{UnitID: id, Status: jobengine.StatusFailed, At: time.Now(), Err: err})
	} else {
		e.publish(jobengine.StatusEvent{UnitID: id, Status: jobengine.StatusCompleted, At: time.Now()})
	}
	f.resolve(out, err)
	return u, f, nil
}

// SubmitLeaf runs fn immediately, identically to Submit; the fake engine
// has no activity/workflow split since everything runs in-process.
func (e *Engine) SubmitLeaf(
	ctx context.Context,
	parent jobengine.Unit,
	preds []jobengine.Future,
	run jobengine.RunFunc,
) (jobengine.Unit, jobengine.Future, error) {
	return e.Submit(ctx, parent, preds, run)
}

// FileStore returns the engine's shared file store; the fake engine does
// not partition storage per unit.
func (e *Engine) FileStore(_ jobengine.Unit) filestore.Store { return e.store }

// Restart always returns an error for the fake engine: nothing survives
// across process restarts in an in-memory implementation.
func (e *Engine) Restart(_ context.Context, runID string) error {
	return fmt.Errorf("fake engine: run %q cannot be restarted, no durable state kept", runID)
}
