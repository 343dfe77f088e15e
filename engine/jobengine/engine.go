// Package jobengine specifies the external distributed job engine
// contract the core consumes (spec §6): submission of a unit with
// predecessor relations, forward references to not-yet-computed return
// values, a per-unit file store, and a restart primitive. engine/graph
// is written entirely against this interface; engine/jobengine/temporal
// and engine/jobengine/fake are its two concrete realizations (Temporal-
// backed for production, an in-memory synchronous engine for tests).
package jobengine

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
)

// Future is a forward reference to a unit's not-yet-available return
// value — the engine resolves it to a Bindings once the unit completes.
type Future interface {
	Get(ctx context.Context) (bindings.Bindings, error)
}

// Unit is a submitted scheduled job, identified stably within a run.
type Unit interface {
	ID() string
}

// RunFunc is a unit's run method: given the resolved Bindings of every
// predecessor (in the order submitted, not yet combined — the job
// itself applies the §4.1 merge rule since different job kinds combine
// differently), produce the unit's own return Bindings. RunFunc must be
// idempotent: the engine may re-invoke it after a restart.
type RunFunc func(ctx context.Context, predecessors []bindings.Bindings, store filestore.Store) (bindings.Bindings, error)

// Engine is the job-engine contract the core consumes.
type Engine interface {
	// Submit creates a new composite Unit as a child of parent (nil for
	// the root), depending on preds, and returns the Unit plus a Future
	// for its return value. Composite units (Node, Section, Scatter,
	// Workflow, Combine, Namespace Jobs) may themselves call Submit or
	// SubmitLeaf again to wire children — a Temporal-backed Engine
	// realizes Submit as a child workflow for exactly this reason: only
	// workflow code may start further child workflows or activities.
	Submit(ctx context.Context, parent Unit, preds []Future, run RunFunc) (Unit, Future, error)

	// SubmitLeaf creates a new leaf Unit that performs its own blocking
	// I/O (file-store calls, shell command execution) but never itself
	// calls Submit/SubmitLeaf. Task Job is the only leaf kind. A
	// Temporal-backed Engine realizes SubmitLeaf as an Activity, which
	// may perform I/O but cannot start child workflows or activities of
	// its own — the distinction SubmitLeaf encodes.
	SubmitLeaf(ctx context.Context, parent Unit, preds []Future, run RunFunc) (Unit, Future, error)

	// FileStore returns the file-store handle available to unit, per
	// spec §6's "per-unit file-store".
	FileStore(unit Unit) filestore.Store

	// Restart resumes an interrupted run identified by runID, re-
	// invoking every not-yet-completed unit's RunFunc.
	Restart(ctx context.Context, runID string) error
}
