package temporal

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/wdlrun/wdlrun/engine/bindings"
)

// RegisterWorker registers UnitWorkflow and UnitActivity (bound to eng)
// on w, so a single `wdlrun run` process can both submit units (via
// Engine) and execute them (via this worker) — the deployment model this
// adapter's registry trick depends on.
func RegisterWorker(w worker.Worker, eng *Engine) {
	w.RegisterWorkflowWithOptions(
		func(wfCtx workflow.Context, args unitArgs) (bindings.Bindings, error) {
			return UnitWorkflow(wfCtx, args, eng)
		},
		workflow.RegisterOptions{Name: UnitWorkflowName},
	)
	w.RegisterActivityWithOptions(
		func(ctx context.Context, args unitArgs) (bindings.Bindings, error) {
			return UnitActivity(ctx, args, eng)
		},
		activity.RegisterOptions{Name: UnitActivityName},
	)
}
