package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/wdlrun/wdlrun/cmd/wdlrun/tui"
	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/graph"
	"github.com/wdlrun/wdlrun/engine/jobengine/checkpoint"
	"github.com/wdlrun/wdlrun/engine/jobengine/temporal"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/engine/wdl/jsondoc"
	"github.com/wdlrun/wdlrun/pkg/config"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

func newRunCommand() *cobra.Command {
	var restart bool
	var useTUI bool
	var interactive bool
	cmd := &cobra.Command{
		Use:   "run <wdl_uri> <inputs_uri>",
		Short: "Translate a WDL workflow into a job graph and run it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), args[0], args[1], restart, useTUI, interactive)
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "resume an interrupted run instead of starting a new one")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "render a live Bubble Tea dashboard of unit status")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for any missing required scalar inputs instead of failing")
	return cmd
}

func runWorkflow(ctx context.Context, wdlURI, inputsURI string, restart, useTUI, interactive bool) error {
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)

	doc, err := jsondoc.Load(wdlURI)
	if err != nil {
		return err
	}
	wf := doc.Workflow()

	raw, err := os.ReadFile(inputsURI)
	if err != nil {
		return fmt.Errorf("reading inputs %s: %w", inputsURI, err)
	}
	available, required := inputSchema(wf)
	if interactive {
		raw, err = fillMissingInputs(wf, raw, available, required)
		if err != nil {
			return err
		}
	}
	seed, err := wdl.ValuesFromJSON(raw, available, required, wf.Name)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	store, err := filestore.NewLocalStore(
		fs,
		cfg.FileStore.Root,
		cfg.FileStore.TempDir,
		cfg.FileStore.CacheSize,
	)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort, Namespace: cfg.Temporal.Namespace})
	if err != nil {
		return fmt.Errorf("dialing temporal at %s: %w", cfg.Temporal.HostPort, err)
	}
	defer c.Close()

	runID := fmt.Sprintf("wdlrun-%s-%d", wf.Name, time.Now().UnixNano())
	eng := temporal.NewEngine(c, cfg.Temporal.TaskQueue, runID, store)
	if cfg.Checkpoint.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Checkpoint.DSN)
		if err != nil {
			return fmt.Errorf("connecting checkpoint database: %w", err)
		}
		defer pool.Close()
		eng = eng.WithCheckpoint(checkpoint.NewStore(pool))
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	temporal.RegisterWorker(w, eng)
	if err := w.Start(); err != nil {
		return fmt.Errorf("starting temporal worker: %w", err)
	}
	defer w.Stop()

	importer := filestore.NewRemoteImporter(fs, cfg.FileStore.TempDir+"/remote", cfg.Retry.Attempts, cfg.Retry.DelayStart, cfg.Retry.DelayMax)
	rt := &graph.Runtime{Engine: eng, Document: doc, Fs: fs, Virtualizer: filestore.NewVirtualizer(store, importer)}

	if useTUI {
		go func() {
			if err := tui.Run(eng.Statuses()); err != nil {
				log.Error("tui dashboard exited", "error", err)
			}
		}()
	}

	if restart {
		if err := eng.Restart(ctx, runID); err != nil {
			return err
		}
		log.Info("restarted run", "run_id", runID)
		return nil
	}

	_, future, err := eng.Submit(ctx, nil, nil, graph.WorkflowJobRun(rt, wf))
	if err != nil {
		return err
	}
	result, err := future.Get(ctx)
	if err != nil {
		return err
	}
	return printResult(result)
}

// inputSchema derives the values_from_json `available`/`required` maps
// from the workflow's own Inputs declarations: a declaration is required
// when it has no default expression and is not an optional type.
func inputSchema(wf *wdl.Workflow) (map[string]wdl.Type, map[string]bool) {
	available := make(map[string]wdl.Type, len(wf.Inputs))
	required := make(map[string]bool, len(wf.Inputs))
	for _, d := range wf.Inputs {
		available[d.Name] = d.Type
		required[d.Name] = d.Expr == nil && !d.Type.Optional
	}
	return available, required
}

// fillMissingInputs decodes raw into a JSON object, prompts interactively
// for any missing required scalar inputs (see inputs_prompt.go),
// and re-encodes the result. Structured inputs still surface the ordinary
// missing-required-input error from wdl.ValuesFromJSON.
func fillMissingInputs(
	wf *wdl.Workflow,
	raw []byte,
	available map[string]wdl.Type,
	required map[string]bool,
) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing inputs JSON: %w", err)
	}
	if err := promptMissingScalarInputs(wf, doc, available, required); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func printResult(b bindings.Bindings) error {
	out := b.AsMap()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
