package graph

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/shlex"
	"github.com/slok/goresilience"
	"github.com/slok/goresilience/timeout"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/stdlib"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// defaultCommandTimeout bounds every task's shell command; runCommand
// always uses it and does not read pkg/config's Task.DefaultTimeout.
const defaultCommandTimeout = 10 * time.Minute

// TaskJobRun builds the jobengine.RunFunc that evaluates a task's inputs,
// runtime, command, and outputs (spec §4.5).
func TaskJobRun(rt *Runtime, task *wdl.Task) jobengine.RunFunc {
	return func(ctx context.Context, preds []bindings.Bindings, store filestore.Store) (bindings.Bindings, error) {
		log := logger.FromContext(ctx).With("component", "task_job", "task", task.Name)
		env := bindings.CombineSorted(preds...)

		shim, err := rt.newShim(store)
		if err != nil {
			return bindings.Bindings{}, err
		}
		defer shim.Close()

		for _, d := range task.Inputs {
			v, err := wdl.EvaluateDefaultableDecl(ctx, d, env, shim)
			if err != nil {
				log.Error("input evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			env = env.Bind(d.Name, v)
		}
		for _, d := range task.Postinputs {
			v, err := wdl.EvaluateDecl(ctx, d, env, shim)
			if err != nil {
				log.Error("postinput evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			env = env.Bind(d.Name, v)
		}

		runtimeHints, err := evaluateRuntime(ctx, task.Runtime, env, shim)
		if err != nil {
			return bindings.Bindings{}, err
		}
		log.Debug("runtime evaluated", "hints", runtimeHints.Names(), "cache_key", core.CallCacheKey(task.Name, env.AsMap()))

		cmdVal, err := task.Command.Eval(ctx, env, shim)
		if err != nil {
			return bindings.Bindings{}, err
		}
		cmdStr, err := cmdVal.AsString()
		if err != nil {
			return bindings.Bindings{}, core.NewError(err, core.ErrTypeMismatch, map[string]any{"task": task.Name})
		}

		stdoutPath, stderrPath, err := runCommand(ctx, rt, shim, cmdStr, log)
		if err != nil {
			return bindings.Bindings{}, err
		}

		outShim := stdlib.NewTaskOutputsShim(shim, stdoutPath, stderrPath)
		outputs := bindings.New()
		for _, d := range task.Outputs {
			v, err := wdl.EvaluateDecl(ctx, d, env, outShim)
			if err != nil {
				log.Error("output evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			outputs = outputs.Bind(d.Name, v)
		}
		log.Debug("task completed", "outputs", outputs.Names())
		return outputs, nil
	}
}

func evaluateRuntime(
	ctx context.Context,
	runtime map[string]wdl.Expr,
	env bindings.Bindings,
	shim wdl.Stdlib,
) (bindings.Bindings, error) {
	hints := bindings.New()
	for name, expr := range runtime {
		v, err := expr.Eval(ctx, env, shim)
		if err != nil {
			return bindings.Bindings{}, core.NewError(err, core.ErrEvaluation, map[string]any{"runtime_key": name})
		}
		hints = hints.Bind(name, v)
	}
	return hints, nil
}

// runCommand tokenizes and executes cmdStr via a shell, wrapped in a
// goresilience timeout middleware so a hung command fails the unit rather
// than the worker. stdout/stderr are captured into write_dir for the
// TaskOutputs shim's stdout()/stderr() builtins.
func runCommand(
	ctx context.Context,
	rt *Runtime,
	shim *stdlib.Shim,
	cmdStr string,
	log logger.Logger,
) (stdoutPath, stderrPath string, err error) {
	if _, err := shlex.Split(cmdStr); err != nil {
		return "", "", core.NewError(fmt.Errorf("tokenizing command: %w", err), core.ErrEvaluation, nil)
	}

	stdoutPath = shim.WriteDir() + "/stdout"
	stderrPath = shim.WriteDir() + "/stderr"
	outFile, err := rt.Fs.Create(stdoutPath)
	if err != nil {
		return "", "", core.NewError(err, core.ErrIO, nil)
	}
	defer outFile.Close()
	errFile, err := rt.Fs.Create(stderrPath)
	if err != nil {
		return "", "", core.NewError(err, core.ErrIO, nil)
	}
	defer errFile.Close()

	runner := goresilience.RunnerChain(timeout.NewMiddleware(timeout.Config{Timeout: defaultCommandTimeout}))
	runErr := runner.Run(ctx, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
		cmd.Dir = shim.WriteDir()
		cmd.Stdout = outFile
		cmd.Stderr = errFile
		return cmd.Run()
	})
	if runErr != nil {
		log.Error("command failed", "error", runErr)
		return "", "", core.NewError(runErr, core.ErrCommandFailure, map[string]any{"command": cmdStr})
	}
	return stdoutPath, stderrPath, nil
}
