package stdlib

import (
	"context"

	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
)

// TaskOutputsShim extends Shim with the builtins valid only inside a
// task's output section: reading the captured stdout/stderr of the
// command that just ran.
type TaskOutputsShim struct {
	*Shim
	stdoutPath string
	stderrPath string
}

// NewTaskOutputsShim wraps base with access to the command's captured
// stdout/stderr files.
func NewTaskOutputsShim(base *Shim, stdoutPath, stderrPath string) *TaskOutputsShim {
	return &TaskOutputsShim{Shim: base, stdoutPath: stdoutPath, stderrPath: stderrPath}
}

// Stdout implements the WDL `stdout()` builtin: a File value pointing at
// the command's captured standard output.
func (s *TaskOutputsShim) Stdout() value.Value {
	return value.NewFile(value.File{LocalPath: s.stdoutPath})
}

// Stderr implements the WDL `stderr()` builtin.
func (s *TaskOutputsShim) Stderr() value.Value {
	return value.NewFile(value.File{LocalPath: s.stderrPath})
}

// ReadString implements the WDL `read_string()` builtin: devirtualizes f
// if needed and returns its contents unmodified (trailing newlines kept).
func (s *TaskOutputsShim) ReadString(ctx context.Context, f value.File) (string, error) {
	path, err := s.Devirtualize(ctx, f)
	if err != nil {
		return "", err
	}
	fs := s.fsOrOS()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", core.NewError(err, core.ErrIO, map[string]any{"path": path})
	}
	return string(data), nil
}

func (s *TaskOutputsShim) fsOrOS() afero.Fs {
	if s.Shim.fs != nil {
		return s.Shim.fs
	}
	return afero.NewOsFs()
}
