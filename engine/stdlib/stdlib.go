// Package stdlib implements the Standard-Library Shim (spec §4.2): the
// devirtualize/virtualize hooks and write directory the WDL evaluator's
// file-touching builtins need, constructed fresh per Node/Task Job.
package stdlib

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/value"
)

// Shim is the general-purpose Standard-Library Shim, valid everywhere a
// node evaluates expressions.
type Shim struct {
	fs          afero.Fs
	virtualizer *filestore.Virtualizer
	writeDir    string
}

// New constructs a Shim with a fresh write_dir allocated from store.
func New(fs afero.Fs, virtualizer *filestore.Virtualizer, store filestore.Store) (*Shim, error) {
	dir, err := store.LocalTempDir()
	if err != nil {
		return nil, err
	}
	return &Shim{fs: fs, virtualizer: virtualizer, writeDir: dir}, nil
}

// WriteDir returns the current unit's local scratch directory.
func (s *Shim) WriteDir() string { return s.writeDir }

// Devirtualize resolves f to a local path per spec §4.2.
func (s *Shim) Devirtualize(ctx context.Context, f value.File) (string, error) {
	return s.virtualizer.Devirtualize(ctx, f)
}

// Virtualize uploads localPath into the file store per spec §4.2.
func (s *Shim) Virtualize(ctx context.Context, localPath string) (value.File, error) {
	return s.virtualizer.Virtualize(ctx, value.File{LocalPath: localPath})
}

// Glob implements the WDL `glob()` builtin against write_dir using
// doublestar, which (unlike filepath.Glob) supports `**` recursive
// matching the way WDL's glob semantics expect.
func (s *Shim) Glob(pattern string) ([]string, error) {
	full := joinWriteDir(s.writeDir, pattern)
	fsys, prefix := afero.NewIOFS(s.fs), ""
	if strings.HasPrefix(full, "/") {
		// io/fs paths are unrooted: glob from "/" and re-root the matches.
		fsys, full, prefix = afero.NewIOFS(afero.NewBasePathFs(s.fs, "/")), full[1:], "/"
	}
	matches, err := doublestar.Glob(fsys, full)
	if err != nil {
		return nil, core.NewError(err, core.ErrEvaluation, map[string]any{"pattern": pattern})
	}
	for i := range matches {
		matches[i] = prefix + matches[i]
	}
	return matches, nil
}

// Close removes write_dir, bounding local disk use across a long scatter
// (ported from the original's per-job cleanup). Safe to call multiple
// times; errors are not fatal since write_dir is scratch space only.
func (s *Shim) Close() error {
	if s.writeDir == "" {
		return nil
	}
	return s.fs.RemoveAll(s.writeDir)
}

func joinWriteDir(writeDir, pattern string) string {
	if len(pattern) > 0 && pattern[0] == '/' {
		return pattern
	}
	return writeDir + "/" + pattern
}
