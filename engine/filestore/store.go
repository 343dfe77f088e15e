// Package filestore implements the File Virtualizer (spec §4.2): a
// durable, content-addressed local file store plus the bidirectional
// virtualize/devirtualize mapping between File values and store handles,
// and remote http(s)/s3 import.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofrs/flock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
)

// contentDigest hashes b's raw bytes, the address every store object is
// named by — distinct from core.ETagFromAny, which hashes the canonical
// JSON form of structured values rather than raw file bytes.
func contentDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Store is the per-unit file-store handle the jobengine contract exposes
// (spec §6): import a remote URI, read a handle to a local path, write a
// local path into the store as a handle, and allocate a unit-scoped
// local temp directory.
type Store interface {
	ImportRemote(ctx context.Context, uri string) (string, error)
	ReadLocal(ctx context.Context, handle string) (string, error)
	WriteLocal(ctx context.Context, localPath string) (string, error)
	LocalTempDir() (string, error)
}

// LocalStore is a Store backed by a local directory tree (afero-
// abstracted so tests can run against an in-memory filesystem). Content
// is addressed by the sha256 of its bytes; handles are
// "toilfile:<hex digest>".
type LocalStore struct {
	fs      afero.Fs
	root    string
	tempDir string

	pathCache *lru.Cache[string, string]
}

// NewLocalStore builds a LocalStore rooted at root, staging local
// devirtualized copies under tempDir. cacheSize bounds the
// devirtualized-path memoization cache (0 disables caching).
func NewLocalStore(fs afero.Fs, root, tempDir string, cacheSize int) (*LocalStore, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating file store root %s: %w", root, err)
	}
	if err := fs.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating file store temp dir %s: %w", tempDir, err)
	}
	var cache *lru.Cache[string, string]
	if cacheSize > 0 {
		c, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating devirtualized-path cache: %w", err)
		}
		cache = c
	}
	return &LocalStore{fs: fs, root: root, tempDir: tempDir, pathCache: cache}, nil
}

func (s *LocalStore) objectPath(digest string) string {
	return filepath.Join(s.root, digest[:2], digest)
}

// WriteLocal uploads localPath's bytes into the store and returns its
// handle. When the store sits on the host filesystem, writes are guarded
// by a flock on the destination object so concurrent units importing
// identical content don't race on the same digest path; other afero
// filesystems (e.g. in-memory ones in tests) are written without it.
func (s *LocalStore) WriteLocal(_ context.Context, localPath string) (string, error) {
	f, err := s.fs.Open(localPath)
	if err != nil {
		return "", core.NewError(fmt.Errorf("opening %s: %w", localPath, err), core.ErrIO, nil)
	}
	defer f.Close()

	digest := contentDigest(readAllOrEmpty(f))
	dest := s.objectPath(digest)
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", core.NewError(err, core.ErrIO, nil)
	}

	if _, onHost := s.fs.(*afero.OsFs); onHost {
		lock := flock.New(dest + ".lock")
		if err := lock.Lock(); err != nil {
			return "", core.NewError(fmt.Errorf("locking %s: %w", dest, err), core.ErrIO, nil)
		}
		defer lock.Unlock()
	}

	if exists, _ := afero.Exists(s.fs, dest); !exists {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", core.NewError(err, core.ErrIO, nil)
		}
		out, err := s.fs.Create(dest)
		if err != nil {
			return "", core.NewError(fmt.Errorf("creating %s: %w", dest, err), core.ErrIO, nil)
		}
		defer out.Close()
		if _, err := io.Copy(out, f); err != nil {
			return "", core.NewError(fmt.Errorf("writing %s: %w", dest, err), core.ErrIO, nil)
		}
	}
	return value.FileHandlePrefix + digest, nil
}

// ReadLocal materializes handle's content at <tempDir>/<digest> under the
// store's temp root and returns that path; an existing copy there (or a
// cached path that still exists) is reused rather than written again.
func (s *LocalStore) ReadLocal(_ context.Context, handle string) (string, error) {
	digest, err := stripHandlePrefix(handle)
	if err != nil {
		return "", err
	}
	if s.pathCache != nil {
		if p, ok := s.pathCache.Get(digest); ok {
			if exists, _ := afero.Exists(s.fs, p); exists {
				return p, nil
			}
		}
	}
	src := s.objectPath(digest)
	if exists, _ := afero.Exists(s.fs, src); !exists {
		return "", core.NewError(fmt.Errorf("handle %s not found in store", handle), core.ErrIO, nil)
	}
	dst := filepath.Join(s.tempDir, digest)
	if exists, _ := afero.Exists(s.fs, dst); !exists {
		in, err := s.fs.Open(src)
		if err != nil {
			return "", core.NewError(fmt.Errorf("opening %s: %w", src, err), core.ErrIO, nil)
		}
		defer in.Close()
		if err := afero.WriteReader(s.fs, dst, in); err != nil {
			return "", core.NewError(fmt.Errorf("localizing %s: %w", handle, err), core.ErrIO, nil)
		}
	}
	if s.pathCache != nil {
		s.pathCache.Add(digest, dst)
	}
	return dst, nil
}

// ImportRemote is satisfied by the http/s3 importer in remote.go; embed
// that behavior by composing a RemoteImporter at construction time in
// higher layers (engine/filestore.Virtualizer), so LocalStore itself
// stays storage-only and testable without network access.
func (s *LocalStore) ImportRemote(_ context.Context, uri string) (string, error) {
	return "", core.NewError(fmt.Errorf("LocalStore cannot import remote URI %s directly; use Virtualizer", uri), core.ErrIO, nil)
}

// LocalTempDir allocates a fresh per-unit scratch directory under the
// store's temp root.
func (s *LocalStore) LocalTempDir() (string, error) {
	dir, err := afero.TempDir(s.fs, s.tempDir, "unit-")
	if err != nil {
		return "", core.NewError(fmt.Errorf("allocating local temp dir: %w", err), core.ErrIO, nil)
	}
	return dir, nil
}

func readAllOrEmpty(r io.Reader) []byte {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	return b
}

func stripHandlePrefix(handle string) (string, error) {
	prefix := value.FileHandlePrefix
	if len(handle) <= len(prefix) || handle[:len(prefix)] != prefix {
		return "", core.NewError(fmt.Errorf("not a toilfile: handle: %s", handle), core.ErrIO, nil)
	}
	return handle[len(prefix):], nil
}
