package filestore

import (
	"context"
	"strings"

	"github.com/wdlrun/wdlrun/engine/value"
)

// Virtualizer implements the File Virtualizer's two directions (spec
// §4.2) on top of a Store and a RemoteImporter.
type Virtualizer struct {
	store    Store
	importer *RemoteImporter
}

// NewVirtualizer builds a Virtualizer.
func NewVirtualizer(store Store, importer *RemoteImporter) *Virtualizer {
	return &Virtualizer{store: store, importer: importer}
}

// Virtualize uploads f's content into the store and returns a File
// carrying the resulting toilfile: handle, or returns f unchanged if it
// is already virtualized.
func (v *Virtualizer) Virtualize(ctx context.Context, f value.File) (value.File, error) {
	if f.IsVirtualized() {
		return f, nil
	}
	handle, err := v.store.WriteLocal(ctx, f.LocalPath)
	if err != nil {
		return value.File{}, err
	}
	return value.File{Handle: handle}, nil
}

// Devirtualize resolves f to a local path the WDL evaluator can read:
// a virtualized handle is read back from the store; an http(s)/s3 URI
// is imported then localized; anything else is assumed already local.
func (v *Virtualizer) Devirtualize(ctx context.Context, f value.File) (string, error) {
	switch {
	case f.Handle != "":
		return v.store.ReadLocal(ctx, f.Handle)
	case isRemoteURI(f.RemoteURI):
		return v.importer.Import(ctx, f.RemoteURI)
	default:
		return f.LocalPath, nil
	}
}

func isRemoteURI(uri string) bool {
	return strings.HasPrefix(uri, "http://") ||
		strings.HasPrefix(uri, "https://") ||
		strings.HasPrefix(uri, "s3://")
}
