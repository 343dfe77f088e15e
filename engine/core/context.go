package core

import (
	"context"
	"fmt"
)

// Context key for the current workflow run identifier.
type RunIDKey struct{}

// WithRunID attaches a run ID to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey{}, runID)
}

// GetRunID extracts the run ID from ctx.
func GetRunID(ctx context.Context) (string, error) {
	runID, ok := ctx.Value(RunIDKey{}).(string)
	if !ok || runID == "" {
		return "", fmt.Errorf("run ID not found in context")
	}
	return runID, nil
}
