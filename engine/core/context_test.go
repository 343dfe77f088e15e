package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_RunIDContext(t *testing.T) {
	t.Run("Should set and get run ID from context", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRunID(ctx, "run-1")
		id, err := GetRunID(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "run-1", id)
	})
	t.Run("Should error when run ID not present", func(t *testing.T) {
		_, err := GetRunID(context.Background())
		assert.ErrorContains(t, err, "run ID not found")
	})
}
