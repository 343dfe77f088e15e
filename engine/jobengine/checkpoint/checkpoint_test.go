package checkpoint

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordSubmittedAndCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("Should upsert a submitted row and then mark it completed", func(t *testing.T) {
		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(ctx)

		mock.ExpectExec("INSERT INTO wdl_unit_checkpoints").
			WithArgs("run-1", "unit-1", "w.x").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("UPDATE wdl_unit_checkpoints").
			WithArgs("run-1", "unit-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		store := NewStoreWithQuerier(mock)
		require.NoError(t, store.RecordSubmitted(ctx, "run-1", "unit-1", "w.x"))
		require.NoError(t, store.RecordCompleted(ctx, "run-1", "unit-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should list units submitted but not yet completed", func(t *testing.T) {
		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(ctx)

		rows := pgxmock.NewRows([]string{"unit_id", "node_id"}).
			AddRow("unit-2", "w.y")
		mock.ExpectQuery("SELECT unit_id, node_id FROM wdl_unit_checkpoints").
			WithArgs("run-1").
			WillReturnRows(rows)

		store := NewStoreWithQuerier(mock)
		incomplete, err := store.Incomplete(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, incomplete, 1)
		assert.Equal(t, "unit-2", incomplete[0].UnitID)
		assert.Equal(t, "w.y", incomplete[0].NodeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
