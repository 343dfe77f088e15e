// Package checkpoint implements a restart journal: a Postgres table
// recording which units a run has durably submitted and which have
// completed, so the Temporal adapter's own restart bookkeeping is
// inspectable and testable independent of a live Temporal server. This is
// additive infrastructure — the restart primitive itself is still
// consumed from the job engine, not reimplemented here.
package checkpoint

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wdlrun/wdlrun/engine/core"
)

const tableName = "wdl_unit_checkpoints"

// Querier is satisfied by both *pgxpool.Pool and pgxmock's mock
// connection, so Store can be exercised in tests without a live
// database.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgconnCommandTag aliases pgconn.CommandTag, the Exec result type of both
// *pgxpool.Pool and pgxmock's connection.
type pgconnCommandTag = pgconn.CommandTag

// Store records and reads back per-unit submission/completion timestamps
// for one run.
type Store struct {
	q Querier
}

// NewStore builds a Store over an already-connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{q: poolAdapter{pool}}
}

// NewStoreWithQuerier builds a Store over any Querier, primarily for
// tests driven by pgxmock.
func NewStoreWithQuerier(q Querier) *Store {
	return &Store{q: q}
}

type poolAdapter struct{ pool *pgxpool.Pool }

func (p poolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p poolAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// RecordSubmitted inserts a (run_id, unit_id) row with submitted_at set
// to now(). If the row already exists only node_id is updated, so the
// earlier submitted_at and completed_at are kept (re-submission after a
// worker crash must not erase a prior completion).
func (s *Store) RecordSubmitted(ctx context.Context, runID, unitID, nodeID string) error {
	query, args, err := sq.
		Insert(tableName).
		Columns("run_id", "unit_id", "node_id", "submitted_at").
		Values(runID, unitID, nodeID, sq.Expr("now()")).
		Suffix("ON CONFLICT (run_id, unit_id) DO UPDATE SET node_id = EXCLUDED.node_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return core.NewError(fmt.Errorf("building checkpoint insert: %w", err), core.ErrIO, nil)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return core.NewError(fmt.Errorf("recording unit %s submitted: %w", unitID, err), core.ErrIO, nil)
	}
	return nil
}

// RecordCompleted sets completed_at = now() for an already-submitted row.
func (s *Store) RecordCompleted(ctx context.Context, runID, unitID string) error {
	query, args, err := sq.
		Update(tableName).
		Set("completed_at", sq.Expr("now()")).
		Where(sq.Eq{"run_id": runID, "unit_id": unitID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return core.NewError(fmt.Errorf("building checkpoint update: %w", err), core.ErrIO, nil)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return core.NewError(fmt.Errorf("recording unit %s completed: %w", unitID, err), core.ErrIO, nil)
	}
	return nil
}

// Incomplete is one row for a unit that was submitted but never
// completed, the set Restart must re-invoke.
type Incomplete struct {
	UnitID string
	NodeID string
}

// Incomplete lists every unit of runID with a submitted_at but no
// completed_at — the ones Restart must re-invoke.
func (s *Store) Incomplete(ctx context.Context, runID string) ([]Incomplete, error) {
	query, args, err := sq.
		Select("unit_id", "node_id").
		From(tableName).
		Where(sq.Eq{"run_id": runID}).
		Where("completed_at IS NULL").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, core.NewError(fmt.Errorf("building checkpoint query: %w", err), core.ErrIO, nil)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("querying incomplete units for run %s: %w", runID, err), core.ErrIO, nil)
	}
	defer rows.Close()

	var out []Incomplete
	for rows.Next() {
		var rec Incomplete
		if err := rows.Scan(&rec.UnitID, &rec.NodeID); err != nil {
			return nil, core.NewError(fmt.Errorf("scanning checkpoint row: %w", err), core.ErrIO, nil)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("iterating checkpoint rows: %w", err), core.ErrIO, nil)
	}
	return out, nil
}
