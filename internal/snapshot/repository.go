package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored day of balance views.
type Snapshot struct {
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context) (*Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	List(ctx context.Context, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectSnapshot = `SELECT snapshot_date, data, created_at FROM balance_snapshots`

func (r *PgRepository) Save(ctx context.Context, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO balance_snapshots (snapshot_date, data)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (snapshot_date)
		 DO UPDATE SET data = $2::jsonb, created_at = NOW()`,
		date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, selectSnapshot+` ORDER BY snapshot_date DESC LIMIT 1`)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, selectSnapshot+` WHERE snapshot_date = $1`, date)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx, selectSnapshot+` ORDER BY snapshot_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	snapshots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Snapshot, error) {
		var s Snapshot
		err := row.Scan(&s.SnapshotDate, &s.Data, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning snapshots: %w", err)
	}
	return snapshots, nil
}

// scanSnapshot maps pgx.ErrNoRows to ErrNotFound.
func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	if err := row.Scan(&s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
