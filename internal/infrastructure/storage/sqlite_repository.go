package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	period_label TEXT NOT NULL DEFAULT '',
	period_from  TEXT NOT NULL DEFAULT '',
	period_to    TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS count_cells (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	row_idx  INTEGER NOT NULL,
	url      TEXT NOT NULL,
	term_idx INTEGER NOT NULL,
	term     TEXT NOT NULL,
	value    INTEGER NOT NULL,
	PRIMARY KEY (run_id, row_idx, term_idx)
);
CREATE TABLE IF NOT EXISTS resolved_snapshots (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	row_idx      INTEGER NOT NULL,
	url          TEXT NOT NULL,
	snapshot_url TEXT NOT NULL,
	PRIMARY KEY (run_id, row_idx)
);
CREATE TABLE IF NOT EXISTS edges (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	seq      INTEGER NOT NULL,
	from_url TEXT NOT NULL,
	to_url   TEXT NOT NULL,
	state    TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

const (
	runKindCount = "count"
	runKindDiff  = "diff"

	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
	rowsPerInsert   = 500
)

// SQLiteRepository persists batch results into an SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.RunRepository = (*SQLiteRepository)(nil)

// OpenSQLite opens dsn with the pure-Go driver and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 10000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return NewSQLiteRepository(db), nil
}

// NewSQLiteRepository wires an already opened sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveCountRun stores the count matrix and resolved snapshots of one period in a single transaction.
func (r *SQLiteRepository) SaveCountRun(ctx context.Context, period domain.Period, matrix *domain.CountMatrix, resolved *domain.ResolvedSnapshots) (string, error) {
	runID := uuid.NewString()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.insertRun(ctx, tx, runID, runKindCount, period); err != nil {
			return err
		}

		var cells [][]interface{}
		for i, u := range matrix.URLs {
			for j, t := range matrix.Terms {
				cells = append(cells, []interface{}{runID, i, u, j, t.Label(), matrix.Cells[i][j]})
			}
		}
		if err := insertChunked(ctx, tx, "count_cells", []string{"run_id", "row_idx", "url", "term_idx", "term", "value"}, cells); err != nil {
			return fmt.Errorf("insert cells: %w", err)
		}

		if resolved == nil {
			return nil
		}
		snaps := make([][]interface{}, 0, len(resolved.URLs))
		for i, u := range resolved.URLs {
			snaps = append(snaps, []interface{}{runID, i, u, resolved.Get(u)})
		}
		if err := insertChunked(ctx, tx, "resolved_snapshots", []string{"run_id", "row_idx", "url", "snapshot_url"}, snaps); err != nil {
			return fmt.Errorf("insert resolved: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return runID, nil
}

// LoadResolved returns the resolved snapshots of the latest count run for periodLabel.
func (r *SQLiteRepository) LoadResolved(ctx context.Context, periodLabel string) (*domain.ResolvedSnapshots, error) {
	latest := sq.Select("id").From("runs").
		Where(sq.Eq{"kind": runKindCount, "period_label": periodLabel}).
		OrderBy("created_at DESC").
		Limit(1)

	query, args, err := latest.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest run query: %w", err)
	}

	var runID string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no count run stored for period %q", periodLabel)
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	query, args, err = sq.Select("url", "snapshot_url").From("resolved_snapshots").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("row_idx").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build resolved query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolved: %w", err)
	}

	result := &domain.ResolvedSnapshots{Snapshots: map[string]string{}}
	for rows.Next() {
		var u, snap string
		if err := rows.Scan(&u, &snap); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan resolved: %w", err)
		}
		result.URLs = append(result.URLs, u)
		result.Snapshots[u] = snap
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveEdges stores one diff run's edge list.
func (r *SQLiteRepository) SaveEdges(ctx context.Context, edges []domain.Edge) (string, error) {
	runID := uuid.NewString()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.insertRun(ctx, tx, runID, runKindDiff, domain.Period{}); err != nil {
			return err
		}
		rows := make([][]interface{}, 0, len(edges))
		for i, e := range edges {
			rows = append(rows, []interface{}{runID, i, e.From, e.To, string(e.State)})
		}
		if err := insertChunked(ctx, tx, "edges", []string{"run_id", "seq", "from_url", "to_url", "state"}, rows); err != nil {
			return fmt.Errorf("insert edges: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return runID, nil
}

func (r *SQLiteRepository) insertRun(ctx context.Context, tx *sql.Tx, runID, kind string, period domain.Period) error {
	ins := sq.Insert("runs").
		Columns("id", "kind", "period_label", "period_from", "period_to", "created_at").
		Values(runID, kind, period.Label, formatTime(period.Range.From), formatTime(period.Range.To), r.now().UTC().Format(createdAtLayout))
	if err := execBuilder(ctx, tx, ins); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertChunked splits rows so a statement stays below SQLite's bound-parameter limit.
func insertChunked(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	for start := 0; start < len(rows); start += rowsPerInsert {
		end := start + rowsPerInsert
		if end > len(rows) {
			end = len(rows)
		}
		ins := sq.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			ins = ins.Values(row...)
		}
		if err := execBuilder(ctx, tx, ins); err != nil {
			return err
		}
	}
	return nil
}

func execBuilder(ctx context.Context, tx *sql.Tx, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
