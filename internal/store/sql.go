package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"newsgraph/internal/core"
)

const (
	latestTable  = "run_states"
	historyTable = "run_state_history"
)

// SQLStore keeps the latest state of each run plus an append-only history of
// every checkpoint. SQLite and Postgres differ only in placeholders and the
// history key column.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewSQLite opens (or creates) newsgraph.db in dir.
func NewSQLite(dir string) (*SQLStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "newsgraph.db")+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	return initialize(db, sq.StatementBuilder.PlaceholderFormat(sq.Question), "INTEGER PRIMARY KEY AUTOINCREMENT")
}

// NewPostgres connects to the database at dsn.
func NewPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return initialize(db, sq.StatementBuilder.PlaceholderFormat(sq.Dollar), "BIGSERIAL PRIMARY KEY")
}

func initialize(db *sql.DB, builder sq.StatementBuilderType, historyKey string) (*SQLStore, error) {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS ` + latestTable + ` (
			id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
			seq ` + historyKey + `,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_state_history_run ON ` + historyTable + ` (run_id)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &SQLStore{db: db, builder: builder}, nil
}

// Save upserts the latest row and appends a history row in one transaction.
func (s *SQLStore) Save(ctx context.Context, state *core.RunState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}
	now := time.Now().UTC()

	upsert, upsertArgs, err := s.builder.
		Insert(latestTable).
		Columns("id", "stage", "state", "updated_at").
		Values(state.ID, string(state.Stage), string(data), now).
		Suffix("ON CONFLICT (id) DO UPDATE SET stage = excluded.stage, state = excluded.state, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	history, historyArgs, err := s.builder.
		Insert(historyTable).
		Columns("run_id", "stage", "state", "created_at").
		Values(state.ID, string(state.Stage), string(data), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsert, upsertArgs...); err != nil {
		return fmt.Errorf("upsert run state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, history, historyArgs...); err != nil {
		return fmt.Errorf("append run history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Load returns the latest checkpoint of a run.
func (s *SQLStore) Load(ctx context.Context, runID string) (*core.RunState, error) {
	query, args, err := s.builder.
		Select("state").
		From(latestTable).
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("load run state: %w", err)
	}
	return decodeState([]byte(data))
}

// History lists the stages of every checkpoint written for a run, oldest
// first.
func (s *SQLStore) History(ctx context.Context, runID string) ([]core.Stage, error) {
	query, args, err := s.builder.
		Select("stage").
		From(historyTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stages []core.Stage
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, core.Stage(stage))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return stages, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
