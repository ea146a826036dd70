// Package history persists completed assist sessions to a local SQLite
// database and prunes old ones on a schedule.
//
// The store keeps one row per session. It is meant for a single process:
// the connection pool is pinned to one connection and the database uses a
// write-ahead log, so concurrent readers inside the process are fine but
// the file must not be shared between processes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/petal-labs/scribe/assist"
	"github.com/petal-labs/scribe/core"
)

// Session outcome recorded in the Status column.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// busyTimeout is how long a statement waits for the database lock before
// failing.
const busyTimeout = 5 * time.Second

// defaultListLimit bounds List when the caller passes no limit.
const defaultListLimit = 50

// Record is one assist session as stored.
type Record struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Model          string
	Status         string
	PromptChars    int
	PromptTokens   int
	InsertedChars  int
	Events         int
	DecodeFailures int
	FinishReason   string
	Usage          core.Usage
	Error          string
}

// FromResult builds a Record from a finished session. res must be non-nil;
// sessions that fail before framing produce no result and nothing to record.
func FromResult(res *assist.Result, runErr error) Record {
	rec := Record{
		ID:             res.SessionID,
		StartedAt:      res.StartedAt,
		Duration:       res.Duration,
		Model:          string(res.Model),
		Status:         StatusOK,
		PromptChars:    res.PromptChars,
		PromptTokens:   res.PromptTokens,
		InsertedChars:  res.InsertedChars,
		Events:         res.Events,
		DecodeFailures: res.DecodeFailures,
		FinishReason:   res.FinishReason,
		Usage:          res.Usage,
	}
	if runErr != nil {
		rec.Status = StatusError
		rec.Error = runErr.Error()
	}
	return rec
}

// Store is a SQLite-backed session log.
type Store struct {
	db        *sql.DB
	closeOnce sync.Once

	appendStmt *sql.Stmt
	listStmt   *sql.Stmt
	pruneStmt  *sql.Stmt
}

// Open opens or creates the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: initializing schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: preparing statements: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assists (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		model TEXT NOT NULL,
		status TEXT NOT NULL,
		prompt_chars INTEGER NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		inserted_chars INTEGER NOT NULL,
		events INTEGER NOT NULL,
		decode_failures INTEGER NOT NULL,
		finish_reason TEXT NOT NULL DEFAULT '',
		usage_prompt_tokens INTEGER NOT NULL DEFAULT 0,
		usage_completion_tokens INTEGER NOT NULL DEFAULT 0,
		usage_total_tokens INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_assists_started_at ON assists(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO assists (
			id, started_at, duration_ms, model, status,
			prompt_chars, prompt_tokens, inserted_chars, events, decode_failures,
			finish_reason, usage_prompt_tokens, usage_completion_tokens,
			usage_total_tokens, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, started_at, duration_ms, model, status,
			prompt_chars, prompt_tokens, inserted_chars, events, decode_failures,
			finish_reason, usage_prompt_tokens, usage_completion_tokens,
			usage_total_tokens, error
		FROM assists
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("list statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM assists WHERE started_at < ?
	`)
	if err != nil {
		return fmt.Errorf("prune statement: %w", err)
	}

	return nil
}

// Append stores one session record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("history: record id is empty")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	if rec.Status == "" {
		rec.Status = StatusOK
	}

	_, err := s.appendStmt.ExecContext(ctx,
		rec.ID,
		rec.StartedAt.UnixMilli(),
		rec.Duration.Milliseconds(),
		rec.Model,
		rec.Status,
		rec.PromptChars,
		rec.PromptTokens,
		rec.InsertedChars,
		rec.Events,
		rec.DecodeFailures,
		rec.FinishReason,
		rec.Usage.PromptTokens,
		rec.Usage.CompletionTokens,
		rec.Usage.TotalTokens,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("history: appending record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first. A limit of zero or
// less returns up to defaultListLimit records.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.listStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			startedAt  int64
			durationMS int64
		)
		err := rows.Scan(
			&rec.ID,
			&startedAt,
			&durationMS,
			&rec.Model,
			&rec.Status,
			&rec.PromptChars,
			&rec.PromptTokens,
			&rec.InsertedChars,
			&rec.Events,
			&rec.DecodeFailures,
			&rec.FinishReason,
			&rec.Usage.PromptTokens,
			&rec.Usage.CompletionTokens,
			&rec.Usage.TotalTokens,
			&rec.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scanning record: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating records: %w", err)
	}
	return records, nil
}

// Prune deletes every record started before olderThan and reports how many
// rows went away.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("history: pruning records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: counting pruned rows: %w", err)
	}
	return int(deleted), nil
}

// Close releases the database. Safe to call more than once.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.appendStmt != nil {
			s.appendStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})
	return closeErr
}
