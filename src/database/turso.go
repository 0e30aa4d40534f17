package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	perrors "parlor/src/errors"
)

// Turn is one journaled chat message
type Turn struct {
	ID        int64
	SessionID string
	Speaker   string
	Persona   string
	Text      string
	CreatedAt time.Time
}

// Filter narrows Recent. Zero values mean no restriction.
type Filter struct {
	SessionID string
	Persona   string
	Limit     int
}

// Journal is an append-only log of chat messages backed by a local libSQL file.
// It is write-only from the point of view of a running session.
type Journal struct {
	db *sql.DB
	tx *TxManager
}

// NewJournal opens (or creates) the journal database at dbPath
func NewJournal(dbPath string) (*Journal, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("libsql", "file:"+dbPath)
	if err != nil {
		return nil, perrors.NewDatabaseError("open", dbPath, fmt.Errorf("%w: %v", perrors.ErrDatabaseConnection, err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, perrors.NewDatabaseError("ping", dbPath, fmt.Errorf("%w: %v", perrors.ErrDatabaseConnection, err))
	}

	// single writer
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, tx: NewTxManager(db)}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		speaker TEXT NOT NULL,
		persona TEXT,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := j.db.Exec(createTableSQL); err != nil {
		return perrors.NewDatabaseError("create", "turns", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id)`
	if _, err := j.db.Exec(indexSQL); err != nil {
		return perrors.NewDatabaseError("create index", "turns", err)
	}

	return nil
}

// Record appends every message of one turn atomically
func (j *Journal) Record(ctx context.Context, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}

	insertSQL := `
	INSERT INTO turns (session_id, speaker, persona, text, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	return j.tx.WithRetry(ctx, DefaultTxOptions(), func(tx *sql.Tx) error {
		for _, t := range turns {
			at := t.CreatedAt
			if at.IsZero() {
				at = time.Now()
			}
			if _, err := tx.ExecContext(ctx, insertSQL, t.SessionID, t.Speaker, t.Persona, t.Text, at.UnixMilli()); err != nil {
				return perrors.NewDatabaseError("insert", "turns", fmt.Errorf("%w: %v", perrors.ErrDatabaseQuery, err))
			}
		}
		return nil
	})
}

// Recent returns the newest matching turns in chronological order
func (j *Journal) Recent(ctx context.Context, f Filter) ([]Turn, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, session_id, speaker, persona, text, created_at FROM (
		SELECT id, session_id, speaker, persona, text, created_at
		FROM turns
		WHERE (? = '' OR session_id = ?) AND (? = '' OR persona = ?)
		ORDER BY id DESC
		LIMIT ?
	) ORDER BY id ASC
	`

	rows, err := j.db.QueryContext(ctx, query, f.SessionID, f.SessionID, f.Persona, f.Persona, limit)
	if err != nil {
		return nil, perrors.NewDatabaseError("query", "turns", fmt.Errorf("%w: %v", perrors.ErrDatabaseQuery, err))
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var persona sql.NullString
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Speaker, &persona, &t.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		t.Persona = persona.String
		t.CreatedAt = time.UnixMilli(createdAt)
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// Sessions lists distinct session IDs, most recently active first
func (j *Journal) Sessions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
	SELECT session_id FROM turns
	GROUP BY session_id
	ORDER BY MAX(id) DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, perrors.NewDatabaseError("query", "turns", fmt.Errorf("%w: %v", perrors.ErrDatabaseQuery, err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}
