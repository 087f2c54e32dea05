package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/modwin/modwin/pkg/knowledge"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql     *sql.DB
	session string
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS app_definitions (
  identifier    TEXT PRIMARY KEY,
  description   TEXT,
  safety_rating INTEGER,
  category      TEXT
);
CREATE TABLE IF NOT EXISTS removal_history (
  id          INTEGER PRIMARY KEY,
  identifier  TEXT NOT NULL,
  removed_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
  type        TEXT,
  session_id  TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_session ON removal_history(session_id);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, session: uuid.NewString()}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Session is the id stamped on every removal logged through this handle.
func (d *DB) Session() string {
	return d.session
}

// ReloadDefinitions replaces the whole reference table with entries.
func (d *DB) ReloadDefinitions(ctx context.Context, entries []knowledge.Entry) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM app_definitions`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO app_definitions(identifier, description, safety_rating, category) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.Identifier, nullIfEmpty(e.Description), int(e.SafetyRating), nullIfEmpty(e.Category)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) Definition(ctx context.Context, key string) (knowledge.Entry, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT identifier, description, safety_rating, category FROM app_definitions WHERE identifier = ?`, key)
	return scanEntry(row)
}

// ContainingDefinition finds a stored identifier that occurs inside
// identifier. The longest such key wins, ties broken alphabetically.
func (d *DB) ContainingDefinition(ctx context.Context, identifier string) (knowledge.Entry, bool, error) {
	row := d.sql.QueryRowContext(ctx, `
		SELECT identifier, description, safety_rating, category
		FROM app_definitions
		WHERE identifier <> '' AND INSTR(?, identifier) > 0
		ORDER BY LENGTH(identifier) DESC, identifier
		LIMIT 1`, identifier)
	return scanEntry(row)
}

func (d *DB) DefinitionCount(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM app_definitions`).Scan(&n)
	return n, err
}

func scanEntry(row *sql.Row) (knowledge.Entry, bool, error) {
	var (
		e         knowledge.Entry
		desc, cat sql.NullString
		rating    sql.NullInt64
	)
	if err := row.Scan(&e.Identifier, &desc, &rating, &cat); err != nil {
		if err == sql.ErrNoRows {
			return knowledge.Entry{}, false, nil
		}
		return knowledge.Entry{}, false, err
	}
	e.Description = desc.String
	e.Category = cat.String
	e.SafetyRating = knowledge.Rating(rating.Int64)
	return e, true, nil
}

// LogRemoval appends one row to the removal history.
func (d *DB) LogRemoval(ctx context.Context, identifier, kind string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO removal_history(identifier, removed_at, type, session_id) VALUES(?, CURRENT_TIMESTAMP, ?, ?)`, identifier, nullIfEmpty(kind), d.session)
	return err
}

// ListRemovals returns the most recent removals, newest first.
func (d *DB) ListRemovals(ctx context.Context, limit int) ([]Removal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id, identifier, removed_at, type, session_id FROM removal_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	removals := []Removal{}
	for rows.Next() {
		var (
			r               Removal
			removedAt       sql.NullString
			kind, sessionID sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Identifier, &removedAt, &kind, &sessionID); err != nil {
			return nil, err
		}
		r.RemovedAt = parseTimestamp(removedAt.String)
		r.Type = kind.String
		r.SessionID = sessionID.String
		removals = append(removals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return removals, nil
}

// RemovalStats counts logged removals per component type.
func (d *DB) RemovalStats(ctx context.Context) ([]TypeStats, error) {
	query := `
		SELECT
			COALESCE(type, ''),
			COUNT(*),
			COUNT(DISTINCT session_id)
		FROM
			removal_history
		GROUP BY
			COALESCE(type, '')
		ORDER BY
			1;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TypeStats
	for rows.Next() {
		var s TypeStats
		if err := rows.Scan(&s.Type, &s.Removals, &s.Sessions); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP format and RFC3339,
// which is what the driver hands back for DATETIME columns.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
