package reporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

// ArchiveSink appends every hit to a local SQLite database.
type ArchiveSink struct {
	db *sql.DB
}

// NewArchive opens (or creates) the archive at path, creating missing
// parent directories.
func NewArchive(path string) (*ArchiveSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &ArchiveSink{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS hits(
	  id              TEXT    PRIMARY KEY,
	  ts_utc          INTEGER NOT NULL,
	  client_id       TEXT    NOT NULL,
	  type            TEXT    NOT NULL CHECK (type IN ('event','exception','pageview')),
	  page            TEXT,
	  category        TEXT,
	  action          TEXT,
	  label           TEXT,
	  value           REAL,
	  non_interaction INTEGER NOT NULL DEFAULT 0,
	  description     TEXT,
	  fatal           INTEGER NOT NULL DEFAULT 0,
	  dimensions_json TEXT    NOT NULL CHECK (json_valid(dimensions_json))
	);
	CREATE INDEX IF NOT EXISTS idx_hits_ts     ON hits(ts_utc);
	CREATE INDEX IF NOT EXISTS idx_hits_client ON hits(client_id);
	CREATE INDEX IF NOT EXISTS idx_hits_type   ON hits(type);
	`)
	if err != nil {
		return fmt.Errorf("create archive tables: %w", err)
	}
	return nil
}

func (a *ArchiveSink) Name() string { return "archive" }

func (a *ArchiveSink) Send(ctx context.Context, h *Hit) error {
	dims := h.Dimensions
	if dims == nil {
		dims = map[string]string{}
	}
	dimsJSON, err := json.Marshal(dims)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO hits(id, ts_utc, client_id, type, page, category, action, label, value, non_interaction, description, fatal, dimensions_json)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,json(?))`,
		h.ID, h.Timestamp.UnixMilli(), h.ClientID, string(h.Type),
		nullString(h.Page), nullString(h.Category), nullString(h.Action), nullString(h.Label),
		h.Value, h.NonInteraction, nullString(h.Description), h.Fatal, string(dimsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}

// Count returns the number of archived hits of type typ ("" for all).
func (a *ArchiveSink) Count(ctx context.Context, typ HitType) (int, error) {
	var n int
	var err error
	if typ == "" {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hits`).Scan(&n)
	} else {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hits WHERE type = ?`, string(typ)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count hits: %w", err)
	}
	return n, nil
}

func (a *ArchiveSink) Close() error {
	return a.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
