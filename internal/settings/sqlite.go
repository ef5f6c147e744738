package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on an embedded sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and if necessary creates) the settings database at
// path. Use ":memory:" for an ephemeral store in tests.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sync_records (
		project_location TEXT PRIMARY KEY,
		root_location    TEXT NOT NULL,
		managed_natures  TEXT NOT NULL,
		managed_links    TEXT NOT NULL,
		managed_commands TEXT NOT NULL,
		synced_at        TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate settings db: %w", err)
	}
	return nil
}

// Read returns the record for the project location, or nil if none exists.
func (s *SQLiteStore) Read(ctx context.Context, projectLocation string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT project_location, root_location, managed_natures, managed_links, managed_commands, synced_at
		 FROM sync_records WHERE project_location = ?`, projectLocation)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Write inserts or replaces a record.
func (s *SQLiteStore) Write(ctx context.Context, rec *Record) error {
	natures, err := json.Marshal(stringsOrEmpty(rec.ManagedNatures))
	if err != nil {
		return fmt.Errorf("marshal managed natures: %w", err)
	}
	links, err := json.Marshal(stringsOrEmpty(rec.ManagedLinks))
	if err != nil {
		return fmt.Errorf("marshal managed links: %w", err)
	}
	commands, err := json.Marshal(stringsOrEmpty(rec.ManagedCommands))
	if err != nil {
		return fmt.Errorf("marshal managed commands: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_records (project_location, root_location, managed_natures, managed_links, managed_commands, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_location) DO UPDATE SET
			root_location = excluded.root_location,
			managed_natures = excluded.managed_natures,
			managed_links = excluded.managed_links,
			managed_commands = excluded.managed_commands,
			synced_at = excluded.synced_at`,
		rec.ProjectLocation, rec.RootLocation, string(natures), string(links), string(commands),
		rec.SyncedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write sync record: %w", err)
	}
	return nil
}

// Delete removes the record for the project location.
func (s *SQLiteStore) Delete(ctx context.Context, projectLocation string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_records WHERE project_location = ?`, projectLocation)
	if err != nil {
		return fmt.Errorf("delete sync record: %w", err)
	}
	return nil
}

// All returns every persisted record.
func (s *SQLiteStore) All(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_location, root_location, managed_natures, managed_links, managed_commands, synced_at
		 FROM sync_records ORDER BY project_location`)
	if err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var natures, links, commands, syncedAt string
	if err := row.Scan(&rec.ProjectLocation, &rec.RootLocation, &natures, &links, &commands, &syncedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(natures), &rec.ManagedNatures); err != nil {
		return nil, fmt.Errorf("unmarshal managed natures: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &rec.ManagedLinks); err != nil {
		return nil, fmt.Errorf("unmarshal managed links: %w", err)
	}
	if err := json.Unmarshal([]byte(commands), &rec.ManagedCommands); err != nil {
		return nil, fmt.Errorf("unmarshal managed commands: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, syncedAt)
	if err != nil {
		return nil, fmt.Errorf("parse synced_at: %w", err)
	}
	rec.SyncedAt = t
	return &rec, nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
