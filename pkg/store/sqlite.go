//go:build !wasm

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corelgott/dotless/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// LastBuild returns the record for path, or nil when there is none.
func (s *SQLiteStore) LastBuild(path string) (*BuildRecord, error) {
	row := s.db.QueryRow(`
		SELECT path, content_id, imports_json, output, built_at
		FROM builds
		WHERE path = ?
	`, path)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordBuild stores rec, replacing any record for the same path.
func (s *SQLiteStore) RecordBuild(rec *BuildRecord) error {
	if rec == nil || rec.Path == "" {
		return fmt.Errorf("build record without path")
	}

	imports := rec.Imports
	if imports == nil {
		imports = []string{}
	}
	importsJSON, err := json.Marshal(imports)
	if err != nil {
		return fmt.Errorf("marshaling imports: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO builds (path, content_id, imports_json, output, built_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_id = excluded.content_id,
			imports_json = excluded.imports_json,
			output = excluded.output,
			built_at = excluded.built_at
	`,
		rec.Path,
		rec.ContentID,
		string(importsJSON),
		rec.Output,
		rec.BuiltAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording build: %w", err)
	}

	return nil
}

// Builds returns every record ordered by path.
func (s *SQLiteStore) Builds() ([]*BuildRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, content_id, imports_json, output, built_at
		FROM builds
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var out []*BuildRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating builds: %w", err)
	}

	return out, nil
}

// Forget removes the record for path.
func (s *SQLiteStore) Forget(path string) error {
	if _, err := s.db.Exec("DELETE FROM builds WHERE path = ?", path); err != nil {
		return fmt.Errorf("deleting build: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*BuildRecord, error) {
	var (
		rec         BuildRecord
		id          types.ContentID
		importsJSON string
		builtAt     int64
	)
	if err := row.Scan(&rec.Path, &id, &importsJSON, &rec.Output, &builtAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning build: %w", err)
	}
	rec.ContentID = id
	if err := json.Unmarshal([]byte(importsJSON), &rec.Imports); err != nil {
		return nil, fmt.Errorf("unmarshaling imports: %w", err)
	}
	if len(rec.Imports) == 0 {
		rec.Imports = nil
	}
	rec.BuiltAt = time.Unix(0, builtAt).UTC()
	return &rec, nil
}
