package store

import (
	"time"

	"github.com/corelgott/dotless/pkg/types"
)

// BuildRecord describes the last successful compilation of one source file.
type BuildRecord struct {
	// Path is the source file, slash separated and relative to the build root.
	Path string `json:"path"`
	// ContentID covers the source and every file it imported.
	ContentID types.ContentID `json:"content_id"`
	// Imports lists the files the source imported, relative to the build root.
	Imports []string `json:"imports,omitempty"`
	// Output is the written style sheet, relative to the build root.
	Output  string    `json:"output"`
	BuiltAt time.Time `json:"built_at"`
}

// Store persists build records between runs.
// This interface abstracts the underlying storage implementation.
type Store interface {
	// LastBuild returns the record for path, or nil when there is none.
	LastBuild(path string) (*BuildRecord, error)

	// RecordBuild stores rec, replacing any record for the same path.
	RecordBuild(rec *BuildRecord) error

	// Builds returns every record ordered by path.
	Builds() ([]*BuildRecord, error)

	// Forget removes the record for path. Missing paths are not an error.
	Forget(path string) error

	// Close releases the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store.
	Path string
}

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"
