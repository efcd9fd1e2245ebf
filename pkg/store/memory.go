package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store using a map.
type MemoryStore struct {
	mu     sync.RWMutex
	builds map[string]BuildRecord // keyed by path
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		builds: make(map[string]BuildRecord),
	}
}

// LastBuild returns the record for path, or nil when there is none.
func (m *MemoryStore) LastBuild(path string) (*BuildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.builds[path]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// RecordBuild stores rec, replacing any record for the same path.
func (m *MemoryStore) RecordBuild(rec *BuildRecord) error {
	if rec == nil || rec.Path == "" {
		return fmt.Errorf("build record without path")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.builds[rec.Path] = *cloneRecord(*rec)
	return nil
}

// Builds returns every record ordered by path.
func (m *MemoryStore) Builds() ([]*BuildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*BuildRecord, 0, len(m.builds))
	for _, rec := range m.builds {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Forget removes the record for path.
func (m *MemoryStore) Forget(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.builds, path)
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneRecord(rec BuildRecord) *BuildRecord {
	if rec.Imports != nil {
		rec.Imports = append([]string(nil), rec.Imports...)
	}
	return &rec
}
