package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	testStoreContract(t, s)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.RecordBuild(&BuildRecord{Path: fmt.Sprintf("f%02d.less", i)}))
		}(i)
	}
	wg.Wait()

	builds, err := s.Builds()
	require.NoError(t, err)
	assert.Len(t, builds, 20)
	assert.Equal(t, "f00.less", builds[0].Path)
}
