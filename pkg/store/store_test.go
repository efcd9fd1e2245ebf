package store

import (
	"testing"
	"time"

	"github.com/corelgott/dotless/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Interface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
}

// testStoreContract exercises the behavior every Store must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	builtAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Arrange
	site := &BuildRecord{
		Path:      "styles/site.less",
		ContentID: types.ComputeContentID([]byte("a { x: y; }")),
		Imports:   []string{"styles/base.less"},
		Output:    "styles/site.css",
		BuiltAt:   builtAt,
	}
	printSheet := &BuildRecord{
		Path:      "print.less",
		ContentID: types.ComputeContentID([]byte("p { x: y; }")),
		Output:    "print.css",
		BuiltAt:   builtAt,
	}

	// Act / Assert - missing record
	rec, err := s.LastBuild(site.Path)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.RecordBuild(site))
	require.NoError(t, s.RecordBuild(printSheet))

	rec, err = s.LastBuild(site.Path)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, site.ContentID, rec.ContentID)
	assert.Equal(t, site.Imports, rec.Imports)
	assert.Equal(t, site.Output, rec.Output)
	assert.True(t, builtAt.Equal(rec.BuiltAt))

	// Returned records are copies
	rec.Imports[0] = "changed"
	again, err := s.LastBuild(site.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"styles/base.less"}, again.Imports)

	// Upsert replaces
	updated := *site
	updated.ContentID = types.ComputeContentID([]byte("a { x: z; }"))
	updated.Imports = nil
	require.NoError(t, s.RecordBuild(&updated))

	rec, err = s.LastBuild(site.Path)
	require.NoError(t, err)
	assert.Equal(t, updated.ContentID, rec.ContentID)
	assert.Empty(t, rec.Imports)

	builds, err := s.Builds()
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "print.less", builds[0].Path)
	assert.Equal(t, "styles/site.less", builds[1].Path)

	require.NoError(t, s.Forget("print.less"))
	require.NoError(t, s.Forget("never-built.less"))
	builds, err = s.Builds()
	require.NoError(t, err)
	assert.Len(t, builds, 1)

	assert.Error(t, s.RecordBuild(&BuildRecord{}))
	assert.Error(t, s.RecordBuild(nil))
}
