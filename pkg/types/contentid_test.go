package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeContentID_SinglePartMatchesGit(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{
			name:    "empty content",
			content: []byte(""),
			// Git: echo -n "" | git hash-object --stdin
			expected: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		},
		{
			name:    "hello world",
			content: []byte("hello world"),
			// Git computes: SHA-1("blob 11\0hello world")
			expected: "95d09f2b10159347eece71399a7e2e907ea3df4f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ComputeContentID(tt.content)
			assert.Equal(t, tt.expected, id.Hex())
		})
	}
}

func TestComputeContentID_PartsAreFramed(t *testing.T) {
	// Moving a byte between parts must change the ID.
	a := ComputeContentID([]byte("ab"), []byte("c"))
	b := ComputeContentID([]byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)

	assert.Equal(t, a, ComputeContentID([]byte("ab"), []byte("c")))
	assert.False(t, a.IsZero())
	assert.True(t, ContentID{}.IsZero())
}

func TestParseContentID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{name: "valid hex", input: "123456789abcdef0123456789abcdef012345678"},
		{name: "too short", input: "123456789abcdef0123456789abcdef01234567", expectErr: true},
		{name: "invalid hex", input: "zzz456789abcdef0123456789abcdef012345678", expectErr: true},
		{name: "uppercase valid", input: "ABCDEF0123456789ABCDEF0123456789ABCDEF01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseContentID(tt.input)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(tt.input), id.Hex())
		})
	}
}

func TestContentID_SQLScan(t *testing.T) {
	want := ComputeContentID([]byte("a { color: red; }"))

	v, err := want.Value()
	require.NoError(t, err)

	var got ContentID
	require.NoError(t, got.Scan(v))
	assert.Equal(t, want, got)

	require.NoError(t, got.Scan([]byte(want.Hex())))
	assert.Equal(t, want, got)

	assert.Error(t, got.Scan(nil))
	assert.Error(t, got.Scan(42))
}

func TestContentID_JSON(t *testing.T) {
	want := ComputeContentID([]byte("body{}"))

	data, err := want.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"`+want.Hex()+`"`, string(data))

	var got ContentID
	require.NoError(t, got.UnmarshalJSON(data))
	assert.Equal(t, want, got)

	assert.Error(t, got.UnmarshalJSON([]byte(`123`)))
}
