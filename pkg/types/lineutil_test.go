package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex_Position(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		byteOffset int
		wantLine   int
		wantColumn int
	}{
		{name: "empty content at offset 0", content: "", byteOffset: 0, wantLine: 1, wantColumn: 1},
		{name: "single line at offset 2", content: "hello", byteOffset: 2, wantLine: 1, wantColumn: 3},
		{name: "multi-line at offset 7", content: "hello\nworld", byteOffset: 7, wantLine: 2, wantColumn: 2},
		{name: "offset at newline", content: "hello\nworld", byteOffset: 5, wantLine: 1, wantColumn: 6},
		{name: "offset beyond content length", content: "hello", byteOffset: 100, wantLine: 1, wantColumn: 6},
		{name: "negative offset", content: "hello", byteOffset: -3, wantLine: 1, wantColumn: 1},
		{name: "offset at start of second line", content: "hello\nworld", byteOffset: 6, wantLine: 2, wantColumn: 1},
		{name: "multibyte runes count once", content: "é{x}", byteOffset: 3, wantLine: 1, wantColumn: 3},
		{name: "blank line", content: "a\n\nb", byteOffset: 2, wantLine: 2, wantColumn: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLine, gotColumn := NewLineIndex(tt.content).Position(tt.byteOffset)
			assert.Equal(t, tt.wantLine, gotLine, "line")
			assert.Equal(t, tt.wantColumn, gotColumn, "column")
		})
	}
}

func TestLineIndex_Line(t *testing.T) {
	idx := NewLineIndex("first\r\nsecond\nthird")

	assert.Equal(t, 3, idx.Lines())
	assert.Equal(t, "first", idx.Line(1))
	assert.Equal(t, "second", idx.Line(2))
	assert.Equal(t, "third", idx.Line(3))
	assert.Empty(t, idx.Line(0))
	assert.Empty(t, idx.Line(4))
}
