package types

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// LineIndex answers repeated offset-to-position queries on one document
// without rescanning it.
type LineIndex struct {
	content string
	starts  []int // byte offset of the first byte of every line
}

// NewLineIndex builds an index over content.
func NewLineIndex(content string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{content: content, starts: starts}
}

// Position returns the 1-based line and rune column of byteOffset.
func (x *LineIndex) Position(byteOffset int) (line, column int) {
	if byteOffset > len(x.content) {
		byteOffset = len(x.content)
	}
	if byteOffset < 0 {
		byteOffset = 0
	}
	i := sort.SearchInts(x.starts, byteOffset+1) - 1
	return i + 1, utf8.RuneCountInString(x.content[x.starts[i]:byteOffset]) + 1
}

// Lines returns the number of lines in the document.
func (x *LineIndex) Lines() int {
	return len(x.starts)
}

// Line returns the text of the 1-based line n without its newline.
// Out of range lines are empty.
func (x *LineIndex) Line(n int) string {
	if n < 1 || n > len(x.starts) {
		return ""
	}
	start := x.starts[n-1]
	end := len(x.content)
	if n < len(x.starts) {
		end = x.starts[n] - 1
	}
	return strings.TrimSuffix(x.content[start:end], "\r")
}
