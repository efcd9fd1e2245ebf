package types

// Point is a line:column position. Whether it is zero- or one-based depends
// on the producer; Fragment documents its own convention.
type Point struct {
	Line   int
	Column int
}

// Before reports whether p sorts strictly before o (line first, then column).
func (p Point) Before(o Point) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}
