package types

// Fragment maps one position in generated output back to the source location
// it originated from. Generated coordinates are zero-based. Source
// coordinates are carried as the renderer reported them.
type Fragment struct {
	GeneratedLine   int    `json:"generated_line"`
	GeneratedColumn int    `json:"generated_column"`
	SourceFile      string `json:"source_file"`
	SourceLine      int    `json:"source_line"`
	SourceColumn    int    `json:"source_column"`
}

// Generated returns the generated position of the fragment.
func (f Fragment) Generated() Point {
	return Point{Line: f.GeneratedLine, Column: f.GeneratedColumn}
}

// Source returns the source position of the fragment.
func (f Fragment) Source() Point {
	return Point{Line: f.SourceLine, Column: f.SourceColumn}
}
