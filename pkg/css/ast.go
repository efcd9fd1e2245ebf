package css

import "strings"

// Pos is the 1-based location of a node in its source file.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Position returns p.
func (p Pos) Position() Pos {
	return p
}

// Node is one item of a style sheet or block body.
type Node interface {
	Position() Pos
}

// Comment is a /* ... */ comment, delimiters included.
type Comment struct {
	Pos
	Text string
}

// Special reports whether the comment is a /*! license-style comment.
func (c *Comment) Special() bool {
	return strings.HasPrefix(c.Text, "/*!")
}

// Variable is an @name: value; definition.
type Variable struct {
	Pos
	Name  string // without the leading @
	Value string
}

// Declaration is a property: value; pair.
type Declaration struct {
	Pos
	Property string
	Value    string
}

// RuleSet is selector { body }.
type RuleSet struct {
	Pos
	Selector string
	Body     []Node
}

// AtRule is @name prelude; or @name prelude { body }.
type AtRule struct {
	Pos
	Name    string // without the leading @
	Prelude string
	Block   bool
	Body    []Node
}

// Stylesheet is a parsed file with its imports inlined.
type Stylesheet struct {
	File  string
	Nodes []Node
}
