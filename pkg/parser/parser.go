// Package parser defines the contract between the engine and a style-sheet
// parser: the parse entry point, the tree it produces, the error it reports
// for malformed input, and the ledger of files pulled in through imports.
package parser

import (
	"fmt"

	"github.com/corelgott/dotless/pkg/env"
)

// Tree is a parsed style sheet ready to render.
type Tree interface {
	// Render produces style-sheet text. When e has map mode on, the output
	// carries a position marker wherever a fragment starts at a new source
	// location.
	Render(e *env.Env) (string, error)
}

// Parser turns source text into a Tree. Every file resolved through an
// import is appended to imports.
type Parser interface {
	Parse(source, fileName string, imports *Ledger) (Tree, error)
}

// ParseError reports malformed input. It is the one failure an engine turns
// into an empty result instead of returning it.
type ParseError struct {
	File    string
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	Message string
	Err     error
}

// Errorf builds a ParseError at the given position.
func Errorf(file string, line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{File: file, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	switch {
	case e.File == "":
		return e.Message
	case e.Line == 0:
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Column == 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
