// Package css is a small reference parser and renderer for plain CSS with
// @import inlining and @name: value; variables. It exists so the engine can
// be driven end to end; it knows nothing about mixins, nesting semantics or
// operations.
//
// Variables are global and sequential: a reference sees the latest definition
// rendered before it, or the first one when redefinition is disabled.
package css

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/corelgott/dotless/pkg/parser"
	"github.com/corelgott/dotless/pkg/types"
	"github.com/dlclark/regexp2"
)

var variableRegexp = regexp2.MustCompile(`^@([A-Za-z_][\w-]*)\s*:([\s\S]*)$`, regexp2.None)

// Parser implements parser.Parser.
type Parser struct {
	// FS resolves imports. Names are slash separated and relative to its
	// root. With a nil FS every @import is kept verbatim.
	FS fs.FS
}

// Parse parses source, read from fileName, inlining local imports and
// recording each one in imports.
func (p *Parser) Parse(source, fileName string, imports *parser.Ledger) (parser.Tree, error) {
	if imports == nil {
		imports = parser.NewLedger()
	}
	st := &parseState{
		fsys:     p.FS,
		imports:  imports,
		included: make(map[string]bool),
	}
	nodes, err := st.parseFile(source, path.Clean(fileName))
	if err != nil {
		return nil, err
	}
	return &Stylesheet{File: fileName, Nodes: nodes}, nil
}

type parseState struct {
	fsys     fs.FS
	imports  *parser.Ledger
	included map[string]bool // files inlined so far, for import-once
	stack    []string        // files being parsed, outermost first
}

func (st *parseState) parseFile(src, file string) ([]Node, error) {
	st.stack = append(st.stack, file)
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()
	st.included[file] = true

	r := &reader{st: st, src: src, file: file, lines: types.NewLineIndex(src)}
	return r.parseBlock(false, 0)
}

type reader struct {
	st    *parseState
	src   string
	file  string
	pos   int
	lines *types.LineIndex
}

func (r *reader) posAt(off int) Pos {
	line, col := r.lines.Position(off)
	return Pos{File: r.file, Line: line, Column: col}
}

func (r *reader) errorf(off int, format string, args ...interface{}) *parser.ParseError {
	p := r.posAt(off)
	return parser.Errorf(r.file, p.Line, p.Column, format, args...)
}

func (r *reader) skipSpace() {
	for r.pos < len(r.src) && isSpace(r.src[r.pos]) {
		r.pos++
	}
}

// parseBlock reads items up to the closing brace of a block opened at open,
// or up to the end of input at top level.
func (r *reader) parseBlock(nested bool, open int) ([]Node, error) {
	var nodes []Node
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			if nested {
				return nil, r.errorf(open, "unclosed block")
			}
			return nodes, nil
		}

		start := r.pos
		switch {
		case strings.HasPrefix(r.src[r.pos:], "/*"):
			if err := r.skipComment(); err != nil {
				return nil, err
			}
			nodes = append(nodes, &Comment{Pos: r.posAt(start), Text: r.src[start:r.pos]})
			continue
		case r.src[r.pos] == '}':
			if !nested {
				return nil, r.errorf(start, "unexpected %q", "}")
			}
			r.pos++
			return nodes, nil
		case r.src[r.pos] == ';':
			r.pos++
			continue
		}

		text, term, err := r.readStatement()
		if err != nil {
			return nil, err
		}
		parsed, err := r.statement(start, text, term, nested)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, parsed...)
	}
}

// readStatement reads up to the next ';', '{' or '}' outside strings,
// comments and parentheses. ';' and '{' are consumed, '}' is left for the
// enclosing block. term is 0 at end of input.
func (r *reader) readStatement() (text string, term byte, err error) {
	start := r.pos
	depth := 0
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '"' || c == '\'':
			if err := r.skipString(); err != nil {
				return "", 0, err
			}
			continue
		case c == '/' && strings.HasPrefix(r.src[r.pos:], "/*"):
			if err := r.skipComment(); err != nil {
				return "", 0, err
			}
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ';' || c == '{'):
			text = r.src[start:r.pos]
			r.pos++
			return text, c, nil
		case depth == 0 && c == '}':
			return r.src[start:r.pos], c, nil
		}
		r.pos++
	}
	return r.src[start:], 0, nil
}

func (r *reader) skipComment() error {
	start := r.pos
	end := strings.Index(r.src[r.pos+2:], "*/")
	if end < 0 {
		return r.errorf(start, "unterminated comment")
	}
	r.pos += 2 + end + 2
	return nil
}

func (r *reader) skipString() error {
	start := r.pos
	quote := r.src[r.pos]
	r.pos++
	for r.pos < len(r.src) {
		switch r.src[r.pos] {
		case '\\':
			r.pos += 2
			continue
		case '\n':
			return r.errorf(start, "unterminated string")
		case quote:
			r.pos++
			return nil
		}
		r.pos++
	}
	return r.errorf(start, "unterminated string")
}

func (r *reader) statement(start int, text string, term byte, nested bool) ([]Node, error) {
	trimmed := strings.TrimSpace(text)
	at := r.posAt(start)

	if term == '{' {
		if trimmed == "" {
			return nil, r.errorf(start, "missing selector before %q", "{")
		}
		body, err := r.parseBlock(true, start)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(trimmed, "@") {
			name, prelude := splitAtRule(trimmed)
			return []Node{&AtRule{Pos: at, Name: name, Prelude: prelude, Block: true, Body: body}}, nil
		}
		return []Node{&RuleSet{Pos: at, Selector: trimmed, Body: body}}, nil
	}

	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "@") {
		if m, _ := variableRegexp.FindStringMatch(trimmed); m != nil {
			return []Node{&Variable{
				Pos:   at,
				Name:  m.GroupByNumber(1).String(),
				Value: strings.TrimSpace(m.GroupByNumber(2).String()),
			}}, nil
		}
		name, prelude := splitAtRule(trimmed)
		if name == "" {
			return nil, r.errorf(start, "missing at-rule name")
		}
		if name == "import" {
			return r.importRule(at, start, prelude)
		}
		return []Node{&AtRule{Pos: at, Name: name, Prelude: prelude}}, nil
	}

	if !nested {
		return nil, r.errorf(start, "declaration %q outside of a rule set", trimmed)
	}
	property, value, ok := strings.Cut(trimmed, ":")
	property = strings.TrimSpace(property)
	if !ok {
		return nil, r.errorf(start, "expected %q after property %q", ":", property)
	}
	if property == "" {
		return nil, r.errorf(start, "missing property name")
	}
	return []Node{&Declaration{Pos: at, Property: property, Value: strings.TrimSpace(value)}}, nil
}

// splitAtRule splits "@media screen" into "media" and "screen".
func splitAtRule(s string) (name, prelude string) {
	i := 1
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	return s[1:i], strings.TrimSpace(s[i:])
}

type importOptions struct {
	css      bool
	less     bool
	optional bool
	multiple bool
}

func (r *reader) importRule(at Pos, start int, prelude string) ([]Node, error) {
	verbatim := []Node{&AtRule{Pos: at, Name: "import", Prelude: prelude}}

	opts, rest, err := parseImportOptions(prelude)
	if err != nil {
		return nil, r.errorf(start, "%v", err)
	}
	target, media, ok := parseImportTarget(rest)
	if !ok {
		return nil, r.errorf(start, "malformed @import %q", prelude)
	}
	if r.st.fsys == nil || opts.css || media != "" || isRemote(target) {
		return verbatim, nil
	}
	if path.Ext(target) == ".css" && !opts.less {
		return verbatim, nil
	}
	if path.Ext(target) == "" {
		target += ".less"
	}

	resolved := path.Join(path.Dir(r.file), target)
	if !fs.ValidPath(resolved) {
		return nil, r.errorf(start, "import %q resolves outside the source root", target)
	}
	for _, f := range r.st.stack {
		if f == resolved {
			return nil, r.errorf(start, "recursive import of %q", resolved)
		}
	}

	data, err := fs.ReadFile(r.st.fsys, resolved)
	if err != nil {
		if opts.optional {
			return nil, nil
		}
		perr := r.errorf(start, "cannot import %q", target)
		perr.Err = err
		return nil, perr
	}

	r.st.imports.Add(resolved)
	if r.st.included[resolved] && !opts.multiple {
		return nil, nil
	}
	return r.st.parseFile(string(data), resolved)
}

// parseImportOptions reads a leading "(less, optional)" list.
func parseImportOptions(prelude string) (importOptions, string, error) {
	var opts importOptions
	if !strings.HasPrefix(prelude, "(") {
		return opts, prelude, nil
	}
	end := strings.IndexByte(prelude, ')')
	if end < 0 {
		return opts, "", fmt.Errorf("unclosed @import options")
	}
	for _, o := range strings.Split(prelude[1:end], ",") {
		switch strings.TrimSpace(o) {
		case "css":
			opts.css = true
		case "less":
			opts.less = true
		case "optional":
			opts.optional = true
		case "multiple":
			opts.multiple = true
		case "once", "":
		default:
			return opts, "", fmt.Errorf("unknown @import option %q", strings.TrimSpace(o))
		}
	}
	return opts, strings.TrimSpace(prelude[end+1:]), nil
}

// parseImportTarget reads `"file" media`, `'file' media` or `url(file) media`.
func parseImportTarget(s string) (target, media string, ok bool) {
	switch {
	case strings.HasPrefix(s, "url("):
		end := strings.IndexByte(s, ')')
		if end < 0 {
			return "", "", false
		}
		target = strings.Trim(strings.TrimSpace(s[4:end]), `"'`)
		media = s[end+1:]
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'"):
		end := strings.IndexByte(s[1:], s[0])
		if end < 0 {
			return "", "", false
		}
		target = s[1 : end+1]
		media = s[end+2:]
	default:
		return "", "", false
	}
	return target, strings.TrimSpace(media), target != ""
}

func isRemote(target string) bool {
	return strings.Contains(target, "://") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "data:")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
