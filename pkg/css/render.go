package css

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/parser"
	"github.com/corelgott/dotless/pkg/sourcemap"
	"github.com/dlclark/regexp2"
)

// variableRefRegexp matches @name references that are not part of a word,
// an e-mail-like token or a file name such as "icon@2x.png".
var variableRefRegexp = regexp2.MustCompile(`(?<![\w@.-])@([A-Za-z_][\w-]*)`, regexp2.None)

// Render implements parser.Tree.
func (s *Stylesheet) Render(e *env.Env) (string, error) {
	if err := env.Require(e); err != nil {
		return "", err
	}
	r := &renderer{env: e, vars: make(map[string]string)}
	if err := r.nodes(s.Nodes, 0); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

type renderer struct {
	env         *env.Env
	buf         bytes.Buffer
	vars        map[string]string
	keptSpecial bool
}

func (r *renderer) nodes(nodes []Node, depth int) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *Comment:
			r.comment(n, depth)
		case *Variable:
			err = r.define(n)
		case *Declaration:
			err = r.declaration(n, depth)
		case *RuleSet:
			err = r.ruleSet(n, depth)
		case *AtRule:
			err = r.atRule(n, depth)
		default:
			err = fmt.Errorf("css: cannot render %T", n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// comment copies a user comment. Like all copied text it is defused, so the
// output does not depend on whether map mode is on.
func (r *renderer) comment(c *Comment, depth int) {
	if r.env.Compress {
		if !c.Special() || !r.env.KeepFirstSpecialComment || r.keptSpecial {
			return
		}
		r.keptSpecial = true
		r.buf.WriteString(sourcemap.Defuse(c.Text))
		return
	}
	r.indent(depth)
	r.buf.WriteString(sourcemap.Defuse(c.Text))
	r.buf.WriteByte('\n')
}

func (r *renderer) define(v *Variable) error {
	if _, defined := r.vars[v.Name]; defined && r.env.DisableVariableRedefines {
		return nil
	}
	value, err := r.substitute(v.Value, v.Pos)
	if err != nil {
		return err
	}
	r.vars[v.Name] = value
	return nil
}

func (r *renderer) declaration(d *Declaration, depth int) error {
	value, err := r.substitute(d.Value, d.Pos)
	if err != nil {
		return err
	}
	property, value := r.env.VisitDeclaration(d.Property, value)
	property, value = sourcemap.Defuse(property), sourcemap.Defuse(value)

	if r.env.Compress {
		r.marker(d.Pos)
		r.buf.WriteString(property)
		r.buf.WriteByte(':')
		r.buf.WriteString(collapseSpace(value, true))
		r.buf.WriteByte(';')
		return nil
	}
	r.indent(depth)
	r.marker(d.Pos)
	r.buf.WriteString(property)
	r.buf.WriteString(": ")
	r.buf.WriteString(value)
	r.buf.WriteString(";\n")
	return nil
}

func (r *renderer) ruleSet(rs *RuleSet, depth int) error {
	if !hasOutput(rs.Body) {
		return r.nodes(rs.Body, depth+1)
	}
	selector := sourcemap.Defuse(r.env.VisitSelector(collapseSpace(rs.Selector, r.env.Compress)))

	if !r.env.Compress && r.env.Debug {
		r.indent(depth)
		fmt.Fprintf(&r.buf, "/* line %d, %s */\n", rs.Line, sourcemap.Defuse(rs.File))
	}
	r.open(rs.Pos, selector, depth)
	if err := r.nodes(rs.Body, depth+1); err != nil {
		return err
	}
	r.close(depth)
	return nil
}

func (r *renderer) atRule(a *AtRule, depth int) error {
	prelude, err := r.substitute(a.Prelude, a.Pos)
	if err != nil {
		return err
	}
	head := "@" + a.Name
	if prelude != "" {
		head += " " + collapseSpace(prelude, false)
	}
	head = sourcemap.Defuse(head)

	if !a.Block {
		if !r.env.Compress {
			r.indent(depth)
		}
		r.marker(a.Pos)
		r.buf.WriteString(head)
		r.buf.WriteByte(';')
		if !r.env.Compress {
			r.buf.WriteByte('\n')
		}
		return nil
	}

	r.open(a.Pos, head, depth)
	if err := r.nodes(a.Body, depth+1); err != nil {
		return err
	}
	r.close(depth)
	return nil
}

func (r *renderer) open(at Pos, head string, depth int) {
	if r.env.Compress {
		r.marker(at)
		r.buf.WriteString(head)
		r.buf.WriteByte('{')
		return
	}
	r.indent(depth)
	r.marker(at)
	r.buf.WriteString(head)
	r.buf.WriteString(" {\n")
}

func (r *renderer) close(depth int) {
	if r.env.Compress {
		if b := r.buf.Bytes(); len(b) > 0 && b[len(b)-1] == ';' {
			r.buf.Truncate(len(b) - 1)
		}
		r.buf.WriteByte('}')
		return
	}
	r.indent(depth)
	r.buf.WriteString("}\n")
}

// marker emits the position marker for at when map mode is on. Marker
// columns are zero-based.
func (r *renderer) marker(at Pos) {
	if !r.env.SourceMapEnabled() {
		return
	}
	r.buf.WriteString(sourcemap.Marker(at.File, at.Line, at.Column-1))
}

func (r *renderer) indent(depth int) {
	for i := 0; i < depth; i++ {
		r.buf.WriteString("  ")
	}
}

func (r *renderer) substitute(text string, at Pos) (string, error) {
	if !strings.Contains(text, "@") {
		return text, nil
	}
	var missing string
	out, err := variableRefRegexp.ReplaceFunc(text, func(m regexp2.Match) string {
		name := m.GroupByNumber(1).String()
		value, ok := r.vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m.String()
		}
		return value
	}, -1, -1)
	if err != nil {
		return "", fmt.Errorf("substituting variables: %w", err)
	}
	if missing != "" {
		return "", parser.Errorf(at.File, at.Line, at.Column, "variable @%s is undefined", missing)
	}
	return out, nil
}

// hasOutput reports whether a body renders anything besides variable
// definitions.
func hasOutput(body []Node) bool {
	for _, n := range body {
		if _, ok := n.(*Variable); !ok {
			return true
		}
	}
	return false
}

// collapseSpace folds runs of whitespace outside quoted strings into one
// space. tight also drops the space after commas.
func collapseSpace(s string, tight bool) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(s):
				i++
				b.WriteByte(s[i])
			case c == quote:
				quote = 0
			}
			continue
		}
		if isSpace(c) {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			prev := byte(0)
			if b.Len() > 0 {
				prev = b.String()[b.Len()-1]
			}
			if !(tight && prev == ',') {
				b.WriteByte(' ')
			}
			pendingSpace = false
		}
		if c == '"' || c == '\'' {
			quote = c
		}
		b.WriteByte(c)
	}
	return b.String()
}
