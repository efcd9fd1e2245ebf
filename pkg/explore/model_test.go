package explore

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/corelgott/dotless/pkg/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := New(testFS, "site.less", env.Config{})
	require.NoError(t, err)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "base.less", m.details.row.SourceFile)

	m = press(t, m, "j", "down")
	assert.Equal(t, 2, m.fragments.cursor)
	assert.Equal(t, "site.less", m.details.row.SourceFile)

	m = press(t, m, "G")
	assert.Equal(t, 3, m.fragments.cursor)
	m = press(t, m, "j")
	assert.Equal(t, 3, m.fragments.cursor, "cursor stops at the last row")

	m = press(t, m, "g", "k")
	assert.Equal(t, 0, m.fragments.cursor)
}

func TestModel_SourceFilter(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "s")
	assert.Equal(t, "base.less", m.currentSource())
	assert.Len(t, m.fragments.rows, 2)

	m = press(t, m, "s")
	assert.Equal(t, "site.less", m.currentSource())
	assert.Len(t, m.fragments.rows, 2)
	assert.Equal(t, "site.less", m.details.row.SourceFile)

	m = press(t, m, "s")
	assert.Equal(t, "", m.currentSource())
	assert.Len(t, m.fragments.rows, 4)

	m = press(t, m, "s", "ctrl+r")
	assert.Len(t, m.fragments.rows, 4)
}

func TestModel_Overlays(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "?")
	assert.Equal(t, overlayHelp, m.activeOverlay)
	assert.Contains(t, m.View(), "Source Map Browser")

	m = press(t, m, "q")
	assert.Equal(t, overlayNone, m.activeOverlay)

	m = press(t, m, "o")
	assert.Equal(t, overlayCSS, m.activeOverlay)
	assert.Contains(t, m.View(), "color: red;")

	m = press(t, m, "o")
	assert.Equal(t, overlayNone, m.activeOverlay)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "Fragments (4)")
	assert.Contains(t, view, "base.less:1:1")
	assert.Contains(t, view, "Mapping")
	assert.Contains(t, view, "b { x: y; }")
	assert.Contains(t, view, "all sources")

	var empty Model
	assert.Equal(t, "Loading...", empty.View())
}

func TestExcerpt(t *testing.T) {
	lines := excerpt(3, "  color: red;", 2, 80)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "3 │ ")
	assert.Contains(t, lines[0], "color: red;")
	assert.True(t, strings.HasSuffix(lines[1], "^"))
	assert.Equal(t, 11, strings.Count(lines[1], " "), "caret sits under the column")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("abc", 0))
}
