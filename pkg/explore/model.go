// Package explore is a terminal browser for the source map of a compiled
// style sheet.
package explore

import (
	"fmt"
	"io/fs"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/corelgott/dotless/pkg/env"
)

// overlay tracks which modal overlay is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCSS
)

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	data      *exploreData
	fragments fragmentsPane
	details   detailsPane

	// sourceIdx indexes data.sources; -1 shows every source.
	sourceIdx int

	activeOverlay overlay
	overlayOffset int

	width  int
	height int
}

// New compiles fileName from fsys and returns a model browsing its mappings.
func New(fsys fs.FS, fileName string, cfg env.Config, plugins ...env.Configurator) (Model, error) {
	data, err := loadData(fsys, fileName, cfg, plugins...)
	if err != nil {
		return Model{}, err
	}
	return newModel(data), nil
}

func newModel(data *exploreData) Model {
	m := Model{
		data:      data,
		fragments: newFragmentsPane(data.fragments),
		sourceIdx: -1,
	}
	m.details.setFragment(m.fragments.selected())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("dotless explore " + m.data.file)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		if m.activeOverlay != overlayNone {
			return m.updateOverlay(msg)
		}

		switch {
		case keyMatches(msg, defaultKeys.ForceQuit), keyMatches(msg, defaultKeys.Quit):
			return m, tea.Quit
		case keyMatches(msg, defaultKeys.ToggleHelp):
			m.openOverlay(overlayHelp)
			return m, nil
		case keyMatches(msg, defaultKeys.ToggleCSS):
			m.openOverlay(overlayCSS)
			return m, nil
		case keyMatches(msg, defaultKeys.NextSource):
			m.sourceIdx++
			if m.sourceIdx >= len(m.data.sources) {
				m.sourceIdx = -1
			}
			m.applyFilter()
			return m, nil
		case keyMatches(msg, defaultKeys.ResetSource):
			m.sourceIdx = -1
			m.applyFilter()
			return m, nil
		}

		var cmd tea.Cmd
		m.fragments, cmd = m.fragments.Update(msg)
		m.details.setFragment(m.fragments.selected())
		return m, cmd
	}

	return m, nil
}

func (m *Model) openOverlay(o overlay) {
	m.activeOverlay = o
	m.overlayOffset = 0
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, defaultKeys.Quit),
		keyMatches(msg, defaultKeys.ForceQuit),
		keyMatches(msg, defaultKeys.ToggleHelp) && m.activeOverlay == overlayHelp,
		keyMatches(msg, defaultKeys.ToggleCSS) && m.activeOverlay == overlayCSS:
		m.activeOverlay = overlayNone
	case keyMatches(msg, defaultKeys.Down):
		m.overlayOffset++
	case keyMatches(msg, defaultKeys.Up):
		if m.overlayOffset > 0 {
			m.overlayOffset--
		}
	case keyMatches(msg, defaultKeys.PageDown):
		m.overlayOffset += m.height / 2
	case keyMatches(msg, defaultKeys.PageUp):
		m.overlayOffset = max(0, m.overlayOffset-m.height/2)
	}
	return m, nil
}

func (m *Model) applyFilter() {
	m.fragments.filter(m.currentSource())
	m.details.setFragment(m.fragments.selected())
}

func (m Model) currentSource() string {
	if m.sourceIdx < 0 || m.sourceIdx >= len(m.data.sources) {
		return ""
	}
	return m.data.sources[m.sourceIdx]
}

func (m *Model) updateLayout() {
	contentHeight := m.height - 2 // status bar + padding
	fragmentsHeight := contentHeight * 50 / 100
	m.fragments.setSize(m.width, fragmentsHeight)
	m.details.setSize(m.width, contentHeight-fragmentsHeight)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	main := lipgloss.JoinVertical(lipgloss.Left, m.fragments.View(), m.details.View())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	source := m.currentSource()
	if source == "" {
		source = "all sources"
	}
	left := statusBarStyle.Render(fmt.Sprintf(" %s | %d fragments | %s",
		m.data.file, len(m.data.fragments), source))

	right := fmt.Sprintf("%s:%s  %s:%s  %s:%s  %s:%s  %s:%s",
		helpKeyStyle.Render("j/k"), helpDescStyle.Render("nav"),
		helpKeyStyle.Render("s"), helpDescStyle.Render("source"),
		helpKeyStyle.Render("o"), helpDescStyle.Render("output"),
		helpKeyStyle.Render("?"), helpDescStyle.Render("help"),
		helpKeyStyle.Render("q"), helpDescStyle.Render("quit"),
	)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderOverlay() string {
	overlayWidth := m.width * 80 / 100
	overlayHeight := m.height * 80 / 100

	var title, content string
	switch m.activeOverlay {
	case overlayHelp:
		title = " Help (q to close) "
		content = scrollLines(renderHelp(), m.overlayOffset, overlayHeight-4)
	case overlayCSS:
		title = fmt.Sprintf(" Output of %s (q to close) ", m.data.file)
		content = scrollLines(m.data.css, m.overlayOffset, overlayHeight-4)
	}

	box := modalStyle.
		Width(overlayWidth - 4).
		Height(overlayHeight - 2).
		Render(content)

	overlayView := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)

	// Center on screen
	hPad := (m.width - lipgloss.Width(overlayView)) / 2
	vPad := (m.height - lipgloss.Height(overlayView)) / 2

	return strings.Repeat("\n", max(0, vPad)) +
		lipgloss.NewStyle().PaddingLeft(max(0, hPad)).Render(overlayView)
}

func scrollLines(text string, offset, height int) string {
	lines := strings.Split(text, "\n")
	offset = min(offset, max(0, len(lines)-1))
	end := min(offset+max(1, height), len(lines))
	return strings.Join(lines[offset:end], "\n")
}

func renderHelp() string {
	return `Dotless Explore - Source Map Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

FILTERS
  s or Tab          Show the next source file only
  Ctrl+r            Show every source file

VIEWS
  o                 Show the compiled output
  ?                 Toggle this help screen

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}
