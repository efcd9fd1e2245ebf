package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	reflowtruncate "github.com/muesli/reflow/truncate"
)

// fragmentsPane is the top fragment table.
type fragmentsPane struct {
	rows    []*fragmentRow // filtered rows
	allRows []*fragmentRow
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func newFragmentsPane(rows []*fragmentRow) fragmentsPane {
	return fragmentsPane{rows: rows, allRows: rows, focused: true}
}

// filter keeps the rows mapping to source, or every row when source is "".
func (fp *fragmentsPane) filter(source string) {
	if source == "" {
		fp.rows = fp.allRows
	} else {
		fp.rows = nil
		for _, r := range fp.allRows {
			if r.SourceFile == source {
				fp.rows = append(fp.rows, r)
			}
		}
	}
	if fp.cursor >= len(fp.rows) {
		fp.cursor = max(0, len(fp.rows)-1)
	}
	fp.ensureVisible()
}

func (fp fragmentsPane) selected() *fragmentRow {
	if fp.cursor < 0 || fp.cursor >= len(fp.rows) {
		return nil
	}
	return fp.rows[fp.cursor]
}

func (fp fragmentsPane) Update(msg tea.Msg) (fragmentsPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if fp.cursor > 0 {
				fp.cursor--
			}
		case keyMatches(msg, defaultKeys.Down):
			if fp.cursor < len(fp.rows)-1 {
				fp.cursor++
			}
		case keyMatches(msg, defaultKeys.PageUp):
			fp.cursor = max(0, fp.cursor-fp.visibleRows())
		case keyMatches(msg, defaultKeys.PageDown):
			fp.cursor = min(max(0, len(fp.rows)-1), fp.cursor+fp.visibleRows())
		case keyMatches(msg, defaultKeys.Home):
			fp.cursor = 0
		case keyMatches(msg, defaultKeys.End):
			fp.cursor = max(0, len(fp.rows)-1)
		}
		fp.ensureVisible()
	}

	return fp, nil
}

func (fp *fragmentsPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
	fp.ensureVisible()
}

// visibleRows excludes the border, title, header and separator lines.
func (fp fragmentsPane) visibleRows() int {
	return max(1, fp.height-5)
}

func (fp *fragmentsPane) ensureVisible() {
	visible := fp.visibleRows()
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+visible {
		fp.offset = fp.cursor - visible + 1
	}
}

func (fp fragmentsPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}
	contentWidth := fp.width - 4

	header := headerRowStyle.Render(fmt.Sprintf("%-10s  %s", "OUTPUT", "SOURCE"))
	lines := []string{header, strings.Repeat("─", max(0, contentWidth))}

	end := min(fp.offset+fp.visibleRows(), len(fp.rows))
	for i := fp.offset; i < end; i++ {
		r := fp.rows[i]
		row := fmt.Sprintf("%-10s  %s:%d:%d",
			fmt.Sprintf("%d:%d", r.GeneratedLine+1, r.GeneratedColumn+1),
			r.SourceFile, r.SourceLine, r.SourceColumn+1)
		row = truncate(row, contentWidth)
		if i == fp.cursor {
			lines = append(lines, selectedRowStyle.Width(contentWidth).Render(row))
		} else {
			lines = append(lines, normalRowStyle.Render(row))
		}
	}
	if len(fp.rows) == 0 {
		lines = append(lines, "  No fragments")
	}

	border := inactiveBorderStyle
	if fp.focused {
		border = activeBorderStyle
	}
	title := titleStyle.Render(fmt.Sprintf(" Fragments (%d) ", len(fp.rows)))
	box := border.Width(fp.width - 2).Height(fp.height - 3).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

// truncate cuts s to width cells, ending in an ellipsis when shortened.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return reflowtruncate.StringWithTail(s, uint(width), "…")
}
