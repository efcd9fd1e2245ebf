package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// detailsPane shows both ends of the selected fragment.
type detailsPane struct {
	row    *fragmentRow
	width  int
	height int
}

func (dp *detailsPane) setFragment(r *fragmentRow) {
	dp.row = r
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}
	contentWidth := dp.width - 4

	var lines []string
	if dp.row == nil {
		lines = append(lines, "  No fragment selected")
	} else {
		r := dp.row
		lines = append(lines,
			fmt.Sprintf("  %s %s", fieldLabelStyle.Render("Output:"),
				fieldValueStyle.Render(fmt.Sprintf("line %d, column %d", r.GeneratedLine+1, r.GeneratedColumn+1))),
		)
		lines = append(lines, excerpt(r.GeneratedLine+1, r.GeneratedText, r.GeneratedColumn, contentWidth)...)
		lines = append(lines, "",
			fmt.Sprintf("  %s %s", fieldLabelStyle.Render("Source:"),
				fieldValueStyle.Render(fmt.Sprintf("%s line %d, column %d", r.SourceFile, r.SourceLine, r.SourceColumn+1))),
		)
		if r.SourceText == "" && r.SourceLine > 0 {
			lines = append(lines, gutterStyle.Render("  (source not available)"))
		} else {
			lines = append(lines, excerpt(r.SourceLine, r.SourceText, r.SourceColumn, contentWidth)...)
		}
	}

	title := titleStyle.Render(" Mapping ")
	box := inactiveBorderStyle.Width(dp.width - 2).Height(dp.height - 3).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

// excerpt renders a numbered line with a caret under the zero-based rune
// column col.
func excerpt(lineNo int, text string, col, width int) []string {
	gutter := fmt.Sprintf("  %4d │ ", lineNo)
	text = strings.ReplaceAll(text, "\t", " ")
	runes := []rune(text)
	col = min(max(0, col), len(runes))

	// Scroll long lines so the caret stays visible.
	avail := width - lipgloss.Width(gutter)
	start := 0
	if avail > 0 && col >= avail {
		start = col - avail/2
	}
	shown := runes[start:]
	if avail > 0 && len(shown) > avail {
		shown = shown[:avail]
	}

	caret := strings.Repeat(" ", lipgloss.Width(gutter)+col-start) + "^"
	return []string{
		gutterStyle.Render(gutter) + excerptStyle.Render(string(shown)),
		caretStyle.Render(caret),
	}
}
