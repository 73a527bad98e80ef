package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/report"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	listMatchStyle = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// ResultsModel - Interactive report browser
// =============================================================================

// ResultsModel is the bubbletea model for browsing a report: a table of
// queries, and for the selected query the list of its matches.
type ResultsModel struct {
	Report *report.Report
	Cursor int
	Offset int
	Height int

	// Detail is set while the matches of the query under the cursor are shown.
	Detail       bool
	DetailOffset int
}

func newResultsModel(rep *report.Report) ResultsModel {
	return ResultsModel{Report: rep, Height: 15}
}

func (m ResultsModel) Init() tea.Cmd {
	return nil
}

func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace":
			if !m.Detail {
				return m, tea.Quit
			}
			m.Detail = false
		case "enter":
			if len(m.Report.Queries) > 0 {
				m.Detail = true
				m.DetailOffset = 0
			}
		case "up", "k":
			if m.Detail {
				m.DetailOffset = max(m.DetailOffset-1, 0)
				break
			}
			if m.Cursor > 0 {
				m.Cursor--
				m.Offset = min(m.Offset, m.Cursor)
			}
		case "down", "j":
			if m.Detail {
				last := len(m.Report.Queries[m.Cursor].Matches) - m.Height
				m.DetailOffset = max(min(m.DetailOffset+1, last), 0)
				break
			}
			if m.Cursor < len(m.Report.Queries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ResultsModel) View() string {
	if m.Detail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Results · " + m.Report.Targets))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ matches  q quit"))
	b.WriteString("\n\n")

	queries := m.Report.Queries
	end := min(m.Offset+m.Height, len(queries))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		qr := queries[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		cached := ""
		if qr.Cached {
			cached = "✓"
		}
		rows = append(rows, []string{
			cursor,
			qr.Query,
			fmt.Sprintf("%d/%d", qr.TargetCount(), qr.Searched),
			fmt.Sprint(qr.MatchCount()),
			fmt.Sprint(len(qr.Skipped)),
			fmt.Sprint(qr.Visits),
			cached,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Query", "Targets", "Matches", "Skipped", "Visits", "Cached").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(queries) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			switch {
			case queries[idx].Matched():
				base = base.Foreground(colorGreen)
			case len(queries[idx].Skipped) > 0:
				base = base.Foreground(colorYellow)
			default:
				base = base.Foreground(colorDim)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %s", m.Cursor+1, len(queries), formatRunStats(m.Report.Stats))))
	return b.String()
}

func (m ResultsModel) detailView() string {
	qr := m.Report.Queries[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(qr.Query))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  q quit"))
	b.WriteString("\n\n")

	if !qr.Matched() {
		b.WriteString(listDimStyle.Render("  no matches"))
		b.WriteString("\n")
	}
	end := min(m.DetailOffset+m.Height, len(qr.Matches))
	for _, match := range qr.Matches[m.DetailOffset:end] {
		b.WriteString("  ")
		b.WriteString(listMatchStyle.Render(fmt.Sprintf("%-12s", match.Target)))
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(pkgio.FormatPairs(match.Pairs)))
		b.WriteString("\n")
	}
	if len(qr.Skipped) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("  skipped: " + strings.Join(qr.Skipped, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}
