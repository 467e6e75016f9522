// Package tui renders live progress for batch runs: a progress bar,
// per-status counts, and the most recent per-file outcomes.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SaloEater/varefined/internal/batch"
)

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
	grayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
)

// ResultMsg delivers one completed work item to the UI.
type ResultMsg struct {
	Result batch.Result
}

// DoneMsg signals the end of the run.
type DoneMsg struct {
	Summary batch.Summary
	Err     error
}

// Model is the bubbletea model for a batch run.
type Model struct {
	total    int
	done     int
	summary  batch.Summary
	recent   []string
	bar      progress.Model
	finished bool
	err      error
	width    int
}

const maxRecent = 8

// NewModel creates a progress model for total work items.
func NewModel(total int) Model {
	bar := progress.New(progress.WithDefaultGradient())
	return Model{total: total, bar: bar, width: 80}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case ResultMsg:
		m.done++
		m.record(msg.Result)
		return m, nil

	case DoneMsg:
		m.summary = msg.Summary
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) record(r batch.Result) {
	switch r.Status {
	case batch.StatusOK:
		m.summary.Succeeded++
		m.push(okStyle.Render("✓ ") + r.Item.Rel)
	case batch.StatusDegraded:
		m.summary.Degraded++
		m.push(degradedStyle.Render("◐ ") + r.Item.Rel + grayStyle.Render(" (degraded)"))
	case batch.StatusSkipped:
		m.summary.Skipped++
		m.push(grayStyle.Render("○ " + r.Item.Rel + " (exists)"))
	case batch.StatusFailed:
		m.summary.Failed++
		line := failStyle.Render("✗ ") + r.Item.Rel
		if r.Err != nil {
			line += grayStyle.Render(": " + r.Err.Error())
		}
		m.push(line)
	}
}

func (m *Model) push(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("varefined batch") + "\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString(fmt.Sprintf("  %d/%d\n\n", m.done, m.total))

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n\n",
		okStyle.Render("ok:"), fmt.Sprint(m.summary.Succeeded),
		degradedStyle.Render("degraded:"), fmt.Sprint(m.summary.Degraded),
		grayStyle.Render("skipped:"), fmt.Sprint(m.summary.Skipped),
		failStyle.Render("failed:"), fmt.Sprint(m.summary.Failed),
	))

	for _, line := range m.recent {
		b.WriteString("  " + line + "\n")
	}

	if m.finished {
		b.WriteString("\n" + grayStyle.Render("done"))
		if m.err != nil {
			b.WriteString(" " + failStyle.Render(m.err.Error()))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Summary returns the accumulated counts, for callers that print a
// plain summary after the program exits.
func (m Model) Summary() batch.Summary { return m.summary }
