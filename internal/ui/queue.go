package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/state"
)

// updateJobTable moves the selection to selectedID after the list changed,
// clamping it when that job is gone.
func (m *Model) updateJobTable(selectedID api.ID) {
	jobs := m.sortedJobs()
	if len(jobs) == 0 {
		m.selectedRow = 0
		return
	}
	if selectedID != "" {
		for i, entry := range jobs {
			if entry.Job.ID == selectedID {
				m.selectedRow = i
				return
			}
		}
	}
	if m.selectedRow >= len(jobs) {
		m.selectedRow = len(jobs) - 1
	}
}

// sortedJobs returns the order's jobs with active work first.
func (m Model) sortedJobs() []state.JobEntry {
	jobs := append([]state.JobEntry(nil), m.snapshot.Jobs...)
	sort.SliceStable(jobs, func(i, j int) bool {
		return statusRank(jobs[i].State()) < statusRank(jobs[j].State())
	})
	return jobs
}

func (m Model) selectedID() api.ID {
	if entry := m.selectedJob(); entry != nil {
		return entry.Job.ID
	}
	return ""
}

func (m Model) selectedJob() *state.JobEntry {
	jobs := m.sortedJobs()
	if m.selectedRow < 0 || m.selectedRow >= len(jobs) {
		return nil
	}
	return &jobs[m.selectedRow]
}

// paneWidths splits the screen between the job table and the detail pane.
func (m Model) paneWidths() (table, detail int) {
	if m.width >= LayoutExtraWideWidth {
		table = m.width * 30 / 100
	} else {
		table = m.width * 40 / 100
	}
	return table, m.width - table
}

// renderJobs renders the split layout: job table and detail pane.
func (m Model) renderJobs() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	if len(m.snapshot.Jobs) == 0 {
		msg := "No jobs for this order yet"
		if !m.snapshot.HasOrder {
			msg = "Waiting for order data"
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	tableWidth, detailWidth := m.paneWidths()

	tableFocused := m.focusedPane == 0
	tableBg := m.theme.SurfaceAlt
	if tableFocused {
		tableBg = m.theme.FocusBg
	}
	title := fmt.Sprintf("Jobs (%d)", len(m.snapshot.Jobs))
	tablePane := m.renderTitledBox(title, m.renderJobTable(tableWidth-2, tableBg), tableWidth, height, tableFocused)

	detailPane := m.renderTitledBox("Details", m.detailViewport.View(), detailWidth, height, m.focusedPane == 1)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

// renderJobTable renders one line per job.
func (m Model) renderJobTable(width int, bgColor string) string {
	jobs := m.sortedJobs()
	lines := make([]string, 0, len(jobs))
	for i, entry := range jobs {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		line := lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(m.formatJobRow(entry, width, rowBg, selected))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// formatJobRow formats "#ID System · State 45%". A trailing "!" marks a job
// whose last status refresh failed.
func (m Model) formatJobRow(entry state.JobEntry, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)

	st := entry.State()
	statusParts := []string{titleCase(string(st))}
	if st == api.JobRunning {
		statusParts = append(statusParts, fmt.Sprintf("%.0f%%", entry.Progress()))
	}
	if entry.Err != nil {
		statusParts = append(statusParts, "!")
	}
	statusStr := strings.Join(statusParts, " ")

	idStr := "#" + entry.Job.ID.String()
	nameWidth := max(width-len(idStr)-len(statusStr)-5, 8)

	var idStyle, nameStyle, sepStyle, statusStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		idStyle, nameStyle, sepStyle, statusStyle = sel, sel, sel, sel
	} else {
		styles := m.theme.Styles()
		idStyle = styles.MutedText
		nameStyle = styles.Text
		sepStyle = styles.FaintText
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(string(st))))
	}

	return bg.Render(idStr, idStyle) + bg.Space() +
		bg.Render(truncate(entry.Job.ExpertSystem.Label(), nameWidth), nameStyle) +
		bg.Render(" · ", sepStyle) +
		bg.Render(statusStr, statusStyle)
}

// renderTitledBox renders content in a box with the title in the top border:
// ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 1))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	rows := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}

	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// statusRank orders job states for display, lower first.
func statusRank(s api.JobState) int {
	switch s {
	case api.JobRunning:
		return 0
	case api.JobQueued:
		return 1
	case api.JobFailed:
		return 2
	case api.JobCancelled:
		return 3
	case api.JobCompleted:
		return 4
	default:
		return 5
	}
}
