package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/state"
)

const labelWidth = 12

// updateDetailViewport re-renders the detail pane for the selected job.
func (m *Model) updateDetailViewport() {
	if !m.ready {
		return
	}
	entry := m.selectedJob()
	if entry == nil {
		m.detailViewport.SetContent(m.theme.Styles().MutedText.Render("Select a job"))
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(*entry, m.detailViewport.Width))
}

// renderDetailContent renders the fields of one job.
func (m Model) renderDetailContent(entry state.JobEntry, width int) string {
	styles := m.theme.Styles()
	st := entry.State()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(entry.Job.ExpertSystem.Label()))
	b.WriteString("  ")
	b.WriteString(styles.StatusStyle(string(st)).Render(strings.ToUpper(string(st))))
	b.WriteString("\n\n")

	bar := progress.New(
		progress.WithSolidFill(m.theme.StatusColor(string(st))),
		progress.WithWidth(max(width-labelWidth, 10)),
	)
	m.writeField(&b, styles, "Progress", bar.ViewAs(entry.Progress()/100))

	m.writeField(&b, styles, "Job", "#"+entry.Job.ID.String())
	if entry.Job.OrderID != "" {
		m.writeField(&b, styles, "Order", "#"+entry.Job.OrderID.String())
	}

	status := entry.Status
	if status != nil && strings.TrimSpace(status.CurrentStep) != "" {
		m.writeField(&b, styles, "Step", status.CurrentStep)
	}

	started, completed := entry.Job.StartedAt, entry.Job.CompletedAt
	if status != nil {
		started = firstNonEmpty(status.StartedAt, started)
		completed = firstNonEmpty(status.CompletedAt, completed)
	}
	if t := api.ParseTime(started); !t.IsZero() {
		m.writeField(&b, styles, "Started", t.Local().Format("2006-01-02 15:04:05"))
	}
	if t := api.ParseTime(completed); !t.IsZero() {
		m.writeField(&b, styles, "Completed", t.Local().Format("2006-01-02 15:04:05"))
	}

	if st == api.JobCompleted {
		ready := status != nil && status.ResultAvailable
		value := styles.MutedText.Render("pending")
		if ready {
			value = styles.SuccessText.Render("ready, press enter")
		}
		m.writeField(&b, styles, "Report", value)
	}

	errMsg := entry.Job.ErrorMessage
	if status != nil {
		errMsg = firstNonEmpty(status.ErrorMessage, errMsg)
	}
	if strings.TrimSpace(errMsg) != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render("Error"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Foreground(lipgloss.Color(m.theme.Danger)).Render(errMsg))
		b.WriteString("\n")
	}

	if entry.Err != nil {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("Status refresh failed: %s", api.Message(entry.Err))))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) writeField(b *strings.Builder, styles Styles, label, value string) {
	b.WriteString(styles.MutedText.Render(padRight(label, labelWidth)))
	b.WriteString(value)
	b.WriteString("\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
