package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/render"
)

var errNoReport = errors.New("no report for this job yet")

// reportState tracks the report view.
type reportState struct {
	jobID   api.ID
	system  api.ExpertSystem
	loading bool
	err     error
}

type reportMsg struct {
	jobID api.ID
	body  string
	err   error
}

// loadReportCmd fetches the first report of job and renders it for width
// columns.
func (m Model) loadReportCmd(job api.Job, width int) tea.Cmd {
	backend, ctx, log := m.backend, m.ctx, m.log
	return func() tea.Msg {
		if backend == nil {
			return reportMsg{jobID: job.ID, err: errors.New("no api client")}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()

		reports, err := backend.JobReports(ctx, job.ID)
		if err != nil {
			log.Warn("list reports failed", zap.String("job", job.ID.String()), zap.Error(err))
			return reportMsg{jobID: job.ID, err: err}
		}
		if len(reports) == 0 {
			return reportMsg{jobID: job.ID, err: errNoReport}
		}
		content, err := backend.ReportContent(ctx, reports[0].ID)
		if err != nil {
			log.Warn("load report failed", zap.String("report", reports[0].ID.String()), zap.Error(err))
			return reportMsg{jobID: job.ID, err: err}
		}
		body, err := render.Report(content, render.Options{Width: width})
		if err != nil {
			log.Warn("styled render failed, showing plain text", zap.Error(err))
			plain, perr := render.Document(content)
			if perr != nil {
				return reportMsg{jobID: job.ID, err: errors.Join(err, perr)}
			}
			return reportMsg{jobID: job.ID, body: plain}
		}
		return reportMsg{jobID: job.ID, body: body}
	}
}

// handleReport ignores results for a job the user already navigated away from.
func (m *Model) handleReport(msg reportMsg) {
	if msg.jobID != m.report.jobID {
		return
	}
	m.report.loading = false
	m.report.err = msg.err
	if msg.err == nil {
		m.reportViewport.SetContent(msg.body)
		m.reportViewport.GotoTop()
	}
}

func (m Model) handleReportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.reportViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.reportViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.reportViewport, cmd = m.reportViewport.Update(msg)
	return m, cmd
}

// renderReport renders the report pane.
func (m Model) renderReport() string {
	styles := m.theme.Styles()
	title := m.report.system.Label() + " report"

	var body string
	switch {
	case m.report.loading:
		body = styles.WarningText.Render(m.spinner.View() + " Loading report...")
	case m.report.err != nil:
		body = styles.DangerText.Render(api.Message(m.report.err))
	default:
		body = m.reportViewport.View()
		if m.reportViewport.TotalLineCount() > m.reportViewport.Height {
			title += fmt.Sprintf(" (%.0f%%)", m.reportViewport.ScrollPercent()*100)
		}
	}
	return m.renderTitledBox(title, body, m.width, m.contentHeight(), true)
}
