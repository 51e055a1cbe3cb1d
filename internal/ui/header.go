package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/seer/internal/api"
)

const sessionWarnWithin = 5 * time.Minute

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var content string
	if !m.snapshot.HasOrder {
		content = m.connectingContent(styles, bg)
	} else {
		content = m.statusContent(styles, bg)
	}
	return styles.Header.Width(m.width).Render(content)
}

// connectingContent covers the time before the first successful poll.
func (m Model) connectingContent(styles Styles, bg BgStyle) string {
	parts := []string{
		bg.Render("seer", styles.Logo),
		bg.Render("Order #"+m.orderID.String(), styles.Text),
	}

	switch {
	case m.snapshot.NeedsLogin:
		parts = append(parts, bg.Render("Session expired, run seer login", styles.DangerText))
	case m.snapshot.LastError != nil:
		last := "soon"
		if !m.lastUpdated.IsZero() {
			last = m.lastUpdated.Local().Format("15:04:05")
		}
		parts = append(parts,
			bg.Render(classifyError(m.snapshot.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		)
	default:
		parts = append(parts, bg.Render(m.spinner.View()+" Loading order...", styles.WarningText.Bold(true)))
	}
	return bg.Join(parts, "  ")
}

// statusContent builds the header for a loaded order.
func (m Model) statusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)
	snap := m.snapshot
	counts := snap.Counts()

	parts := []string{
		bg.Render("seer", styles.Logo),
		bg.Render("Order", styles.MutedText) + bg.Space() + bg.Render("#"+snap.Order.ID.String(), styles.Text),
	}

	switch {
	case snap.Done():
		parts = append(parts, bg.Render("✓ Done", styles.SuccessText))
	case counts[api.JobRunning] > 0:
		spin := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(string(api.JobRunning))))
		parts = append(parts, bg.Render(m.spinner.View(), spin)+bg.Space()+
			bg.Render(fmt.Sprintf("%.0f%%", snap.Progress()), styles.AccentText))
	default:
		parts = append(parts, bg.Render(fmt.Sprintf("%.0f%%", snap.Progress()), styles.AccentText))
	}

	type tally struct {
		label, short string
		state        api.JobState
	}
	tallies := []tally{
		{"Queued", "Q", api.JobQueued},
		{"Running", "R", api.JobRunning},
		{"Done", "D", api.JobCompleted},
		{"Failed", "F", api.JobFailed},
	}
	if counts[api.JobCancelled] > 0 {
		tallies = append(tallies, tally{"Cancelled", "C", api.JobCancelled})
	}
	segments := make([]string, 0, len(tallies))
	for _, t := range tallies {
		label := t.label
		if compact {
			label = t.short
		}
		n := counts[t.state]
		valueStyle := styles.MutedText
		if n > 0 {
			valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(string(t.state))))
		}
		segments = append(segments, bg.Render(label+":", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", n), valueStyle))
	}
	parts = append(parts, strings.Join(segments, sep+bg.Render("•", styles.FaintText)+sep))

	if session := m.sessionLabel(); session != "" {
		style := styles.MutedText
		if m.sessionKnown && m.session.Sub(m.now()) < sessionWarnWithin {
			style = styles.WarningText
		}
		parts = append(parts, bg.Render("Session", styles.MutedText)+bg.Space()+bg.Render(session, style))
	}

	if ts := relativeTime(m.lastUpdated, m.now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.NeedsLogin {
		parts = append(parts, bg.Render("LOGIN REQUIRED", styles.DangerText.Bold(true))+bg.Space()+
			bg.Render("run seer login", styles.DangerText))
	} else if snap.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	if snap.LastError != nil && !snap.NeedsLogin {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(api.Message(snap.LastError), maxErr), styles.DangerText),
		)
	}

	if m.notice != "" {
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(m.notice, styles.WarningText),
		)
	}

	return bg.Join(parts, "  ")
}

func (m Model) sessionLabel() string {
	if !m.sessionKnown {
		return ""
	}
	return untilLabel(m.session, m.now())
}

// classifyError returns a short description of a poll failure.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case api.IsReauthRequired(err):
		return "LOGIN REQUIRED"
	case api.IsKind(err, api.KindNetwork):
		msg := err.Error()
		switch {
		case strings.Contains(msg, "no such host"):
			return "HOST NOT FOUND"
		case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
			return "TIMEOUT"
		default:
			return "OFFLINE"
		}
	case api.IsKind(err, api.KindNotFound):
		return "ORDER NOT FOUND"
	case api.IsKind(err, api.KindForbidden):
		return "FORBIDDEN"
	case api.IsKind(err, api.KindServer):
		return "SERVER ERROR"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.currentView {
	case ViewReport:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"esc", "Jobs"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Report"},
			{"c", "Cancel"},
			{"Tab", "Focus"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
