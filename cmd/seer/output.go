package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/seer/internal/api"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C8F8F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#81B29A"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DBC074"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C94F6D"))
)

// stateStyles colors a job state the same way the dashboard does.
var stateStyles = map[api.JobState]lipgloss.Style{
	api.JobQueued:    warnStyle,
	api.JobRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#719CD6")),
	api.JobCompleted: okStyle,
	api.JobFailed:    errStyle,
	api.JobCancelled: labelStyle,
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, labelStyle.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// renderFields prints aligned "label  value" lines, skipping empty values.
func renderFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			continue
		}
		label := labelStyle.Render(fmt.Sprintf("%-*s", width, f[0]))
		fmt.Fprintf(w, "%s  %s\n", label, f[1])
	}
}

func styledState(raw string) string {
	st := api.NormalizeJobState(raw)
	if style, ok := stateStyles[st]; ok {
		return style.Render(string(st))
	}
	return string(st)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func formatTime(raw string) string {
	t := api.ParseTime(raw)
	if t.IsZero() {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Minute).String()
}

func expertList(systems []api.ExpertSystem) string {
	labels := make([]string, len(systems))
	for i, s := range systems {
		labels[i] = s.Label()
	}
	return strings.Join(labels, ", ")
}

// parseExperts accepts ids separated by commas or repeated flags.
func parseExperts(values []string) ([]api.ExpertSystem, error) {
	var out []api.ExpertSystem
	seen := make(map[api.ExpertSystem]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			id := api.ExpertSystem(strings.ToLower(strings.TrimSpace(part)))
			if id == "" || seen[id] {
				continue
			}
			if !id.Valid() {
				return nil, fmt.Errorf("unknown expert system %q (see seer experts)", part)
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("select at least one expert system")
	}
	return out, nil
}
