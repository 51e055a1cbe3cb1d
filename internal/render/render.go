// Package render turns sanitized report HTML into terminal output.
//
// Reports arrive as HTML. Markdown converts the sanitized HTML into Markdown
// with html-to-markdown, and Report hands that to glamour for styled,
// word-wrapped terminal text. Document alone skips glamour for pipes and dumb terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/five82/seer/internal/api"
)

const defaultWidth = 80

// Options control Report output.
type Options struct {
	// Width wraps text; zero uses 80 columns.
	Width int
	// Style is a glamour standard style name such as "dark", "light" or
	// "notty". Empty uses "dark".
	Style string
}

// Report renders a report's content with a title line built from its expert
// system and metadata.
func Report(content *api.ReportContent, opts Options) (string, error) {
	if content == nil {
		return "", fmt.Errorf("render report: no content")
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	style := strings.TrimSpace(opts.Style)
	if style == "" {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("init renderer: %w", err)
	}
	doc, err := Document(content)
	if err != nil {
		return "", err
	}
	out, err := r.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

// Document builds the full Markdown document for a report.
func Document(content *api.ReportContent) (string, error) {
	if content == nil {
		return "", fmt.Errorf("render report: no content")
	}
	body, err := Markdown(content.HTMLContent)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(content.ExpertSystem.Label())
	b.WriteString(" report\n\n")

	var meta []string
	if at := api.ParseTime(content.Metadata.GeneratedAt); !at.IsZero() {
		meta = append(meta, "generated "+at.Local().Format("2006-01-02 15:04"))
	}
	if v := strings.TrimSpace(content.Metadata.Version); v != "" {
		meta = append(meta, "version "+v)
	}
	if len(meta) > 0 {
		b.WriteString("_")
		b.WriteString(strings.Join(meta, ", "))
		b.WriteString("_\n\n")
	}

	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}
