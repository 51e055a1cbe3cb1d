package logtail

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Entry is one decoded line of seer's JSON log file.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  map[string]any
}

var reservedKeys = map[string]bool{
	"ts":     true,
	"level":  true,
	"logger": true,
	"msg":    true,
	"caller": true,
}

// Parse decodes a zap JSON log line. ok is false for anything that isn't a
// JSON object, so plain lines can be shown as-is.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{
		Level:   stringField(raw, "level"),
		Logger:  stringField(raw, "logger"),
		Message: stringField(raw, "msg"),
	}
	entry.Time = parseTimestamp(raw["ts"])
	for key, value := range raw {
		if reservedKeys[key] {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		entry.Fields[key] = value
	}
	return entry, true
}

// Format renders entry as a header line followed by one indented detail line
// per structured field, sorted by key.
func Format(entry Entry) string {
	parts := make([]string, 0, 3)
	if !entry.Time.IsZero() {
		parts = append(parts, entry.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	level := strings.ToUpper(strings.TrimSpace(entry.Level))
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if logger := strings.TrimSpace(entry.Logger); logger != "" {
		parts = append(parts, "["+logger+"]")
	}
	header := strings.Join(parts, " ")
	if msg := strings.TrimSpace(entry.Message); msg != "" {
		header += " – " + msg
	}
	if len(entry.Fields) == 0 {
		return header
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(header)
	for _, k := range keys {
		b.WriteString("\n    - ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fieldString(entry.Fields[k]))
	}
	return b.String()
}

// FormatLines converts raw log lines for display, leaving non-JSON lines
// untouched.
func FormatLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if entry, ok := Parse(line); ok {
			out = append(out, Format(entry))
			continue
		}
		out = append(out, line)
	}
	return out
}

// Palette colors formatted log text.
type Palette struct {
	Timestamp lipgloss.Style
	Logger    lipgloss.Style
	Separator lipgloss.Style
	Detail    lipgloss.Style
	Levels    map[string]lipgloss.Style
}

// DefaultPalette suits dark terminal backgrounds.
func DefaultPalette() Palette {
	return Palette{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Logger:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0")),
		Levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// Colorize styles a formatted entry. Header pieces and detail lines are
// styled separately so multi-line entries keep their indentation.
func (p Palette) Colorize(entry Entry) string {
	lines := strings.Split(Format(entry), "\n")
	head := lines[0]

	var b strings.Builder
	if !entry.Time.IsZero() {
		ts := entry.Time.In(time.Local).Format("2006-01-02 15:04:05")
		b.WriteString(p.Timestamp.Render(ts))
		b.WriteString(" ")
		head = strings.TrimPrefix(head, ts+" ")
	}

	level, rest, _ := strings.Cut(head, " ")
	if style, ok := p.Levels[level]; ok {
		b.WriteString(style.Render(level))
	} else {
		b.WriteString(level)
	}

	if logger := strings.TrimSpace(entry.Logger); logger != "" {
		tag := "[" + logger + "]"
		if after, found := strings.CutPrefix(rest, tag); found {
			b.WriteString(" ")
			b.WriteString(p.Logger.Render(tag))
			rest = strings.TrimPrefix(after, " ")
		}
	}
	if msg, found := strings.CutPrefix(rest, "– "); found {
		b.WriteString(" ")
		b.WriteString(p.Separator.Render("–"))
		b.WriteString(" ")
		b.WriteString(msg)
	} else if rest != "" {
		b.WriteString(" ")
		b.WriteString(rest)
	}

	for _, detail := range lines[1:] {
		b.WriteString("\n    - ")
		b.WriteString(p.Detail.Render(strings.TrimPrefix(detail, "    - ")))
	}
	return b.String()
}

// ColorizeLines parses and styles raw log lines.
func (p Palette) ColorizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if entry, ok := Parse(line); ok {
			out = append(out, p.Colorize(entry))
			continue
		}
		out = append(out, line)
	}
	return out
}

// MatchLevel reports whether entry is at or above min. An empty min matches
// everything.
func MatchLevel(entry Entry, min string) bool {
	if strings.TrimSpace(min) == "" {
		return true
	}
	return levelRank(entry.Level) >= levelRank(min)
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "info", "":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 4
	}
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// parseTimestamp accepts zap's epoch seconds as well as ISO8601 strings.
func parseTimestamp(v any) time.Time {
	switch ts := v.(type) {
	case float64:
		sec, frac := math.Modf(ts)
		return time.Unix(int64(sec), int64(frac*1e9))
	case string:
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fieldString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
