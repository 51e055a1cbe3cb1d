package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if lines != nil {
		t.Fatalf("Read() = %v, want nil", lines)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 10, 8, 21, 1, 5, 0, time.Local)
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "bare message",
			entry: Entry{Message: "hello"},
			want:  "INFO – hello",
		},
		{
			name:  "logger and fields",
			entry: Entry{Time: ts, Level: "warn", Logger: "seer.api", Message: "request rejected", Fields: map[string]any{"status": float64(403), "path": "/api/orders/"}},
			want:  "2025-10-08 21:01:05 WARN [seer.api] – request rejected\n    - path: /api/orders/\n    - status: 403",
		},
		{
			name:  "nested field",
			entry: Entry{Level: "info", Message: "validation", Fields: map[string]any{"fields": map[string]any{"name": []any{"required"}}}},
			want:  "INFO – validation\n    - fields: {\"name\":[\"required\"]}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.entry); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"error","ts":1759957265.5,"logger":"seer.jobs","msg":"status fetch failed","job":"j1"}`
	entry, ok := Parse(line)
	if !ok {
		t.Fatalf("Parse() ok = false")
	}
	if entry.Level != "error" || entry.Logger != "seer.jobs" || entry.Message != "status fetch failed" {
		t.Fatalf("Parse() = %#v", entry)
	}
	if entry.Time.Unix() != 1759957265 || entry.Time.Nanosecond() != 500000000 {
		t.Fatalf("Parse() time = %v", entry.Time)
	}
	if entry.Fields["job"] != "j1" || len(entry.Fields) != 1 {
		t.Fatalf("Parse() fields = %#v", entry.Fields)
	}

	iso, ok := Parse(`{"level":"info","ts":"2025-10-08T21:01:05.000Z","msg":"x"}`)
	if !ok || iso.Time.UTC().Hour() != 21 {
		t.Fatalf("Parse() iso time = %v", iso.Time)
	}

	for _, plain := range []string{"", "plain text", "{broken"} {
		if _, ok := Parse(plain); ok {
			t.Fatalf("Parse(%q) ok = true, want false", plain)
		}
	}
}

func TestFormatLines_KeepsPlainLines(t *testing.T) {
	got := FormatLines([]string{"panic: boom", `{"level":"info","msg":"started"}`})
	want := []string{"panic: boom", "INFO – started"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FormatLines() = %q, want %q", got, want)
	}
}

func TestColorize_PlainPaletteMatchesFormat(t *testing.T) {
	plain := lipgloss.NewStyle()
	p := Palette{Timestamp: plain, Logger: plain, Separator: plain, Detail: plain}
	entry := Entry{
		Time:    time.Date(2025, 10, 8, 21, 1, 5, 0, time.Local),
		Level:   "debug",
		Logger:  "seer.api",
		Message: "refreshing token",
		Fields:  map[string]any{"waiters": float64(3)},
	}
	if got, want := p.Colorize(entry), Format(entry); got != want {
		t.Fatalf("Colorize() = %q, want %q", got, want)
	}
}

func TestMatchLevel(t *testing.T) {
	if !MatchLevel(Entry{Level: "debug"}, "") {
		t.Fatalf("empty minimum should match everything")
	}
	if MatchLevel(Entry{Level: "info"}, "warn") {
		t.Fatalf("info should not pass warn filter")
	}
	if !MatchLevel(Entry{Level: "error"}, "warn") {
		t.Fatalf("error should pass warn filter")
	}
}
