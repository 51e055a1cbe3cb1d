package ui

import "testing"

func TestThemeLookups(t *testing.T) {
	th := GetTheme("Nightfox")

	if got := th.StatusColor("  Failed "); got != th.StatusColors["failed"] {
		t.Fatalf("StatusColor = %q, want %q", got, th.StatusColors["failed"])
	}
	if got := th.StatusColor("unknown"); got != th.Muted {
		t.Fatalf("StatusColor unknown = %q, want %q", got, th.Muted)
	}
}

func TestThemesCoverJobStates(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, st := range []string{"queued", "running", "completed", "failed", "cancelled"} {
			if th.StatusColors[st] == "" {
				t.Fatalf("theme %s has no color for %s", name, st)
			}
		}
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestWithBackground_KeepsStatusFallback(t *testing.T) {
	styles := GetTheme("Slate").Styles().WithBackground("#000000")
	if styles.muted == "" || styles.statusColors == nil {
		t.Fatalf("WithBackground dropped internal fields: %#v", styles)
	}
}
