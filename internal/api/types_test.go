package api

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestNormalizeJobState(t *testing.T) {
	tests := []struct {
		raw      string
		want     JobState
		terminal bool
	}{
		{"queued", JobQueued, false},
		{"pending", JobQueued, false},
		{"running", JobRunning, false},
		{" Processing ", JobRunning, false},
		{"completed", JobCompleted, true},
		{"failed", JobFailed, true},
		{"canceled", JobCancelled, true},
		{"cancelled", JobCancelled, true},
		{"mystery", JobState("mystery"), false},
	}
	for _, tt := range tests {
		got := NormalizeJobState(tt.raw)
		if got != tt.want {
			t.Fatalf("NormalizeJobState(%q) = %q, want %q", tt.raw, got, tt.want)
		}
		if got.Terminal() != tt.terminal {
			t.Fatalf("%q.Terminal() = %v, want %v", got, got.Terminal(), tt.terminal)
		}
	}
}

func TestJobStatus_PercentDefaultsAndClamps(t *testing.T) {
	pct := func(v float64) *float64 { return &v }
	tests := []struct {
		progress *float64
		want     float64
	}{
		{nil, 0},
		{pct(45), 45},
		{pct(-3), 0},
		{pct(140), 100},
		{pct(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := (JobStatus{Progress: tt.progress}).Percent(); got != tt.want {
			t.Fatalf("Percent(%v) = %v, want %v", tt.progress, got, tt.want)
		}
	}

	var s JobStatus
	if err := json.Unmarshal([]byte(`{"job_id":12,"status":"queued"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.JobID != "12" || s.Progress != nil || s.Percent() != 0 {
		t.Fatalf("decoded %#v, want numeric id and absent progress", s)
	}
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Fatalf("expected error for object id")
	}
	if err := json.Unmarshal([]byte(`null`), &id); err != nil || id != "" {
		t.Fatalf("null id = %q, %v", id, err)
	}
}

func TestParseTime(t *testing.T) {
	if got := ParseTime("2024-03-01T10:20:30.123456Z"); got.Year() != 2024 || got.Nanosecond() == 0 {
		t.Fatalf("ParseTime fractional = %v", got)
	}
	if got := ParseTime("2024-03-01"); got.Day() != 1 {
		t.Fatalf("ParseTime date = %v", got)
	}
	if !ParseTime("yesterday").IsZero() || !ParseTime("").IsZero() {
		t.Fatalf("ParseTime should return zero for invalid input")
	}
}

func TestValidateBirthDate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		ok    bool
	}{
		{"1990-01-31", true},
		{"1875-01-01", true},
		{"1874-12-31", false},
		{"2025-06-16", false},
		{"31/01/1990", false},
	}
	for _, tt := range tests {
		err := ValidateBirthDate(tt.value, now)
		if (err == nil) != tt.ok {
			t.Fatalf("ValidateBirthDate(%q) error = %v, want ok=%v", tt.value, err, tt.ok)
		}
	}
}

func TestValidateBirthTime(t *testing.T) {
	for _, v := range []string{"00:00", "9:05", "23:59"} {
		if err := ValidateBirthTime(v); err != nil {
			t.Fatalf("ValidateBirthTime(%q) = %v", v, err)
		}
	}
	for _, v := range []string{"24:00", "12:60", "noon", ""} {
		if err := ValidateBirthTime(v); err == nil {
			t.Fatalf("ValidateBirthTime(%q) = nil, want error", v)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := map[string]string{
		"Sh0rt":         "Password must be at least 8 characters",
		"alllower123":   "Password must contain at least one uppercase letter",
		"ALLUPPER123":   "Password must contain at least one lowercase letter",
		"NoDigitsHere":  "Password must contain at least one number",
		"Good1Password": "",
	}
	for pw, want := range tests {
		err := ValidatePassword(pw)
		if want == "" {
			if err != nil {
				t.Fatalf("ValidatePassword(%q) = %v", pw, err)
			}
			continue
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Fields["password"][0] != want {
			t.Fatalf("ValidatePassword(%q) = %v, want %q", pw, err, want)
		}
	}
}

func TestMessage_PrefersDetail(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("Message(nil) should be empty")
	}
	plain := errors.New("dial tcp: refused")
	if Message(plain) != "dial tcp: refused" {
		t.Fatalf("Message(plain) = %q", Message(plain))
	}
	detail := statusError("GET", "/x", 403, []byte(`{"message":"first","detail":"second"}`))
	if Message(detail) != "first" {
		t.Fatalf("Message = %q, want message before detail", Message(detail))
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Fire &amp; <em>water</em></p><script>x</script>")
	if got != "Fire & water" {
		t.Fatalf("StripHTML = %q", got)
	}
}
