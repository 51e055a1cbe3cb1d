package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// ID is a backend identifier. The backend emits both numeric and string ids,
// so either form is accepted and kept as text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// ExpertSystem identifies one divination method offered by the backend.
type ExpertSystem string

const (
	ExpertBazi         ExpertSystem = "bazi"
	ExpertZiwei        ExpertSystem = "ziwei"
	ExpertAstrology    ExpertSystem = "astrology"
	ExpertNumerology   ExpertSystem = "numerology"
	ExpertPlumBlossom  ExpertSystem = "plum_blossom"
	ExpertQimen        ExpertSystem = "qimen"
	ExpertLiuyao       ExpertSystem = "liuyao"
	ExpertNameAnalysis ExpertSystem = "name_analysis"
)

// ExpertSystems lists every known expert system in display order.
func ExpertSystems() []ExpertSystem {
	return []ExpertSystem{
		ExpertBazi, ExpertZiwei, ExpertAstrology, ExpertNumerology,
		ExpertPlumBlossom, ExpertQimen, ExpertLiuyao, ExpertNameAnalysis,
	}
}

// Valid reports whether e is one of the known systems.
func (e ExpertSystem) Valid() bool {
	for _, known := range ExpertSystems() {
		if e == known {
			return true
		}
	}
	return false
}

var expertLabels = map[ExpertSystem]string{
	ExpertBazi:         "BaZi",
	ExpertZiwei:        "Zi Wei Dou Shu",
	ExpertAstrology:    "Astrology",
	ExpertNumerology:   "Numerology",
	ExpertPlumBlossom:  "Plum Blossom",
	ExpertQimen:        "Qi Men Dun Jia",
	ExpertLiuyao:       "Liu Yao",
	ExpertNameAnalysis: "Name Analysis",
}

// Label returns a human name for e, or e itself when unknown.
func (e ExpertSystem) Label() string {
	if l, ok := expertLabels[e]; ok {
		return l
	}
	return string(e)
}

// JobState is the lifecycle state of an analysis job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// NormalizeJobState folds backend spellings into the canonical states.
func NormalizeJobState(raw string) JobState {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "processing", "in_progress":
		return JobRunning
	case "canceled":
		return JobCancelled
	case "pending":
		return JobQueued
	default:
		return JobState(s)
	}
}

// Terminal reports whether no further transitions are expected.
func (s JobState) Terminal() bool {
	switch NormalizeJobState(string(s)) {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Profile is a person whose birth data feeds the analyses.
type Profile struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	BirthDate     string `json:"birth_date"`
	BirthTime     string `json:"birth_time"`
	BirthLocation string `json:"birth_location"`
	Gender        string `json:"gender"`
	Timezone      string `json:"timezone"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ProfileInput is the payload for creating or replacing a profile.
type ProfileInput struct {
	Name          string `json:"name"`
	BirthDate     string `json:"birth_date"`
	BirthTime     string `json:"birth_time"`
	BirthLocation string `json:"birth_location"`
	Gender        string `json:"gender"`
	Timezone      string `json:"timezone,omitempty"`
}

// ProfilePatch carries the fields to change in a partial update.
type ProfilePatch struct {
	Name          *string `json:"name,omitempty"`
	BirthDate     *string `json:"birth_date,omitempty"`
	BirthTime     *string `json:"birth_time,omitempty"`
	BirthLocation *string `json:"birth_location,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	Timezone      *string `json:"timezone,omitempty"`
}

// ExpertSystemInfo describes an expert system and its price.
type ExpertSystemInfo struct {
	ID            ExpertSystem `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	EstimatedTime int          `json:"estimated_time"`
}

// EstimatedDuration converts EstimatedTime (seconds) to a duration.
func (e ExpertSystemInfo) EstimatedDuration() time.Duration {
	return time.Duration(e.EstimatedTime) * time.Second
}

// Order groups the analyses purchased for one profile.
type Order struct {
	ID              ID             `json:"id"`
	ProfileID       ID             `json:"profile_id"`
	ExpertSystems   []ExpertSystem `json:"expert_systems"`
	TotalPrice      float64        `json:"total_price"`
	DiscountApplied float64        `json:"discount_applied"`
	Status          string         `json:"status"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// OrderInput creates an order.
type OrderInput struct {
	ProfileID     ID             `json:"profile_id"`
	ExpertSystems []ExpertSystem `json:"expert_systems"`
}

// PriceQuote is the backend's price calculation for a selection.
type PriceQuote struct {
	Total    float64 `json:"total"`
	Discount float64 `json:"discount"`
	Final    float64 `json:"final"`
}

// Job is one expert-system analysis inside an order.
type Job struct {
	ID           ID           `json:"id"`
	OrderID      ID           `json:"order_id"`
	ExpertSystem ExpertSystem `json:"expert_system"`
	Status       string       `json:"status"`
	Progress     float64      `json:"progress"`
	StartedAt    string       `json:"started_at,omitempty"`
	CompletedAt  string       `json:"completed_at,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// State returns the normalized job state.
func (j Job) State() JobState {
	return NormalizeJobState(j.Status)
}

// JobStatus is the lightweight payload of the status endpoint.
type JobStatus struct {
	JobID           ID       `json:"job_id"`
	Status          string   `json:"status"`
	Progress        *float64 `json:"progress,omitempty"`
	CurrentStep     string   `json:"current_step,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	ResultAvailable bool     `json:"result_available"`
	StartedAt       string   `json:"started_at,omitempty"`
	CompletedAt     string   `json:"completed_at,omitempty"`
}

// State returns the normalized job state.
func (s JobStatus) State() JobState {
	return NormalizeJobState(s.Status)
}

// Percent returns progress clamped to 0..100. Missing or NaN progress is 0.
func (s JobStatus) Percent() float64 {
	if s.Progress == nil {
		return 0
	}
	return clampPercent(*s.Progress)
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Report is the stored result of a completed job.
type Report struct {
	ID           ID           `json:"id"`
	JobID        ID           `json:"job_id"`
	ProfileID    ID           `json:"profile_id"`
	ExpertSystem ExpertSystem `json:"expert_system"`
	CreatedAt    string       `json:"created_at"`
}

// ReportContent carries the rendered report body.
type ReportContent struct {
	ReportID     ID             `json:"report_id"`
	ExpertSystem ExpertSystem   `json:"expert_system"`
	HTMLContent  string         `json:"html_content"`
	Metadata     ReportMetadata `json:"metadata"`
}

// ReportMetadata keeps the known keys and preserves the rest in Extra.
type ReportMetadata struct {
	GeneratedAt string         `json:"generated_at"`
	Version     string         `json:"version"`
	Extra       map[string]any `json:"-"`
}

func (m *ReportMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ReportMetadata{}
	if v, ok := raw["generated_at"].(string); ok {
		m.GeneratedAt = v
	}
	if v, ok := raw["version"].(string); ok {
		m.Version = v
	}
	delete(raw, "generated_at")
	delete(raw, "version")
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// User is the authenticated account.
type User struct {
	ID         ID     `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DateJoined string `json:"date_joined"`
}

// DisplayName prefers the full name over the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// ParseTime parses the backend's RFC 3339 timestamps, returning the zero
// time for empty or malformed values.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
