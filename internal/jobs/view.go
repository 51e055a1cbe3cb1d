package jobs

import (
	"time"

	"github.com/five82/seer/internal/api"
)

// View is what a poller currently knows about its job.
type View struct {
	JobID api.ID
	// Status is the last successfully fetched payload, nil before the first.
	Status *api.JobStatus
	// Err is the failure of the latest poll cycle. It is cleared by the next
	// successful fetch and never changes the job state.
	Err error
	// Polling reports whether further fetches are scheduled.
	Polling   bool
	Fetches   int
	UpdatedAt time.Time
}

// State returns the normalized job state, empty before the first fetch.
func (v View) State() api.JobState {
	if v.Status == nil {
		return ""
	}
	return v.Status.State()
}

// Progress returns the job progress in 0..100, 0 when unknown.
func (v View) Progress() float64 {
	if v.Status == nil {
		return 0
	}
	return v.Status.Percent()
}

func (v View) IsQueued() bool    { return v.State() == api.JobQueued }
func (v View) IsRunning() bool   { return v.State() == api.JobRunning }
func (v View) IsCompleted() bool { return v.State() == api.JobCompleted }
func (v View) IsFailed() bool    { return v.State() == api.JobFailed }
func (v View) IsCancelled() bool { return v.State() == api.JobCancelled }

// IsTerminal reports whether the job reached a final state.
func (v View) IsTerminal() bool {
	return v.State().Terminal()
}

func (v View) clone() View {
	if v.Status != nil {
		s := *v.Status
		if s.Progress != nil {
			p := *s.Progress
			s.Progress = &p
		}
		v.Status = &s
	}
	return v
}
