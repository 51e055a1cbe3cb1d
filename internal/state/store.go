package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/seer/internal/api"
)

// JobEntry is a job of the watched order together with its latest status.
type JobEntry struct {
	Job    api.Job
	Status *api.JobStatus
	// Err is the latest status fetch failure for this job alone.
	Err error
}

// State prefers the fetched status over the list payload.
func (e JobEntry) State() api.JobState {
	if e.Status != nil {
		return e.Status.State()
	}
	return e.Job.State()
}

// Progress returns the best known progress in 0..100.
func (e JobEntry) Progress() float64 {
	if e.Status != nil {
		return e.Status.Percent()
	}
	p := e.Job.Progress
	return (&api.JobStatus{Progress: &p}).Percent()
}

// Terminal reports whether the job finished.
func (e JobEntry) Terminal() bool {
	return e.State().Terminal()
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Order               api.Order
	HasOrder            bool
	Jobs                []JobEntry
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
	// NeedsLogin is set once the session is gone; polling has stopped.
	NeedsLogin bool
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Done reports whether every job of the order is terminal.
func (s Snapshot) Done() bool {
	if len(s.Jobs) == 0 {
		return false
	}
	for _, j := range s.Jobs {
		if !j.Terminal() {
			return false
		}
	}
	return true
}

// Counts tallies jobs by state.
func (s Snapshot) Counts() map[api.JobState]int {
	counts := make(map[api.JobState]int, 5)
	for _, j := range s.Jobs {
		counts[j.State()]++
	}
	return counts
}

// Progress averages the progress of all jobs.
func (s Snapshot) Progress() float64 {
	if len(s.Jobs) == 0 {
		return 0
	}
	var total float64
	for _, j := range s.Jobs {
		total += j.Progress()
	}
	return total / float64(len(s.Jobs))
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(order *api.Order, jobs []JobEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		if api.IsReauthRequired(err) {
			s.snapshot.NeedsLogin = true
		}
		return
	}

	s.snapshot.Jobs = cloneJobs(jobs)
	if order != nil {
		s.snapshot.Order = *order
		s.snapshot.HasOrder = true
	} else {
		s.snapshot.HasOrder = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	s.snapshot.NeedsLogin = false
}

// SetJobStatus records a status for one job without touching the rest, as
// after a cancel request.
func (s *Store) SetJobStatus(id api.ID, status api.JobStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot.Jobs {
		if s.snapshot.Jobs[i].Job.ID == id {
			st := status
			s.snapshot.Jobs[i].Status = &st
			s.snapshot.Jobs[i].Err = nil
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Jobs = cloneJobs(s.snapshot.Jobs)
	snap.Order.ExpertSystems = append([]api.ExpertSystem(nil), s.snapshot.Order.ExpertSystems...)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneJobs(items []JobEntry) []JobEntry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]JobEntry, len(items))
	copy(dup, items)
	for i := range dup {
		if dup[i].Status != nil {
			st := *dup[i].Status
			if st.Progress != nil {
				p := *st.Progress
				st.Progress = &p
			}
			dup[i].Status = &st
		}
	}
	return dup
}
