package state

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/five82/seer/internal/api"
)

func pct(v float64) *float64 { return &v }

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	order := &api.Order{ID: "o1", ExpertSystems: []api.ExpertSystem{api.ExpertBazi}}
	jobs := []JobEntry{
		{Job: api.Job{ID: "j1", Status: "running"}, Status: &api.JobStatus{Status: "running", Progress: pct(40)}},
		{Job: api.Job{ID: "j2", Status: "queued"}},
	}

	before := time.Now()
	s.Update(order, jobs, nil)

	snap := s.Snapshot()
	if !snap.HasOrder || snap.Order.ID != "o1" {
		t.Fatalf("snapshot order = %#v, want o1 HasOrder=true", snap.Order)
	}
	if len(snap.Jobs) != 2 || snap.Jobs[0].Job.ID != "j1" {
		t.Fatalf("snapshot jobs = %#v, want 2 items", snap.Jobs)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Jobs[0].Job.ID = "mutated"
	*snap.Jobs[0].Status.Progress = 99
	snap.Order.ExpertSystems[0] = api.ExpertQimen
	snap2 := s.Snapshot()
	if snap2.Jobs[0].Job.ID != "j1" || snap2.Jobs[0].Progress() != 40 {
		t.Fatalf("Snapshot should deep-clone jobs; got %#v", snap2.Jobs[0])
	}
	if snap2.Order.ExpertSystems[0] != api.ExpertBazi {
		t.Fatalf("Snapshot should clone order systems")
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(&api.Order{ID: "o1"}, []JobEntry{{Job: api.Job{ID: "j1"}}}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, nil, origErr)

	snap := s.Snapshot()
	if snap.HasOrder != prev.HasOrder || snap.Order.ID != prev.Order.ID {
		t.Fatalf("order changed on error: got %#v want %#v", snap.Order, prev.Order)
	}
	if len(snap.Jobs) != 1 || snap.Jobs[0].Job.ID != "j1" {
		t.Fatalf("jobs changed on error: got %#v want %#v", snap.Jobs, prev.Jobs)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if snap.NeedsLogin {
		t.Fatalf("plain errors must not require login")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	for i := 1; i <= 3; i++ {
		s.Update(nil, nil, fmt.Errorf("fail %d", i))
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if want := i >= 2; snap.IsOffline() != want {
			t.Fatalf("IsOffline() = %v after %d failures, want %v", snap.IsOffline(), i, want)
		}
	}

	// Success resets counter
	s.Update(&api.Order{ID: "o1"}, nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_ReauthMarksNeedsLogin(t *testing.T) {
	var s Store
	s.Update(nil, nil, fmt.Errorf("%w: refresh failed", api.ErrReauthRequired))
	if !s.Snapshot().NeedsLogin {
		t.Fatalf("NeedsLogin = false, want true")
	}
	s.Update(&api.Order{}, nil, nil)
	if s.Snapshot().NeedsLogin {
		t.Fatalf("NeedsLogin should reset after a successful poll")
	}
}

func TestSnapshot_DoneAndCounts(t *testing.T) {
	snap := Snapshot{}
	if snap.Done() {
		t.Fatalf("empty order should not be done")
	}

	snap.Jobs = []JobEntry{
		{Job: api.Job{Status: "running", Progress: 50}, Status: &api.JobStatus{Status: "completed", Progress: pct(100)}},
		{Job: api.Job{Status: "failed"}},
		{Job: api.Job{Status: "processing", Progress: 20}},
	}
	if snap.Done() {
		t.Fatalf("Done() = true with a running job")
	}
	counts := snap.Counts()
	if counts[api.JobCompleted] != 1 || counts[api.JobFailed] != 1 || counts[api.JobRunning] != 1 {
		t.Fatalf("Counts = %v", counts)
	}
	if got := snap.Progress(); got != 40 {
		t.Fatalf("Progress = %v, want 40", got)
	}

	snap.Jobs[2].Status = &api.JobStatus{Status: "cancelled"}
	if !snap.Done() {
		t.Fatalf("Done() = false with all jobs terminal")
	}
}

func TestStore_SetJobStatus(t *testing.T) {
	var s Store
	s.Update(&api.Order{ID: "o1"}, []JobEntry{{Job: api.Job{ID: "j1", Status: "running"}}}, nil)

	if !s.SetJobStatus("j1", api.JobStatus{JobID: "j1", Status: "cancelled"}) {
		t.Fatalf("SetJobStatus(j1) = false")
	}
	if s.SetJobStatus("nope", api.JobStatus{}) {
		t.Fatalf("SetJobStatus(unknown) = true")
	}
	if st := s.Snapshot().Jobs[0].State(); st != api.JobCancelled {
		t.Fatalf("state = %q, want cancelled", st)
	}
}
