package ui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/prefs"
	"github.com/five82/seer/internal/state"
)

type fakeBackend struct {
	mu        sync.Mutex
	cancelled []api.ID
	cancelErr error
	reports   map[api.ID][]api.Report
	content   map[api.ID]*api.ReportContent
}

func (f *fakeBackend) CancelJob(_ context.Context, id api.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr
}

func (f *fakeBackend) JobStatus(_ context.Context, id api.ID) (*api.JobStatus, error) {
	return nil, errors.New("status not ready")
}

func (f *fakeBackend) JobReports(_ context.Context, jobID api.ID) ([]api.Report, error) {
	return f.reports[jobID], nil
}

func (f *fakeBackend) ReportContent(_ context.Context, id api.ID) (*api.ReportContent, error) {
	c, ok := f.content[id]
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Status: 404, Detail: "Not found."}
	}
	return c, nil
}

func pct(v float64) *float64 { return &v }

func testStore() *state.Store {
	store := &state.Store{}
	store.Update(&api.Order{ID: "o1"}, []state.JobEntry{
		{Job: api.Job{ID: "j1", ExpertSystem: api.ExpertBazi, Status: "completed"}},
		{Job: api.Job{ID: "j2", ExpertSystem: api.ExpertZiwei, Status: "running"}, Status: &api.JobStatus{JobID: "j2", Status: "running", Progress: pct(40)}},
		{Job: api.Job{ID: "j3", ExpertSystem: api.ExpertAstrology, Status: "queued"}},
	}, nil)
	return store
}

func newTestModel(t *testing.T, store *state.Store, backend Backend) Model {
	t.Helper()
	m := New(Options{
		Store:     store,
		Backend:   backend,
		OrderID:   "o1",
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return update(t, m, snapshotMsg(store.Snapshot()))
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_SortsRunningFirstAndKeepsSelection(t *testing.T) {
	store := testStore()
	m := newTestModel(t, store, &fakeBackend{})

	jobs := m.sortedJobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, api.ID("j2"), jobs[0].Job.ID)
	assert.Equal(t, api.ID("j3"), jobs[1].Job.ID)
	assert.Equal(t, api.ID("j1"), jobs[2].Job.ID)

	m, _ = press(t, m, "j")
	require.Equal(t, api.ID("j3"), m.selectedJob().Job.ID)

	// j2 finishes and sinks below j3; the selection stays on j3.
	store.SetJobStatus("j2", api.JobStatus{JobID: "j2", Status: "completed"})
	m = update(t, m, snapshotMsg(store.Snapshot()))
	assert.Equal(t, 0, m.selectedRow)
	assert.Equal(t, api.ID("j3"), m.selectedJob().Job.ID)

	m, _ = press(t, m, "G")
	assert.Equal(t, 2, m.selectedRow)
	m, _ = press(t, m, "g")
	assert.Equal(t, 0, m.selectedRow)
}

func TestModel_CancelAsksThenUpdatesStore(t *testing.T) {
	store := testStore()
	backend := &fakeBackend{}
	m := newTestModel(t, store, backend)

	m, _ = press(t, m, "c")
	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "Cancel job?")

	m, cmd := press(t, m, "y")
	assert.Nil(t, m.modal)
	require.NotNil(t, cmd)

	msg := cmd()
	result, ok := msg.(cancelResultMsg)
	require.True(t, ok)
	assert.Equal(t, []api.ID{"j2"}, backend.cancelled)

	m = update(t, m, result)
	assert.Contains(t, m.notice, "cancelled")
	for _, e := range store.Snapshot().Jobs {
		if e.Job.ID == "j2" {
			assert.Equal(t, api.JobCancelled, e.State())
		}
	}
}

func TestModel_CancelDeclined(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, testStore(), backend)

	m, _ = press(t, m, "c")
	m, cmd := press(t, m, "n")
	assert.Nil(t, m.modal)
	assert.Nil(t, cmd)
	assert.Empty(t, backend.cancelled)
}

func TestModel_CancelFailureShowsMessage(t *testing.T) {
	backend := &fakeBackend{cancelErr: &api.Error{Kind: api.KindForbidden, Status: 403, Detail: "Job already finished"}}
	m := newTestModel(t, testStore(), backend)

	m, _ = press(t, m, "c")
	_, cmd := press(t, m, "y")
	m = update(t, m, cmd())
	assert.Equal(t, "cancel failed: Job already finished", m.notice)
}

func TestModel_TerminalJobCannotBeCancelled(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	m, _ = press(t, m, "G") // completed job sorts last
	m, _ = press(t, m, "c")
	assert.Nil(t, m.modal)
	assert.Equal(t, "job already completed", m.notice)
}

func TestModel_ReportNeedsCompletedJob(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, ViewJobs, m.currentView)
	assert.NotEmpty(t, m.notice)
}

func TestModel_OpensReport(t *testing.T) {
	backend := &fakeBackend{
		reports: map[api.ID][]api.Report{"j1": {{ID: "r1", JobID: "j1", ExpertSystem: api.ExpertBazi}}},
		content: map[api.ID]*api.ReportContent{"r1": {ReportID: "r1", ExpertSystem: api.ExpertBazi, HTMLContent: "<p>Fire</p>"}},
	}
	m := newTestModel(t, testStore(), backend)

	m, _ = press(t, m, "G")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, ViewReport, m.currentView)
	assert.True(t, m.report.loading)

	m = update(t, m, cmd())
	assert.False(t, m.report.loading)
	require.NoError(t, m.report.err)
	assert.Contains(t, m.reportViewport.View(), "Fire")

	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewJobs, m.currentView)
}

func TestModel_ReportErrorsAndStaleResults(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	m, _ = press(t, m, "G")
	m, cmd := press(t, m, "enter")

	stale := update(t, m, reportMsg{jobID: "other", err: errors.New("boom")})
	assert.True(t, stale.report.loading)

	m = update(t, m, cmd())
	assert.ErrorIs(t, m.report.err, errNoReport)
	assert.Contains(t, m.View(), "no report for this job yet")
}

func TestModel_ThemeCycleIsSaved(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	m, _ = press(t, m, "T")
	assert.Equal(t, "Kanagawa", m.theme.Name)

	p, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", p.Theme)
}

func TestModel_HelpClosesOnAnyKey(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(t, m, "x")
	assert.False(t, m.showHelp)
}

func TestModel_ViewShowsOrderAndLoginBanner(t *testing.T) {
	store := testStore()
	m := newTestModel(t, store, &fakeBackend{})
	view := m.View()
	assert.Contains(t, view, "#o1")
	assert.Contains(t, view, "Zi Wei Dou Shu")

	store.Update(nil, nil, api.ErrReauthRequired)
	m = update(t, m, tea.WindowSizeMsg{Width: 220, Height: 40})
	m = update(t, m, snapshotMsg(store.Snapshot()))
	assert.Contains(t, m.View(), "LOGIN REQUIRED")
}

func TestModel_QuitKeys(t *testing.T) {
	m := newTestModel(t, testStore(), &fakeBackend{})
	_, cmd := press(t, m, "e")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "LOGIN REQUIRED", classifyError(api.ErrReauthRequired))
	assert.Equal(t, "OFFLINE", classifyError(&api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}))
	assert.Equal(t, "ORDER NOT FOUND", classifyError(&api.Error{Kind: api.KindNotFound, Status: 404}))
	assert.Equal(t, "ERROR", classifyError(errors.New("weird")))
}
