package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/prefs"
	"github.com/five82/seer/internal/state"
	"github.com/five82/seer/internal/tokens"
)

// View represents the current active view.
type View int

const (
	ViewJobs View = iota
	ViewReport
)

const sessionCheckEvery = 30 * time.Second

// Backend is the slice of the API client the dashboard calls directly. Job
// polling itself happens outside the UI and arrives through the store.
type Backend interface {
	CancelJob(ctx context.Context, id api.ID) error
	JobStatus(ctx context.Context, id api.ID) (*api.JobStatus, error)
	JobReports(ctx context.Context, jobID api.ID) ([]api.Report, error)
	ReportContent(ctx context.Context, id api.ID) (*api.ReportContent, error)
}

var _ Backend = (*api.Client)(nil)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	Store     *state.Store
	Tokens    tokens.Store // optional, shows session expiry
	OrderID   api.ID
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	backend   Backend
	store     *state.Store
	tokens    tokens.Store
	orderID   api.ID
	prefsPath string
	pollTick  time.Duration
	log       *zap.Logger
	keys      keyMap
	now       func() time.Time

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	focusedPane int // 0 = table, 1 = detail
	showHelp    bool
	modal       Modal
	notice      string
	spinner     spinner.Model

	// Data state
	snapshot     state.Snapshot
	lastUpdated  time.Time
	selectedRow  int
	session      time.Time
	sessionKnown bool
	sessionCheck time.Time

	detailViewport viewport.Model
	reportViewport viewport.Model
	report         reportState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return Model{
		ctx:         ctx,
		backend:     opts.Backend,
		store:       opts.Store,
		tokens:      opts.Tokens,
		orderID:     opts.OrderID,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		log:         log.Named("ui"),
		keys:        DefaultKeyMap(),
		now:         time.Now,
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewJobs,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
		m.sessionCmd(),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detailViewport = viewport.New(0, 0)
			m.reportViewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resizeViewports()
		m.updateJobTable(m.selectedID())
		m.updateDetailViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		selected := m.selectedID()
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.snapshot.LastUpdated
		m.updateJobTable(selected)
		m.updateDetailViewport()
		return m, nil

	case sessionMsg:
		m.session, m.sessionKnown = msg.expires, msg.ok
		return m, nil

	case cancelResultMsg:
		return m.handleCancelResult(msg)

	case reportMsg:
		m.handleReport(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.log.Warn("save theme failed", zap.Error(err))
		}
		m.updateDetailViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewJobs
		m.notice = ""
		return m, nil
	}

	switch m.currentView {
	case ViewReport:
		return m.handleReportKey(msg)
	default:
		return m.handleJobsKey(msg)
	}
}

// handleJobsKey processes keyboard input for the job table and detail pane.
func (m Model) handleJobsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = 1 - m.focusedPane
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case key.Matches(msg, m.keys.OpenReport):
		entry := m.selectedJob()
		if entry == nil {
			return m, nil
		}
		if entry.State() != api.JobCompleted {
			m.notice = "report available once the job completes"
			return m, nil
		}
		m.notice = ""
		m.currentView = ViewReport
		m.report = reportState{jobID: entry.Job.ID, system: entry.Job.ExpertSystem, loading: true}
		m.reportViewport.SetContent("")
		return m, m.loadReportCmd(entry.Job, m.reportViewport.Width)

	case key.Matches(msg, m.keys.CancelJob):
		entry := m.selectedJob()
		if entry == nil {
			return m, nil
		}
		if entry.Terminal() {
			m.notice = "job already " + string(entry.State())
			return m, nil
		}
		m.modal = cancelModal{job: entry.Job, cancel: m.cancelJobCmd}
		return m, nil
	}

	if m.focusedPane == 1 {
		var cmd tea.Cmd
		switch {
		case key.Matches(msg, m.keys.Top):
			m.detailViewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.detailViewport.GotoBottom()
		default:
			m.detailViewport, cmd = m.detailViewport.Update(msg)
		}
		return m, cmd
	}

	count := len(m.sortedJobs())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow = min(count-1, m.selectedRow+max(1, m.contentHeight()/2))
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow = max(0, m.selectedRow-max(1, m.contentHeight()/2))
	}
	m.updateDetailViewport()
	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if now := m.now(); now.Sub(m.sessionCheck) >= sessionCheckEvery {
		m.sessionCheck = now
		cmds = append(cmds, m.sessionCmd())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) handleCancelResult(msg cancelResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = "cancel failed: " + api.Message(msg.err)
		return m, nil
	}
	m.notice = "job #" + msg.id.String() + " cancelled"
	if m.store != nil && msg.status != nil {
		m.store.SetJobStatus(msg.id, *msg.status)
		return m, fetchSnapshotCmd(m.store)
	}
	return m, nil
}

// contentHeight is the height below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

func (m *Model) resizeViewports() {
	_, detailWidth := m.paneWidths()
	inner := m.contentHeight() - 2
	m.detailViewport.Width = max(detailWidth-4, 10)
	m.detailViewport.Height = max(inner, 1)
	m.reportViewport.Width = max(m.width-4, 20)
	m.reportViewport.Height = max(inner, 1)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var content string
	switch m.currentView {
	case ViewReport:
		content = m.renderReport()
	default:
		content = m.renderJobs()
	}
	return m.renderHeader() + "\n" + m.renderCommandBar() + "\n" + content
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type sessionMsg struct {
	expires time.Time
	ok      bool
}

type cancelResultMsg struct {
	id     api.ID
	status *api.JobStatus
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) sessionCmd() tea.Cmd {
	store, ctx := m.tokens, m.ctx
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		pair, err := store.Tokens(ctx)
		if err != nil {
			return sessionMsg{}
		}
		exp, ok := tokens.ExpiresAt(pair.Access)
		return sessionMsg{expires: exp, ok: ok}
	}
}

// cancelJobCmd cancels id and reads back its status. The backend may answer
// the cancel before the status endpoint reflects it, so a failed read falls
// back to a local cancelled status.
func (m Model) cancelJobCmd(id api.ID) tea.Cmd {
	backend, ctx, log := m.backend, m.ctx, m.log
	return func() tea.Msg {
		if backend == nil {
			return cancelResultMsg{id: id, err: errors.New("no api client")}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()

		if err := backend.CancelJob(ctx, id); err != nil {
			log.Warn("cancel job failed", zap.String("job", id.String()), zap.Error(err))
			return cancelResultMsg{id: id, err: err}
		}
		status, err := backend.JobStatus(ctx, id)
		if err != nil || !status.State().Terminal() {
			status = &api.JobStatus{JobID: id, Status: string(api.JobCancelled)}
		}
		log.Info("job cancelled", zap.String("job", id.String()))
		return cancelResultMsg{id: id, status: status}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("ui requires a data store")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
