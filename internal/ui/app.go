package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/calendar"
	"github.com/lovary/lovary/internal/prefs"
	"github.com/lovary/lovary/internal/router"
	"github.com/lovary/lovary/internal/session"
	"github.com/lovary/lovary/internal/state"
)

// Backend is the part of the API client the views call directly.
type Backend interface {
	calendar.MonthAPI
	MyDiaries(ctx context.Context) ([]api.Diary, error)
	PartnerDiaries(ctx context.Context) ([]api.Diary, error)
	DayDiaries(ctx context.Context, year, month, day int) (api.DayDiaries, error)
	CreateDiary(ctx context.Context, entry api.DiaryCreate, photos ...api.Attachment) (api.Diary, error)
	UpdateDiary(ctx context.Context, diaryID int64, entry api.DiaryCreate) (api.Diary, error)
	SaveAnniversary(ctx context.Context, a api.AnniversaryCreate) (api.Anniversary, error)
	SendPartnerRequest(ctx context.Context, recipientEmail string) (api.PartnerRequest, error)
	AcceptPartnerRequest(ctx context.Context, requestID int64) (api.Message, error)
	RejectPartnerRequest(ctx context.Context, requestID int64) (api.Message, error)
	DisconnectPartner(ctx context.Context) (api.Message, error)
}

// Session logs the user in and out.
type Session interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, name string) error
	Logout()
	IsAuthenticated() bool
}

// Navigator is the router as seen by the UI.
type Navigator interface {
	Push(path string)
	Current() router.Route
	Subscribe(fn func(router.Route))
}

// Refresher triggers an immediate background refresh.
type Refresher interface {
	Refresh()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	Session   Session
	Router    Navigator
	Store     *state.Store
	Poller    Refresher
	Storage   prefs.Storage // theme preference
	LogPath   string        // activity overlay source
	StartPath string
	PollTick  time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	backend   Backend
	session   Session
	router    Navigator
	store     *state.Store
	poller    Refresher
	storage   prefs.Storage
	logPath   string
	startPath string
	pollTick  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	// UI state
	keys   keyMap
	theme  Theme
	width  int
	height int
	ready  bool
	route  router.Route

	// Data state
	snapshot state.Snapshot

	// Status line
	status    string
	statusErr bool
	busy      bool

	// Per-route state
	login    authForm
	register authForm
	diary    diaryState
	profile  profileState

	// Overlays
	showHelp     bool
	showActivity bool
	activity     activityState
	modal        Modal
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
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startPath := opts.StartPath
	if startPath == "" {
		startPath = router.PathHome
	}

	var route router.Route
	if opts.Router != nil {
		route = opts.Router.Current()
	}

	return Model{
		ctx:       ctx,
		backend:   opts.Backend,
		session:   opts.Session,
		router:    opts.Router,
		store:     opts.Store,
		poller:    opts.Poller,
		storage:   opts.Storage,
		logPath:   opts.LogPath,
		startPath: startPath,
		pollTick:  pollTick,
		logger:    logger,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(prefs.Theme(opts.Storage)),
		route:     route,
		login:     newLoginForm(),
		register:  newRegisterForm(),
		diary:     newDiaryState(now()),
		profile:   newProfileState(),
		activity:  newActivityState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.navigate(m.startPath),
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
		m.ready = true
		m.resize()
		return m, nil

	case routeMsg:
		return m.enterRoute(router.Route(msg))

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.profile.clamp(len(m.snapshot.IncomingRequests()))
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg)

	case monthMsg:
		return m.handleMonth(msg)

	case dayMsg:
		return m.handleDay(msg)

	case diariesMsg:
		return m.handleDiaries(msg)

	case actionMsg:
		return m.handleAction(msg)

	case activityMsg:
		m.handleActivity(msg)
		return m, nil
	}

	return m.updateInputs(msg)
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
	if m.showActivity {
		return m.renderActivity()
	}
	return m.renderMain()
}

// typing reports whether keystrokes belong to a text field.
func (m Model) typing() bool {
	switch m.route.Path {
	case router.PathLogin, router.PathRegister:
		return true
	case router.PathDiary:
		return m.diary.compose.active || m.diary.anniversary.active
	case router.PathProfile:
		return m.profile.requesting
	}
	return false
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
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

	if m.showActivity {
		return m.handleActivityKey(msg)
	}

	if m.typing() {
		return m.handleRouteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := prefs.SaveTheme(m.storage, m.theme.Name); err != nil {
			m.logger.Warn("save theme", zap.Error(err))
		}
		return m, nil

	case key.Matches(msg, m.keys.Activity):
		m.showActivity = true
		return m, m.refreshActivity()

	case key.Matches(msg, m.keys.GoHome):
		return m, m.navigate(router.PathHome)

	case key.Matches(msg, m.keys.Logout):
		if m.session != nil && m.session.IsAuthenticated() {
			return m, m.logoutCmd()
		}
		return m, nil
	}

	return m.handleRouteKey(msg)
}

// handleRouteKey dispatches to the view owning the current route.
func (m Model) handleRouteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.route.Path {
	case router.PathLogin:
		return m.handleLoginKey(msg)
	case router.PathRegister:
		return m.handleRegisterKey(msg)
	case router.PathDiary:
		return m.handleDiaryKey(msg)
	case router.PathProfile:
		return m.handleProfileKey(msg)
	default:
		return m.handleHomeKey(msg)
	}
}

// updateInputs forwards non-key messages (cursor blink) to focused inputs.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.route.Path {
	case router.PathLogin:
		m.login, cmd = m.login.update(msg)
	case router.PathRegister:
		m.register, cmd = m.register.update(msg)
	case router.PathDiary:
		m.diary, cmd = m.diary.updateInputs(msg)
	case router.PathProfile:
		if m.profile.requesting {
			m.profile.email, cmd = m.profile.email.Update(msg)
		}
	}
	return m, cmd
}

// enterRoute runs when navigation completes: the view for the new route mounts.
func (m Model) enterRoute(route router.Route) (tea.Model, tea.Cmd) {
	prev := m.route
	m.route = route
	if prev.Path != route.Path {
		m.status = ""
		m.statusErr = false
	}
	m.logger.Debug("route entered", zap.String("path", route.Path))

	switch route.Path {
	case router.PathLogin:
		m.login.reset()
		return m, m.login.focus()
	case router.PathRegister:
		m.register.reset()
		return m, m.register.focus()
	case router.PathDiary:
		m.diary.compose.close()
		m.diary.anniversary.close()
		return m, tea.Batch(m.loadMonthCmd(), m.loadDayCmd(m.diary.selectedDate()), m.requestRefresh())
	case router.PathProfile:
		m.profile.closeRequest()
		return m, m.requestRefresh()
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showActivity {
		if cmd := m.refreshActivity(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	m.setStatus(msg.status)
	var cmds []tea.Cmd
	if msg.reloadMonth {
		cmds = append(cmds, m.loadMonthCmd(), m.loadDayCmd(m.diary.selectedDate()))
	}
	if msg.reloadLists {
		cmds = append(cmds, m.loadDiariesCmd(true))
	}
	cmds = append(cmds, m.requestRefresh())
	return m, tea.Batch(cmds...)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = errorText(err)
	m.statusErr = true
}

func (m *Model) resize() {
	m.diary.resize(m.width, m.height)
	m.activity.resize(m.width, m.height)
}

// errorText turns an error into a line for the status bar. Backend
// errors show their detail; everything else its message.
func errorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return strings.TrimPrefix(apiErr.Error(), "api ")
	}
	return err.Error()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type routeMsg router.Route

type authResultMsg struct {
	err error
}

type actionMsg struct {
	status      string
	err         error
	reloadMonth bool
	reloadLists bool
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

// navigate pushes path through the router off the event loop. The resulting
// route arrives back as a routeMsg via the router subscription.
func (m Model) navigate(path string) tea.Cmd {
	nav := m.router
	if nav == nil {
		return nil
	}
	return func() tea.Msg {
		nav.Push(path)
		return nil
	}
}

func (m Model) requestRefresh() tea.Cmd {
	p := m.poller
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		p.Refresh()
		return nil
	}
}

func (m Model) logoutCmd() tea.Cmd {
	sess := m.session
	store := m.store
	return func() tea.Msg {
		sess.Logout()
		if store != nil {
			store.Reset()
		}
		return actionMsg{status: "Logged out"}
	}
}

func (m Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	switch {
	case msg.err == nil:
		return m, m.requestRefresh()
	case errors.Is(msg.err, session.ErrSessionChanged):
		return m, nil
	}
	text := errorText(msg.err)
	switch m.route.Path {
	case router.PathRegister:
		m.register.err = text
	default:
		m.login.err = text
	}
	return m, nil
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Router != nil {
		opts.Router.Subscribe(func(r router.Route) {
			p.Send(routeMsg(r))
		})
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
