package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/calendar"
	"github.com/lovary/lovary/internal/prefs"
	"github.com/lovary/lovary/internal/router"
	"github.com/lovary/lovary/internal/session"
	"github.com/lovary/lovary/internal/state"
)

type fakeNav struct {
	mu     sync.Mutex
	pushes []string
}

func (n *fakeNav) Push(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, path)
}

func (n *fakeNav) Current() router.Route {
	r, _ := router.Lookup(router.PathHome)
	return r
}

func (n *fakeNav) Subscribe(func(router.Route)) {}

type fakeSession struct {
	authed bool
}

func (s *fakeSession) Login(context.Context, string, string) error            { return nil }
func (s *fakeSession) Register(context.Context, string, string, string) error { return nil }
func (s *fakeSession) Logout()                                                { s.authed = false }
func (s *fakeSession) IsAuthenticated() bool                                  { return s.authed }

type fakeBackend struct {
	mu          sync.Mutex
	updated     int64
	created     int
	disconnects int
}

func (b *fakeBackend) MonthDiaries(context.Context, int, int) (map[int]api.DayStatus, error) {
	return nil, nil
}

func (b *fakeBackend) MonthAnniversaries(context.Context, int, int) (map[int]api.AnniversaryDay, error) {
	return nil, nil
}

func (b *fakeBackend) MonthlyPhoto(context.Context, int, int) (*api.MonthlyPhoto, error) {
	return nil, nil
}

func (b *fakeBackend) MyDiaries(context.Context) ([]api.Diary, error)      { return nil, nil }
func (b *fakeBackend) PartnerDiaries(context.Context) ([]api.Diary, error) { return nil, nil }

func (b *fakeBackend) DayDiaries(_ context.Context, year, month, day int) (api.DayDiaries, error) {
	return api.DayDiaries{Date: fmt.Sprintf("%04d-%02d-%02d", year, month, day)}, nil
}

func (b *fakeBackend) CreateDiary(_ context.Context, entry api.DiaryCreate, _ ...api.Attachment) (api.Diary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	return api.Diary{ID: 1, Title: entry.Title, Content: entry.Content}, nil
}

func (b *fakeBackend) UpdateDiary(_ context.Context, id int64, entry api.DiaryCreate) (api.Diary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = id
	return api.Diary{ID: id, Title: entry.Title, Content: entry.Content}, nil
}

func (b *fakeBackend) SaveAnniversary(_ context.Context, a api.AnniversaryCreate) (api.Anniversary, error) {
	return api.Anniversary{ID: 1, Date: a.Date, Name: a.Name}, nil
}

func (b *fakeBackend) SendPartnerRequest(context.Context, string) (api.PartnerRequest, error) {
	return api.PartnerRequest{ID: 1, Status: "pending"}, nil
}

func (b *fakeBackend) AcceptPartnerRequest(context.Context, int64) (api.Message, error) {
	return api.Message{}, nil
}

func (b *fakeBackend) RejectPartnerRequest(context.Context, int64) (api.Message, error) {
	return api.Message{}, nil
}

func (b *fakeBackend) DisconnectPartner(context.Context) (api.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnects++
	return api.Message{}, nil
}

type testEnv struct {
	nav     *fakeNav
	sess    *fakeSession
	backend *fakeBackend
	storage *prefs.MemoryStore
}

func newTestModel(t *testing.T, now time.Time) (Model, *testEnv) {
	t.Helper()
	env := &testEnv{
		nav:     &fakeNav{},
		sess:    &fakeSession{authed: true},
		backend: &fakeBackend{},
		storage: prefs.NewMemoryStore(),
	}
	m := New(Options{
		Backend: env.backend,
		Session: env.sess,
		Router:  env.nav,
		Store:   &state.Store{},
		Storage: env.storage,
		Now:     func() time.Time { return now },
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), env
}

func mount(t *testing.T, m Model, path string) Model {
	t.Helper()
	route, ok := router.Lookup(path)
	if !ok {
		t.Fatalf("unknown route %q", path)
	}
	next, _ := m.Update(routeMsg(route))
	return next.(Model)
}

func press(m Model, keys string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

func TestRouteMsgMountsLoginForm(t *testing.T) {
	m, _ := newTestModel(t, time.Now())
	m = mount(t, m, router.PathLogin)

	if m.route.Path != router.PathLogin {
		t.Fatalf("route = %q, want %q", m.route.Path, router.PathLogin)
	}
	if !m.login.inputs[loginEmail].Focused() {
		t.Fatalf("email input not focused after mounting login")
	}
}

func TestTypingOnLoginDoesNotTriggerGlobalKeys(t *testing.T) {
	m, env := newTestModel(t, time.Now())
	m = mount(t, m, router.PathLogin)

	m, _ = press(m, "q")
	m, _ = press(m, "T")

	if got := m.login.value(loginEmail); got != "qT" {
		t.Fatalf("email = %q, want %q", got, "qT")
	}
	if got := prefs.Theme(env.storage); got != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", got)
	}
}

func TestAuthResultShowsBackendDetail(t *testing.T) {
	m, _ := newTestModel(t, time.Now())
	m = mount(t, m, router.PathLogin)
	m.busy = true

	err := fmt.Errorf("login: %w", &api.APIError{StatusCode: 401, Detail: "Incorrect email or password"})
	next, _ := m.Update(authResultMsg{err: err})
	m = next.(Model)

	if m.busy {
		t.Fatalf("busy still set after auth result")
	}
	if m.login.err != "Incorrect email or password" {
		t.Fatalf("login.err = %q, want backend detail", m.login.err)
	}
}

func TestAuthResultIgnoresSessionChanged(t *testing.T) {
	m, _ := newTestModel(t, time.Now())
	m = mount(t, m, router.PathLogin)

	next, _ := m.Update(authResultMsg{err: fmt.Errorf("login: %w", session.ErrSessionChanged)})
	m = next.(Model)

	if m.login.err != "" {
		t.Fatalf("login.err = %q, want empty", m.login.err)
	}
}

func TestCycleThemePersists(t *testing.T) {
	m, env := newTestModel(t, time.Now())

	m, _ = press(m, "T")

	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	if got := prefs.Theme(env.storage); got != "Kanagawa" {
		t.Fatalf("stored theme = %q, want Kanagawa", got)
	}
}

func TestHomeKeysNavigateThroughRouter(t *testing.T) {
	m, env := newTestModel(t, time.Now())

	_, cmd := press(m, "d")
	if cmd == nil {
		t.Fatalf("expected navigation command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("navigation cmd returned %T, want nil", msg)
	}
	if len(env.nav.pushes) != 1 || env.nav.pushes[0] != router.PathDiary {
		t.Fatalf("pushes = %v, want [%s]", env.nav.pushes, router.PathDiary)
	}
	if m.route.Path != router.PathHome {
		t.Fatalf("route changed before router answered: %q", m.route.Path)
	}
}

func TestMonthResultForOtherMonthIgnored(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.Local)
	m, _ := newTestModel(t, now)

	next, _ := m.Update(monthMsg{year: 2024, month: time.April})
	m = next.(Model)
	if m.diary.loaded {
		t.Fatalf("stale month result was applied")
	}

	next, _ = m.Update(monthMsg{year: 2024, month: time.May, cal: calendar.Merge(2024, time.May, nil, nil, nil)})
	m = next.(Model)
	if !m.diary.loaded || m.diary.cal.Month != time.May {
		t.Fatalf("month result not applied: loaded=%v month=%v", m.diary.loaded, m.diary.cal.Month)
	}
}

func TestDiaryCursorCrossesMonthBoundary(t *testing.T) {
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.Local)
	m, _ := newTestModel(t, now)
	m = mount(t, m, router.PathDiary)

	m, _ = press(m, "h")

	if m.diary.year != 2024 || m.diary.month != time.April || m.diary.cursor != 30 {
		t.Fatalf("selected = %d-%02d-%02d, want 2024-04-30", m.diary.year, m.diary.month, m.diary.cursor)
	}
}

func TestWriteEditsTodaysEntry(t *testing.T) {
	now := time.Date(2024, time.May, 10, 21, 0, 0, 0, time.Local)
	m, env := newTestModel(t, now)
	m = mount(t, m, router.PathDiary)

	next, _ := m.Update(dayMsg{
		date: m.diary.selectedDate(),
		day: api.DayDiaries{
			Date:     "2024-05-10",
			MyDiary:  &api.Diary{ID: 7, Title: "hi", Content: "body"},
			CanWrite: true,
		},
	})
	m = next.(Model)

	m, _ = press(m, "w")
	if !m.diary.compose.active || m.diary.compose.editing != 7 {
		t.Fatalf("compose active=%v editing=%d, want editing 7", m.diary.compose.active, m.diary.compose.editing)
	}
	if got := m.diary.compose.title.Value(); got != "hi" {
		t.Fatalf("title = %q, want %q", got, "hi")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	msg, ok := cmd().(actionMsg)
	if !ok || msg.err != nil {
		t.Fatalf("save returned %#v", msg)
	}
	if env.backend.updated != 7 || env.backend.created != 0 {
		t.Fatalf("updated=%d created=%d, want update of 7", env.backend.updated, env.backend.created)
	}
	if m.diary.compose.active {
		t.Fatalf("compose still open after save")
	}
}

func TestDisconnectAsksForConfirmation(t *testing.T) {
	m, env := newTestModel(t, time.Now())
	m = mount(t, m, router.PathProfile)

	partnerID := int64(2)
	next, _ := m.Update(snapshotMsg(state.Snapshot{
		HasMe: true,
		Me:    api.User{ID: 1, Email: "a@example.com", PartnerID: &partnerID},
	}))
	m = next.(Model)

	m, _ = press(m, "X")
	if m.modal == nil {
		t.Fatalf("expected confirmation modal")
	}
	if env.backend.disconnects != 0 {
		t.Fatalf("disconnected before confirmation")
	}

	m, cmd := press(m, "y")
	if m.modal != nil {
		t.Fatalf("modal still open after confirming")
	}
	if cmd == nil {
		t.Fatalf("expected disconnect command")
	}
	msg, ok := cmd().(actionMsg)
	if !ok || msg.status != "Partner disconnected" {
		t.Fatalf("disconnect returned %#v", msg)
	}
	if env.backend.disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", env.backend.disconnects)
	}
}

func TestConfirmModalCancel(t *testing.T) {
	called := false
	modal := newConfirmModal("t", "b", func() tea.Msg { called = true; return nil })

	_, cmd, closed := modal.Update(tea.KeyMsg{Type: tea.KeyEsc}, DefaultKeyMap())
	if !closed || cmd != nil {
		t.Fatalf("esc: closed=%v cmd=%v, want closed without cmd", closed, cmd != nil)
	}
	if called {
		t.Fatalf("onConfirm ran on cancel")
	}
}

func TestErrorText(t *testing.T) {
	if got := errorText(errors.New("boom")); got != "boom" {
		t.Fatalf("errorText = %q, want boom", got)
	}
	apiErr := &api.APIError{Method: "GET", Path: "/api/x", StatusCode: 500}
	if got := errorText(apiErr); got != "GET /api/x returned status 500" {
		t.Fatalf("errorText = %q", got)
	}
}
