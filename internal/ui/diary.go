package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/calendar"
	"github.com/lovary/lovary/internal/router"
)

type diaryTab int

const (
	tabCalendar diaryTab = iota
	tabMine
	tabPartner
)

// diaryState holds the diary route's view state.
type diaryState struct {
	tab diaryTab

	// Calendar
	year   int
	month  time.Month
	cursor int // selected day of month
	today  time.Time
	cal    calendar.Month
	calErr string
	loaded bool

	// Selected day
	day    *api.DayDiaries
	dayErr string

	// Entry lists
	mine       []api.Diary
	partner    []api.Diary
	listCursor int

	compose     composeState
	anniversary anniversaryInput

	width  int
	height int
}

type composeState struct {
	active  bool
	editing int64 // diary id when editing, zero for a new entry
	focus   int   // 0 title, 1 body
	title   textinput.Model
	body    textarea.Model
}

type anniversaryInput struct {
	active bool
	date   time.Time
	input  textinput.Model
}

func newDiaryState(now time.Time) diaryState {
	title := newInput("title", false)
	title.Width = 48
	body := textarea.New()
	body.Placeholder = "How was today?"
	body.ShowLineNumbers = false
	body.CharLimit = 5000
	body.SetWidth(60)
	body.SetHeight(8)

	return diaryState{
		year:        now.Year(),
		month:       now.Month(),
		cursor:      now.Day(),
		today:       now,
		compose:     composeState{title: title, body: body},
		anniversary: anniversaryInput{input: newInput("anniversary name", false)},
	}
}

func (d *diaryState) resize(width, height int) {
	d.width = width
	d.height = height
	w := width - 12
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	d.compose.body.SetWidth(w)
	d.compose.title.Width = w - 2
}

func (d diaryState) selectedDate() time.Time {
	return time.Date(d.year, d.month, d.cursor, 0, 0, 0, 0, time.Local)
}

func (d diaryState) isToday(t time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := d.today.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// moveCursor shifts the selected day, crossing into adjacent months.
func (d *diaryState) moveCursor(delta int) (monthChanged bool) {
	next := d.selectedDate().AddDate(0, 0, delta)
	monthChanged = next.Year() != d.year || next.Month() != d.month
	d.year, d.month, d.cursor = next.Year(), next.Month(), next.Day()
	return monthChanged
}

func (d *diaryState) shiftMonth(delta int) {
	d.year, d.month = calendar.Shift(d.year, d.month, delta)
	if n := calendar.DaysIn(d.year, d.month); d.cursor > n {
		d.cursor = n
	}
}

func (d diaryState) entries() []api.Diary {
	if d.tab == tabPartner {
		return d.partner
	}
	return d.mine
}

func (c *composeState) open(editing *api.Diary) tea.Cmd {
	c.active = true
	c.focus = 0
	c.title.Reset()
	c.body.Reset()
	c.editing = 0
	if editing != nil {
		c.editing = editing.ID
		c.title.SetValue(editing.Title)
		c.body.SetValue(editing.Content)
	}
	c.body.Blur()
	return c.title.Focus()
}

func (c *composeState) close() {
	c.active = false
	c.title.Blur()
	c.body.Blur()
}

func (c *composeState) toggleFocus() tea.Cmd {
	if c.focus == 0 {
		c.focus = 1
		c.title.Blur()
		return c.body.Focus()
	}
	c.focus = 0
	c.body.Blur()
	return c.title.Focus()
}

func (a *anniversaryInput) open(date time.Time) tea.Cmd {
	a.active = true
	a.date = date
	a.input.Reset()
	return a.input.Focus()
}

func (a *anniversaryInput) close() {
	a.active = false
	a.input.Blur()
}

func (d diaryState) updateInputs(msg tea.Msg) (diaryState, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case d.compose.active && d.compose.focus == 0:
		d.compose.title, cmd = d.compose.title.Update(msg)
	case d.compose.active:
		d.compose.body, cmd = d.compose.body.Update(msg)
	case d.anniversary.active:
		d.anniversary.input, cmd = d.anniversary.input.Update(msg)
	}
	return d, cmd
}

// Messages

type monthMsg struct {
	year  int
	month time.Month
	cal   calendar.Month
	err   error
}

type dayMsg struct {
	date time.Time
	day  api.DayDiaries
	err  error
}

type diariesMsg struct {
	mine    []api.Diary
	partner []api.Diary
	err     error
}

// Commands

func (m Model) loadMonthCmd() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	year, month := m.diary.year, m.diary.month
	return func() tea.Msg {
		cal, err := calendar.Load(ctx, backend, year, month)
		return monthMsg{year: year, month: month, cal: cal, err: err}
	}
}

func (m Model) loadDayCmd(date time.Time) tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		day, err := backend.DayDiaries(ctx, date.Year(), int(date.Month()), date.Day())
		return dayMsg{date: date, day: day, err: err}
	}
}

func (m Model) loadDiariesCmd(withPartner bool) tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	withPartner = withPartner && m.snapshot.Me.HasPartner()
	return func() tea.Msg {
		mine, err := backend.MyDiaries(ctx)
		if err != nil {
			return diariesMsg{err: fmt.Errorf("load my entries: %w", err)}
		}
		var partner []api.Diary
		if withPartner {
			partner, err = backend.PartnerDiaries(ctx)
			if err != nil {
				return diariesMsg{err: fmt.Errorf("load partner entries: %w", err)}
			}
		}
		return diariesMsg{mine: mine, partner: partner}
	}
}

func (m Model) saveDiaryCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	entry := api.DiaryCreate{
		Title:   strings.TrimSpace(m.diary.compose.title.Value()),
		Content: strings.TrimSpace(m.diary.compose.body.Value()),
	}
	editing := m.diary.compose.editing
	return func() tea.Msg {
		var err error
		if editing > 0 {
			_, err = backend.UpdateDiary(ctx, editing, entry)
		} else {
			_, err = backend.CreateDiary(ctx, entry)
		}
		if err != nil {
			return actionMsg{err: fmt.Errorf("save entry: %w", err)}
		}
		return actionMsg{status: "Entry saved", reloadMonth: true, reloadLists: true}
	}
}

func (m Model) saveAnniversaryCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	req := api.AnniversaryCreate{
		Date: m.diary.anniversary.date.Format(time.DateOnly),
		Name: strings.TrimSpace(m.diary.anniversary.input.Value()),
	}
	return func() tea.Msg {
		if _, err := backend.SaveAnniversary(ctx, req); err != nil {
			return actionMsg{err: fmt.Errorf("save anniversary: %w", err)}
		}
		return actionMsg{status: "Anniversary saved: " + req.Name, reloadMonth: true}
	}
}

// Result handlers

func (m Model) handleMonth(msg monthMsg) (tea.Model, tea.Cmd) {
	if msg.year != m.diary.year || msg.month != m.diary.month {
		return m, nil
	}
	if msg.err != nil {
		m.diary.calErr = errorText(msg.err)
		return m, nil
	}
	m.diary.cal = msg.cal
	m.diary.calErr = ""
	m.diary.loaded = true
	return m, nil
}

func (m Model) handleDay(msg dayMsg) (tea.Model, tea.Cmd) {
	if !msg.date.Equal(m.diary.selectedDate()) {
		return m, nil
	}
	if msg.err != nil {
		m.diary.day = nil
		m.diary.dayErr = errorText(msg.err)
		return m, nil
	}
	day := msg.day
	m.diary.day = &day
	m.diary.dayErr = ""
	return m, nil
}

func (m Model) handleDiaries(msg diariesMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	m.diary.mine = msg.mine
	m.diary.partner = msg.partner
	if n := len(m.diary.entries()); m.diary.listCursor >= n {
		m.diary.listCursor = max(n-1, 0)
	}
	return m, nil
}

// Keys

func (m Model) handleDiaryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := &m.diary

	if d.compose.active {
		switch {
		case key.Matches(msg, m.keys.Escape):
			d.compose.close()
			return m, nil
		case key.Matches(msg, m.keys.Save):
			if strings.TrimSpace(d.compose.title.Value()) == "" || strings.TrimSpace(d.compose.body.Value()) == "" {
				m.setStatus("Title and content are required")
				m.statusErr = true
				return m, nil
			}
			if m.busy || m.backend == nil {
				return m, nil
			}
			m.busy = true
			cmd := m.saveDiaryCmd()
			m.diary.compose.close()
			return m, cmd
		case msg.String() == "tab" || msg.String() == "shift+tab":
			return m, d.compose.toggleFocus()
		}
		var cmd tea.Cmd
		m.diary, cmd = m.diary.updateInputs(msg)
		return m, cmd
	}

	if d.anniversary.active {
		switch {
		case key.Matches(msg, m.keys.Escape):
			d.anniversary.close()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			if strings.TrimSpace(d.anniversary.input.Value()) == "" || m.backend == nil {
				return m, nil
			}
			cmd := m.saveAnniversaryCmd()
			m.diary.anniversary.close()
			return m, cmd
		}
		var cmd tea.Cmd
		m.diary, cmd = m.diary.updateInputs(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.GoProfile):
		return m, m.navigate(router.PathProfile)
	case key.Matches(msg, m.keys.TabCalendar):
		d.tab = tabCalendar
		return m, nil
	case key.Matches(msg, m.keys.TabMine):
		d.tab = tabMine
		d.listCursor = 0
		return m, m.loadDiariesCmd(true)
	case key.Matches(msg, m.keys.TabPartner):
		d.tab = tabPartner
		d.listCursor = 0
		return m, m.loadDiariesCmd(true)
	case key.Matches(msg, m.keys.Write):
		return m, d.compose.open(m.todaysEntry())
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.loadMonthCmd(), m.loadDayCmd(d.selectedDate()), m.loadDiariesCmd(true), m.requestRefresh())
	}

	if d.tab != tabCalendar {
		switch {
		case key.Matches(msg, m.keys.Up):
			if d.listCursor > 0 {
				d.listCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if d.listCursor < len(d.entries())-1 {
				d.listCursor++
			}
		}
		return m, nil
	}

	delta := 0
	switch {
	case key.Matches(msg, m.keys.Left):
		delta = -1
	case key.Matches(msg, m.keys.Right):
		delta = 1
	case key.Matches(msg, m.keys.Up):
		delta = -7
	case key.Matches(msg, m.keys.Down):
		delta = 7
	case key.Matches(msg, m.keys.PrevMonth):
		d.shiftMonth(-1)
		return m, m.reloadSelection(true)
	case key.Matches(msg, m.keys.NextMonth):
		d.shiftMonth(1)
		return m, m.reloadSelection(true)
	case key.Matches(msg, m.keys.Today):
		changed := d.year != d.today.Year() || d.month != d.today.Month()
		d.year, d.month, d.cursor = d.today.Year(), d.today.Month(), d.today.Day()
		return m, m.reloadSelection(changed)
	case key.Matches(msg, m.keys.AddAnniversary):
		return m, d.anniversary.open(d.selectedDate())
	case key.Matches(msg, m.keys.Submit):
		return m, m.loadDayCmd(d.selectedDate())
	}
	if delta != 0 {
		changed := d.moveCursor(delta)
		return m, m.reloadSelection(changed)
	}
	return m, nil
}

func (m *Model) reloadSelection(monthChanged bool) tea.Cmd {
	m.diary.day = nil
	m.diary.dayErr = ""
	if monthChanged {
		m.diary.loaded = false
		return tea.Batch(m.loadMonthCmd(), m.loadDayCmd(m.diary.selectedDate()))
	}
	return m.loadDayCmd(m.diary.selectedDate())
}

// todaysEntry returns my entry for today when the selected day is today and
// already has one, so w edits instead of creating a duplicate.
func (m Model) todaysEntry() *api.Diary {
	d := m.diary
	if d.day == nil || !d.isToday(d.selectedDate()) {
		return nil
	}
	return d.day.MyDiary
}

// Rendering

func (m Model) renderDiary() string {
	styles := m.theme.Styles()
	var b strings.Builder

	tabs := []string{"1 Calendar", "2 My entries", "3 Partner entries"}
	for i, t := range tabs {
		if diaryTab(i) == m.diary.tab {
			b.WriteString(styles.Selected.Padding(0, 1).Render(t))
		} else {
			b.WriteString(styles.MutedText.Padding(0, 1).Render(t))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.diary.compose.active:
		b.WriteString(m.renderCompose())
	case m.diary.tab == tabCalendar:
		left := m.renderMonth()
		right := m.renderDay()
		if m.diary.width >= LayoutSideBySideWidth {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
		} else {
			b.WriteString(lipgloss.JoinVertical(lipgloss.Left, left, right))
		}
		if m.diary.anniversary.active {
			b.WriteString("\n\n")
			b.WriteString(styles.AccentText.Render("Anniversary on " + m.diary.anniversary.date.Format(time.DateOnly) + ": "))
			b.WriteString(m.diary.anniversary.input.View())
		}
	default:
		b.WriteString(m.renderEntries())
	}
	return b.String()
}

func (m Model) renderMonth() string {
	styles := m.theme.Styles()
	d := m.diary
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("%s %d", d.month, d.year)))
	if !d.loaded && d.calErr == "" {
		b.WriteString(styles.FaintText.Render("  loading"))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Su  Mo  Tu  We  Th  Fr  Sa"))
	b.WriteString("\n")

	if d.calErr != "" {
		b.WriteString(styles.DangerText.Render(d.calErr))
		return styles.Panel.Render(b.String())
	}

	cal := d.cal
	if !d.loaded {
		cal = calendar.Merge(d.year, d.month, nil, nil, nil)
	}
	for _, week := range cal.Weeks() {
		for col, day := range week {
			if col > 0 {
				b.WriteString(" ")
			}
			b.WriteString(m.renderDayCell(day))
		}
		b.WriteString("\n")
	}

	if cal.Photo != nil {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("photo: " + truncateMiddle(m.backendURL(cal.Photo.PhotoURL), 26)))
	}
	b.WriteString("\n")
	b.WriteString(styles.StatusText(statusComplete).Render("■ both "))
	b.WriteString(styles.StatusText(statusMine).Render("■ me "))
	b.WriteString(styles.StatusText(statusPartner).Render("■ partner "))
	b.WriteString(styles.StatusText(statusAnniversary).Render("* anniversary"))
	return styles.Panel.Render(b.String())
}

func (m Model) renderDayCell(day *calendar.Day) string {
	if day == nil {
		return "   "
	}
	styles := m.theme.Styles()
	label := fmt.Sprintf("%2d", day.Number)
	mark := " "
	if day.Anniversary != nil {
		mark = "*"
	}

	style := styles.Text
	switch {
	case day.IsComplete:
		style = styles.StatusText(statusComplete).Bold(true)
	case day.HasMyDiary:
		style = styles.StatusText(statusMine)
	case day.HasPartnerDiary:
		style = styles.StatusText(statusPartner)
	case day.Status == "future":
		style = styles.StatusText(statusFuture)
	}
	if m.diary.isToday(day.Date) {
		style = style.Underline(true)
	}
	if day.Number == m.diary.cursor {
		style = styles.Selected
	}
	cell := style.Render(label)
	if mark != " " {
		return cell + styles.StatusText(statusAnniversary).Render(mark)
	}
	return cell + " "
}

func (m Model) renderDay() string {
	styles := m.theme.Styles()
	d := m.diary
	var b strings.Builder

	date := d.selectedDate()
	b.WriteString(styles.AccentText.Bold(true).Render(date.Format("Mon, Jan 2 2006")))
	b.WriteString("\n")
	if cell := d.cal.Day(d.cursor); d.loaded && cell != nil && cell.Anniversary != nil {
		b.WriteString(styles.StatusText(statusAnniversary).Render("* " + cell.Anniversary.Name))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case d.dayErr != "":
		b.WriteString(styles.DangerText.Render(d.dayErr))
	case d.day == nil:
		b.WriteString(styles.FaintText.Render("enter to load this day"))
	default:
		b.WriteString(m.renderEntry(d.day.MyName, d.day.MyDiary))
		b.WriteString("\n\n")
		b.WriteString(m.renderEntry(d.day.PartnerName, d.day.PartnerDiary))
		if d.day.CanWrite && d.day.MyDiary == nil {
			b.WriteString("\n\n")
			b.WriteString(styles.InfoText.Render("w to write today's entry"))
		}
	}

	width := d.width - 40
	if width < 30 {
		width = 30
	}
	return styles.Panel.Width(width).Render(b.String())
}

func (m Model) renderEntry(author string, entry *api.Diary) string {
	styles := m.theme.Styles()
	if author == "" {
		author = "?"
	}
	head := styles.MutedText.Render(author)
	if entry == nil {
		return head + "\n" + styles.FaintText.Render("no entry")
	}
	title := styles.Text.Bold(true).Render(entry.Title)
	read := ""
	if entry.IsReadByPartner {
		read = styles.SuccessText.Render(" ✓ read")
	}
	body := head + "\n" + title + read + "\n" + styles.Text.Render(entry.Content)
	for _, p := range entry.Photos {
		body += "\n" + styles.FaintText.Render("photo "+truncateMiddle(m.backendURL(p.PhotoURL), 40))
	}
	return body
}

func (m Model) renderEntries() string {
	styles := m.theme.Styles()
	entries := m.diary.entries()
	if len(entries) == 0 {
		if m.diary.tab == tabPartner && !m.snapshot.Me.HasPartner() {
			return styles.FaintText.Render("Connect with a partner on the profile page (p) to read their entries.")
		}
		return styles.FaintText.Render("No entries yet.")
	}

	var list strings.Builder
	for i, e := range entries {
		line := fmt.Sprintf("%s  %s", e.ParsedCreatedAt().Local().Format(time.DateOnly), truncate(e.Title, 24))
		if i == m.diary.listCursor {
			list.WriteString(styles.Selected.Render(line))
		} else {
			list.WriteString(styles.Text.Render(line))
		}
		list.WriteString("\n")
	}

	sel := entries[min(m.diary.listCursor, len(entries)-1)]
	detail := m.renderEntry(sel.ParsedCreatedAt().Local().Format("Mon, Jan 2 2006 15:04"), &sel)
	width := m.diary.width - 44
	if width < 30 {
		width = 30
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Panel.Width(40).Render(list.String()),
		"  ",
		styles.Panel.Width(width).Render(detail),
	)
}

func (m Model) renderCompose() string {
	styles := m.theme.Styles()
	c := m.diary.compose
	heading := "New entry for today"
	if c.editing > 0 {
		heading = "Edit today's entry"
	}
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(heading))
	b.WriteString("\n\n")
	b.WriteString(c.title.View())
	b.WriteString("\n\n")
	b.WriteString(c.body.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("tab switch field · ctrl+s save · esc cancel"))
	return styles.FocusPanel.Render(b.String())
}

// backendURL resolves a backend-relative path for display when the backend
// can do so.
func (m Model) backendURL(ref string) string {
	if r, ok := m.backend.(interface{ ResolveURL(string) string }); ok {
		return r.ResolveURL(ref)
	}
	return ref
}
