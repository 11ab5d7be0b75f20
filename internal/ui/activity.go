package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lovary/lovary/internal/logtail"
)

// activityState backs the activity overlay, a tail of this client's own log.
type activityState struct {
	viewport viewport.Model
	lines    []string
	debug    bool
	follow   bool
	err      string
}

func newActivityState() activityState {
	return activityState{viewport: viewport.New(80, 20), follow: true}
}

func (a *activityState) resize(width, height int) {
	// Box borders plus header and status rows.
	a.viewport.Width = max(width-4, 10)
	a.viewport.Height = max(height-5, 3)
}

type activityMsg struct {
	lines []string
	err   error
}

// refreshActivity reads the log file off the event loop.
func (m Model) refreshActivity() tea.Cmd {
	path := m.logPath
	debug := m.activity.debug
	if path == "" {
		return func() tea.Msg {
			return activityMsg{lines: []string{"file logging is disabled"}}
		}
	}
	return func() tea.Msg {
		raw, err := logtail.Read(path, ActivityLineLimit)
		if err != nil {
			return activityMsg{err: err}
		}
		entries := make([]logtail.Entry, 0, len(raw))
		for _, line := range raw {
			entries = append(entries, logtail.Parse(line))
		}
		minLevel := "info"
		if debug {
			minLevel = "debug"
		}
		entries = logtail.Filter(entries, minLevel)
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, logtail.Format(e))
		}
		return activityMsg{lines: lines}
	}
}

func (m *Model) handleActivity(msg activityMsg) {
	if msg.err != nil {
		m.activity.err = msg.err.Error()
		return
	}
	m.activity.err = ""
	m.activity.lines = msg.lines
	m.activity.viewport.SetContent(strings.Join(msg.lines, "\n"))
	if m.activity.follow {
		m.activity.viewport.GotoBottom()
	}
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Activity):
		m.showActivity = false
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleDebug):
		m.activity.debug = !m.activity.debug
		return m, m.refreshActivity()
	case msg.String() == " ":
		m.activity.follow = !m.activity.follow
		if m.activity.follow {
			m.activity.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.activity.viewport, cmd = m.activity.viewport.Update(msg)
	if !m.activity.viewport.AtBottom() {
		m.activity.follow = false
	}
	return m, cmd
}

func (m Model) renderActivity() string {
	styles := m.theme.Styles()

	title := "Activity"
	if m.logPath != "" {
		title += "  " + truncateMiddle(m.logPath, max(m.width-30, 20))
	}
	if m.activity.debug {
		title += " (debug)"
	}
	body := m.activity.viewport.View()
	if len(m.activity.lines) == 0 {
		body = styles.FaintText.Render("no activity yet")
	}

	var status string
	switch {
	case m.activity.err != "":
		status = styles.DangerText.Render(m.activity.err)
	default:
		follow := "off"
		if m.activity.follow {
			follow = "on"
		}
		status = styles.FaintText.Render("space follow: " + follow + " · D debug · esc close")
	}

	box := styles.FocusPanel.
		Width(max(m.width-2, 10)).
		Height(max(m.height-3, 3)).
		Render(styles.AccentText.Bold(true).Render(title) + "\n" + body)
	return box + "\n" + status
}
