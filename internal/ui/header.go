package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lovary/lovary/internal/router"
)

const logo = "♥ lovary"

// renderMain renders header, the current route's view and footer.
func (m Model) renderMain() string {
	var body string
	switch m.route.Path {
	case router.PathLogin:
		body = m.renderAuthForm(m.login, "enter submit · ctrl+r register · esc home")
	case router.PathRegister:
		body = m.renderAuthForm(m.register, "enter submit · ctrl+l log in · esc home")
	case router.PathDiary:
		body = m.renderDiary()
	case router.PathProfile:
		body = m.renderProfile()
	default:
		body = m.renderHome()
	}

	body = lipgloss.NewStyle().
		Padding(1, 2).
		Height(m.contentHeight()).
		MaxHeight(m.contentHeight()).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// contentHeight is the height left between header and footer.
func (m Model) contentHeight() int {
	return max(m.height-2, 1)
}

// renderHeader renders the top bar: logo, page, account and connection state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newBar(m.theme.Surface)
	snap := m.snapshot
	compact := m.width < LayoutCompactWidth

	parts := []string{
		bg.text(logo, styles.Logo),
		bg.text(m.route.Name, styles.AccentText),
	}

	if m.session != nil && m.session.IsAuthenticated() {
		if snap.HasMe {
			who := bg.text(snap.Me.DisplayName(), styles.Text)
			if p := snap.Me.Partner; p != nil {
				who += bg.text(" ♥ ", styles.StatusText(statusComplete)) + bg.text(p.DisplayName(), styles.Text)
			}
			parts = append(parts, who)
		}
		if n := len(snap.IncomingRequests()); n > 0 {
			parts = append(parts, bg.text(fmt.Sprintf("%d request(s)", n), styles.StatusText(statusPending)))
		}
		if n := snap.UnreadByMe(); n > 0 {
			parts = append(parts, bg.text(fmt.Sprintf("%d unread", n), styles.StatusText(statusPartner)))
		}
		switch {
		case snap.IsOffline():
			parts = append(parts, bg.text("● offline", styles.DangerText))
		case !compact && !snap.LastUpdated.IsZero():
			age := humanizeDuration(m.now().Sub(snap.LastUpdated))
			parts = append(parts, bg.text("updated "+age, styles.FaintText))
		}
	} else {
		parts = append(parts, bg.text("not logged in", styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, "  "))
}

// renderFooter renders the status line or, when idle, the route's key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var content string
	switch {
	case m.status != "" && m.statusErr:
		content = styles.DangerText.Render(m.status)
	case m.status != "":
		content = styles.SuccessText.Render(m.status)
	case m.busy:
		content = styles.InfoText.Render("Working...")
	default:
		content = m.routeHints()
	}
	return styles.Footer.Width(m.width).Render(content)
}

func (m Model) routeHints() string {
	var hints string
	switch m.route.Path {
	case router.PathLogin, router.PathRegister:
		return ""
	case router.PathDiary:
		hints = "←→↑↓ day · [ ] month · t today · enter open · w write · a anniversary · 1/2/3 tabs · p profile"
	case router.PathProfile:
		hints = "s send request · y/n respond · X disconnect · R refresh · d diary"
	default:
		hints = "d diary · p profile · l log in · r register"
	}
	return hints + " · ? help · q quit"
}

func (m Model) renderHome() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Logo.Render(logo))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("a diary for two"))
	b.WriteString("\n\n")

	authed := m.session != nil && m.session.IsAuthenticated()
	switch {
	case !authed:
		b.WriteString(styles.Text.Render("Press l to log in or r to create an account."))
	case m.snapshot.HasMe:
		me := m.snapshot.Me
		b.WriteString(styles.Text.Render("Welcome back, " + me.DisplayName() + "."))
		b.WriteString("\n")
		if me.HasPartner() {
			if n := m.snapshot.UnreadByMe(); n > 0 {
				b.WriteString(styles.StatusText(statusPartner).Render(fmt.Sprintf("%d partner entries waiting for you.", n)))
			} else {
				b.WriteString(styles.FaintText.Render("You're all caught up."))
			}
		} else {
			b.WriteString(styles.FaintText.Render("Connect with your partner from the profile page (p)."))
		}
	default:
		b.WriteString(styles.FaintText.Render("Loading..."))
	}

	return lipgloss.Place(m.width-4, m.contentHeight()-2, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.GoLogin):
		return m, m.navigate(router.PathLogin)
	case key.Matches(msg, m.keys.GoRegister):
		return m, m.navigate(router.PathRegister)
	case key.Matches(msg, m.keys.GoDiary):
		return m, m.navigate(router.PathDiary)
	case key.Matches(msg, m.keys.GoProfile):
		return m, m.navigate(router.PathProfile)
	}
	return m, nil
}

// bar renders header segments on one background. Spaces inside a segment
// are styled too, otherwise lipgloss resets leave gaps in the bar.
type bar struct {
	bg  lipgloss.Color
	gap string
}

func newBar(color string) bar {
	bg := lipgloss.Color(color)
	return bar{bg: bg, gap: lipgloss.NewStyle().Background(bg).Render(" ")}
}

func (b bar) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	style = style.Background(b.bg)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.gap)
}

func (b bar) join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}
