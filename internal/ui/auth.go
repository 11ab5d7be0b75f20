package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lovary/lovary/internal/router"
)

// authForm is the login or registration form.
type authForm struct {
	title  string
	labels []string
	inputs []textinput.Model
	active int
	err    string
}

const (
	loginEmail = iota
	loginPassword
)

const (
	registerName = iota
	registerEmail
	registerPassword
)

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 128
	in.Width = 32
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newLoginForm() authForm {
	return authForm{
		title:  "Log in",
		labels: []string{"Email", "Password"},
		inputs: []textinput.Model{
			newInput("you@example.com", false),
			newInput("password", true),
		},
	}
}

func newRegisterForm() authForm {
	return authForm{
		title:  "Create account",
		labels: []string{"Name", "Email", "Password"},
		inputs: []textinput.Model{
			newInput("what your partner calls you", false),
			newInput("you@example.com", false),
			newInput("password", true),
		},
	}
}

func (f *authForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.active = 0
	f.err = ""
}

func (f *authForm) focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.active].Focus()
}

func (f *authForm) move(delta int) tea.Cmd {
	n := len(f.inputs)
	f.active = ((f.active+delta)%n + n) % n
	return f.focus()
}

func (f authForm) value(i int) string {
	return f.inputs[i].Value()
}

// missing returns the label of the first empty field.
func (f authForm) missing() string {
	for i, in := range f.inputs {
		if strings.TrimSpace(in.Value()) == "" {
			return f.labels[i]
		}
	}
	return ""
}

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.active], cmd = f.inputs[f.active].Update(msg)
	return f, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m, m.navigate(router.PathHome)
	case msg.String() == "ctrl+r":
		return m, m.navigate(router.PathRegister)
	case key.Matches(msg, m.keys.NextField):
		return m, m.login.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.login.move(-1)
	case key.Matches(msg, m.keys.Submit):
		if m.login.active < len(m.login.inputs)-1 && m.login.value(m.login.active) != "" {
			return m, m.login.move(1)
		}
		return m.submitLogin()
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.busy || m.session == nil {
		return m, nil
	}
	if field := m.login.missing(); field != "" {
		m.login.err = field + " is required"
		return m, nil
	}
	m.login.err = ""
	m.busy = true
	ctx, sess := m.ctx, m.session
	email, password := m.login.value(loginEmail), m.login.value(loginPassword)
	return m, func() tea.Msg {
		return authResultMsg{err: sess.Login(ctx, email, password)}
	}
}

func (m Model) handleRegisterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m, m.navigate(router.PathHome)
	case msg.String() == "ctrl+l":
		return m, m.navigate(router.PathLogin)
	case key.Matches(msg, m.keys.NextField):
		return m, m.register.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.register.move(-1)
	case key.Matches(msg, m.keys.Submit):
		if m.register.active < len(m.register.inputs)-1 && m.register.value(m.register.active) != "" {
			return m, m.register.move(1)
		}
		return m.submitRegister()
	}
	var cmd tea.Cmd
	m.register, cmd = m.register.update(msg)
	return m, cmd
}

func (m Model) submitRegister() (tea.Model, tea.Cmd) {
	if m.busy || m.session == nil {
		return m, nil
	}
	if field := m.register.missing(); field != "" {
		m.register.err = field + " is required"
		return m, nil
	}
	m.register.err = ""
	m.busy = true
	ctx, sess := m.ctx, m.session
	name := m.register.value(registerName)
	email := m.register.value(registerEmail)
	password := m.register.value(registerPassword)
	return m, func() tea.Msg {
		return authResultMsg{err: sess.Register(ctx, email, password, name)}
	}
}

func (m Model) renderAuthForm(f authForm, hint string) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := styles.MutedText.Width(10).Render(f.labels[i])
		if i == f.active {
			label = styles.AccentText.Width(10).Render(f.labels[i])
		}
		b.WriteString(label)
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(styles.InfoText.Render("Working..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render(hint))
	}

	panel := styles.FocusPanel.Width(50).Render(b.String())
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, panel)
}
