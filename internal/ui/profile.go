package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/router"
)

type profileState struct {
	cursor     int // index into incoming requests
	requesting bool
	email      textinput.Model
}

func newProfileState() profileState {
	return profileState{email: newInput("partner@example.com", false)}
}

// clamp keeps the cursor inside a list of n requests.
func (p *profileState) clamp(n int) {
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *profileState) openRequest() tea.Cmd {
	p.requesting = true
	p.email.Reset()
	return p.email.Focus()
}

func (p *profileState) closeRequest() {
	p.requesting = false
	p.email.Blur()
}

func (m Model) selectedRequest() (api.PartnerRequest, bool) {
	incoming := m.snapshot.IncomingRequests()
	if len(incoming) == 0 || m.profile.cursor >= len(incoming) {
		return api.PartnerRequest{}, false
	}
	return incoming[m.profile.cursor], true
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.profile.requesting {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.profile.closeRequest()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			email := strings.TrimSpace(m.profile.email.Value())
			if email == "" || m.backend == nil {
				return m, nil
			}
			m.profile.closeRequest()
			m.busy = true
			return m, m.sendRequestCmd(email)
		}
		var cmd tea.Cmd
		m.profile.email, cmd = m.profile.email.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.GoDiary):
		return m, m.navigate(router.PathDiary)
	case key.Matches(msg, m.keys.Up):
		m.profile.cursor--
		m.profile.clamp(len(m.snapshot.IncomingRequests()))
	case key.Matches(msg, m.keys.Down):
		m.profile.cursor++
		m.profile.clamp(len(m.snapshot.IncomingRequests()))
	case key.Matches(msg, m.keys.Refresh):
		return m, m.requestRefresh()
	case key.Matches(msg, m.keys.SendRequest):
		if m.snapshot.Me.HasPartner() {
			m.setStatus("Already connected to a partner")
			return m, nil
		}
		return m, m.profile.openRequest()
	case key.Matches(msg, m.keys.Accept):
		if req, ok := m.selectedRequest(); ok && m.backend != nil {
			m.busy = true
			return m, m.respondCmd(req, true)
		}
	case key.Matches(msg, m.keys.Reject):
		if req, ok := m.selectedRequest(); ok && m.backend != nil {
			m.busy = true
			return m, m.respondCmd(req, false)
		}
	case key.Matches(msg, m.keys.Disconnect):
		if !m.snapshot.Me.HasPartner() || m.backend == nil {
			return m, nil
		}
		name := "your partner"
		if p := m.snapshot.Me.Partner; p != nil {
			name = p.DisplayName()
		}
		m.modal = newConfirmModal(
			"Disconnect partner",
			fmt.Sprintf("Disconnect from %s? Shared entries stay on the server.", name),
			m.disconnectCmd(),
		)
	}
	return m, nil
}

func (m Model) sendRequestCmd(email string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		if _, err := backend.SendPartnerRequest(ctx, email); err != nil {
			return actionMsg{err: fmt.Errorf("send request: %w", err)}
		}
		return actionMsg{status: "Request sent to " + email}
	}
}

func (m Model) respondCmd(req api.PartnerRequest, accept bool) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		var err error
		if accept {
			_, err = backend.AcceptPartnerRequest(ctx, req.ID)
		} else {
			_, err = backend.RejectPartnerRequest(ctx, req.ID)
		}
		if err != nil {
			return actionMsg{err: err}
		}
		if accept {
			return actionMsg{status: "Connected with " + req.Requester.DisplayName()}
		}
		return actionMsg{status: "Request rejected"}
	}
}

func (m Model) disconnectCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		if _, err := backend.DisconnectPartner(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("disconnect: %w", err)}
		}
		return actionMsg{status: "Partner disconnected", reloadMonth: true}
	}
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	var b strings.Builder

	if !snap.HasMe {
		b.WriteString(styles.FaintText.Render("Loading profile..."))
		if snap.LastError != nil {
			b.WriteString("\n")
			b.WriteString(styles.DangerText.Render(errorText(snap.LastError)))
		}
		return styles.Panel.Render(b.String())
	}

	me := snap.Me
	row := func(label, value string) {
		b.WriteString(styles.MutedText.Width(12).Render(label))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	b.WriteString(styles.AccentText.Bold(true).Render("Profile"))
	b.WriteString("\n\n")
	row("Name", me.DisplayName())
	row("Email", me.Email)
	if t := me.ParsedCreatedAt(); !t.IsZero() {
		row("Joined", t.Local().Format(time.DateOnly))
	}
	if me.ReminderTime != "" {
		row("Reminder", me.ReminderTime)
	}
	switch {
	case me.Partner != nil:
		row("Partner", me.Partner.DisplayName()+" <"+me.Partner.Email+">")
	case me.HasPartner():
		row("Partner", "connected")
	default:
		row("Partner", styles.FaintText.Render("none, press s to send a request"))
	}

	incoming := snap.IncomingRequests()
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render(fmt.Sprintf("Incoming requests (%d)", len(incoming))))
	b.WriteString("\n")
	if len(incoming) == 0 {
		b.WriteString(styles.FaintText.Render("none"))
		b.WriteString("\n")
	}
	for i, req := range incoming {
		line := fmt.Sprintf("%s <%s>", req.Requester.DisplayName(), req.Requester.Email)
		if i == m.profile.cursor {
			b.WriteString(styles.Selected.Render(line))
			b.WriteString(styles.FaintText.Render("  y accept · n reject"))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}

	var outgoing []api.PartnerRequest
	for _, req := range snap.PartnerRequests {
		if req.Status == "pending" && req.RequesterID == me.ID {
			outgoing = append(outgoing, req)
		}
	}
	if len(outgoing) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render("Sent requests"))
		b.WriteString("\n")
		for _, req := range outgoing {
			b.WriteString(styles.StatusText(statusPending).Render("… "))
			b.WriteString(styles.Text.Render(req.Recipient.Email))
			b.WriteString("\n")
		}
	}

	if m.profile.requesting {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render("Partner email: "))
		b.WriteString(m.profile.email.View())
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("enter send · esc cancel"))
	}

	return styles.Panel.Render(b.String())
}
