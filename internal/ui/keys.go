package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Activity   key.Binding
	Escape     key.Binding

	// Route switching
	GoHome     key.Binding
	GoLogin    key.Binding
	GoRegister key.Binding
	GoDiary    key.Binding
	GoProfile  key.Binding
	Logout     key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Navigation
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding

	// Diary
	TabCalendar    key.Binding
	TabMine        key.Binding
	TabPartner     key.Binding
	Write          key.Binding
	AddAnniversary key.Binding
	Save           key.Binding

	// Profile
	Accept      key.Binding
	Reject      key.Binding
	SendRequest key.Binding
	Disconnect  key.Binding
	Refresh     key.Binding

	// Activity
	ToggleDebug key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Activity: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Activity log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / cancel"),
		),

		GoHome: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "Home"),
		),
		GoLogin: key.NewBinding(
			key.WithKeys("l", "ctrl+l"),
			key.WithHelp("l", "Log in"),
		),
		GoRegister: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "Register"),
		),
		GoDiary: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Diary"),
		),
		GoProfile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Profile"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Log out"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Submit"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Move right"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Jump to today"),
		),

		TabCalendar: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Calendar"),
		),
		TabMine: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "My entries"),
		),
		TabPartner: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Partner entries"),
		),
		Write: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Write entry"),
		),
		AddAnniversary: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add anniversary"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),

		Accept: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Accept request"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Reject request"),
		),
		SendRequest: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Send partner request"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Disconnect partner"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh"),
		),

		ToggleDebug: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Toggle debug lines"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.GoHome, k.GoLogin, k.GoRegister, k.GoDiary, k.GoProfile, k.Logout},
		{k.Up, k.Down, k.Left, k.Right, k.PrevMonth, k.NextMonth, k.Today},
		{k.TabCalendar, k.TabMine, k.TabPartner, k.Write, k.AddAnniversary, k.Save},
		{k.Accept, k.Reject, k.SendRequest, k.Disconnect, k.Refresh},
		{k.Activity, k.ToggleDebug, k.CycleTheme, k.Help, k.Quit},
	}
}
