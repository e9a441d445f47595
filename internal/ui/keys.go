package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Help     key.Binding
	Login    key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Parent   key.Binding
	NextSib  key.Binding
	Replies  key.Binding
	Reply    key.Binding
	Compose  key.Binding
	Edit     key.Binding
	Delete   key.Binding
	ReadMore key.Binding
	Share    key.Binding
	Report   key.Binding
	RateUp   key.Binding
	RateDown key.Binding
	Ack      key.Binding
	Profile  key.Binding
	Submit   key.Binding
}

var Keys = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
	PageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "page up")),
	PageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "page down")),
	Home:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	End:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Parent:   key.NewBinding(key.WithKeys("p", "["), key.WithHelp("p", "parent")),
	NextSib:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next sibling")),
	Replies:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "show/hide replies")),
	Reply:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reply")),
	Compose:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new comment")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	ReadMore: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "read more/less")),
	Share:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
	Report:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "report")),
	RateUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "agree")),
	RateDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "disagree")),
	Ack:      key.NewBinding(key.WithKeys("a", "ctrl+x"), key.WithHelp("a", "dismiss error")),
	Profile:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "author profile")),
	Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Replies, k.Reply, k.Compose, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End, k.Parent, k.NextSib},
		{k.Replies, k.Reply, k.Compose, k.Edit, k.Delete, k.ReadMore, k.Submit},
		{k.Share, k.Report, k.RateUp, k.RateDown, k.Ack, k.Profile},
		{k.Refresh, k.Login, k.Help, k.Back, k.Quit},
	}
}
