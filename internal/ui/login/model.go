// Package login is the sign-in form shown over the thread.
package login

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadview/internal/ui/messages"
)

const loginTimeout = 30 * time.Second

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2D9CDB")).
			Padding(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D9CDB")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	activeLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

var (
	nextField = key.NewBinding(key.WithKeys("tab", "down"))
	prevField = key.NewBinding(key.WithKeys("shift+tab", "up"))
	submit    = key.NewBinding(key.WithKeys("enter"))
)

const (
	fieldUser = iota
	fieldPassword
)

// Authenticator signs in to the site.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
}

// Model is the login form view.
type Model struct {
	inputs  []textinput.Model
	labels  []string
	focus   int
	err     string
	pending bool

	auth Authenticator
	site string

	width  int
	height int
}

// New creates a login form for site.
func New(auth Authenticator, site string) Model {
	user := textinput.New()
	user.Placeholder = "anna@example.org"
	user.CharLimit = 254
	user.Width = 32

	pass := textinput.New()
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.Width = 32

	m := Model{
		inputs: []textinput.Model{user, pass},
		labels: []string{"Username or email", "Password"},
		auth:   auth,
		site:   site,
	}
	m.inputs[fieldUser].Focus()
	return m
}

// SetSize sets the area the form is centered in.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) setFocus(i int) {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.LoginResultMsg:
		m.pending = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			m.inputs[fieldPassword].SetValue("")
			m.setFocus(fieldPassword)
		}
		return m, nil

	case tea.KeyMsg:
		if m.pending {
			return m, nil
		}
		switch {
		case key.Matches(msg, nextField):
			m.setFocus(m.focus + 1)
			return m, nil
		case key.Matches(msg, prevField):
			m.setFocus(m.focus - 1)
			return m, nil
		case key.Matches(msg, submit):
			if m.focus == fieldUser && m.inputs[fieldPassword].Value() == "" {
				m.setFocus(fieldPassword)
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUser].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.err = "Username and password required"
		return m, nil
	}
	m.pending = true
	m.err = ""
	auth := m.auth
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		if err := auth.Login(ctx, username, password); err != nil {
			return messages.LoginResultMsg{Err: err}
		}
		return messages.LoginResultMsg{Username: username}
	}
}

// View renders the form centered in its area.
func (m Model) View() string {
	title := "Login"
	if m.site != "" {
		title += " to " + m.site
	}
	lines := []string{titleStyle.Render(title), ""}

	for i, in := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = activeLabel
		}
		lines = append(lines, label.Render(m.labels[i]), in.View(), "")
	}

	if m.err != "" {
		lines = append(lines, errorStyle.Render(m.err), "")
	}
	if m.pending {
		lines = append(lines, "Logging in...")
	} else {
		lines = append(lines, hintStyle.Render("enter submit · tab next field · esc cancel"))
	}

	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
