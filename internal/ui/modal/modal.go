// Package modal shows the confirmation, report and share dialogs of the
// thread view as huh forms drawn over the comment list.
package modal

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadview/internal/ui/messages"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#2D9CDB")).
	Padding(1, 2)

// ConfirmMsg asks the user to confirm an action. OnConfirm runs only on
// the affirmative answer.
type ConfirmMsg struct {
	Name        string
	Title       string
	Affirmative string
	Negative    string
	OnConfirm   tea.Cmd
}

// ReportMsg asks for a reason to report an object to the moderation.
type ReportMsg struct {
	Name        string
	Title       string
	ContentType int
	ObjectID    int
	OnSubmit    func(reason string) tea.Cmd
}

// ShareMsg shows a link to an object.
type ShareMsg struct {
	Name     string
	Title    string
	ObjectID int
	URL      string
}

// ClosedMsg is sent when a dialog goes away. Completed is false when the
// user aborted it.
type ClosedMsg struct {
	Name      string
	Completed bool
}

// Model is at most one open dialog.
type Model struct {
	name   string
	form   *huh.Form
	active bool
	width  int

	confirmed *bool
	reason    *string
	onDone    func() tea.Cmd
}

// New returns a closed modal.
func New() Model {
	return Model{width: 60}
}

// Active reports whether a dialog is open.
func (m Model) Active() bool { return m.active }

// Name returns the name of the open dialog.
func (m Model) Name() string { return m.name }

// SetWidth limits the dialog width.
func (m *Model) SetWidth(w int) {
	m.width = min(max(w-8, 30), 80)
	if m.form != nil {
		m.form = m.form.WithWidth(m.width)
	}
}

// Open shows the dialog requested by msg. Messages that are not dialog
// requests are ignored.
func (m Model) Open(msg tea.Msg) (Model, tea.Cmd) {
	confirmed := false
	reason := ""
	m.confirmed = &confirmed
	m.reason = &reason

	switch msg := msg.(type) {
	case ConfirmMsg:
		m.name = msg.Name
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(msg.Title).
				Affirmative(orDefault(msg.Affirmative, "Yes")).
				Negative(orDefault(msg.Negative, "No")).
				Value(m.confirmed),
		))
		onConfirm := msg.OnConfirm
		m.onDone = func() tea.Cmd {
			if *m.confirmed {
				return onConfirm
			}
			return nil
		}

	case ReportMsg:
		m.name = msg.Name
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewText().
				Title(msg.Title).
				Placeholder("Why should the moderation look at this?").
				Lines(4).
				CharLimit(1000).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("please give a reason")
					}
					return nil
				}).
				Value(m.reason),
			huh.NewConfirm().
				Affirmative("Send report").
				Negative("Cancel").
				Value(m.confirmed),
		))
		onSubmit := msg.OnSubmit
		m.onDone = func() tea.Cmd {
			if *m.confirmed && onSubmit != nil {
				return onSubmit(strings.TrimSpace(*m.reason))
			}
			return nil
		}

	case ShareMsg:
		m.name = msg.Name
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewNote().
				Title(msg.Title).
				Description(msg.URL),
			huh.NewConfirm().
				Affirmative("Open in browser").
				Negative("Close").
				Value(m.confirmed),
		))
		link := msg.URL
		m.onDone = func() tea.Cmd {
			if *m.confirmed {
				return func() tea.Msg { return messages.OpenURLMsg{URL: link} }
			}
			return nil
		}

	default:
		return m, nil
	}

	m.active = true
	m.form = m.form.WithTheme(huh.ThemeCharm()).WithWidth(m.width).WithShowHelp(true)
	return m, m.form.Init()
}

// Update forwards input to the open dialog. Esc aborts it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		return m.close(false, nil)
	}

	fm, cmd := m.form.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.close(true, cmd)
	case huh.StateAborted:
		return m.close(false, cmd)
	}
	return m, cmd
}

func (m Model) close(completed bool, cmd tea.Cmd) (Model, tea.Cmd) {
	name := m.name
	var done tea.Cmd
	if completed && m.onDone != nil {
		done = m.onDone()
	}
	m.active = false
	m.form = nil
	m.onDone = nil
	closed := func() tea.Msg { return ClosedMsg{Name: name, Completed: completed} }
	return m, tea.Batch(cmd, done, closed)
}

// View renders the dialog box, or nothing when closed.
func (m Model) View() string {
	if !m.active || m.form == nil {
		return ""
	}
	return boxStyle.Render(m.form.View())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
