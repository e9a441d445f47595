// Package form is the textarea composer used for replies, edits and new
// comments.
package form

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/thread"
)

// MaxLength is the longest comment the server accepts, in characters.
const MaxLength = 4000

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D9CDB")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4D"))
	choiceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D9CDB")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
)

// ValidationError is a problem with the form input found before sending.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrorText turns a submission error into the text shown under a form.
func ErrorText(err error) string {
	var ve *api.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message()
	case errors.Is(err, api.ErrNotAuthenticated):
		return "You need to log in first."
	case errors.Is(err, api.ErrForbidden):
		return "You are not allowed to do this."
	default:
		return "Something went wrong, please try again: " + err.Error()
	}
}

type choice struct {
	key      string
	label    string
	selected bool
}

// Options configures a new form.
type Options struct {
	Title       string
	Placeholder string
	// Subject and ParentIndex say where a submission goes.
	Subject     thread.Subject
	ParentIndex int
	Initial     string
	Choices     []thread.Category
	Selected    []string
	Rows        int
}

// Model is a comment composer.
type Model struct {
	textarea    textarea.Model
	title       string
	subject     thread.Subject
	parentIndex int
	choices     []choice
	// focus is 0 for the textarea, i+1 for choice i.
	focus   int
	invalid string
	pending bool
}

// New creates a form.
func New(o Options) Model {
	ta := textarea.New()
	ta.Placeholder = o.Placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(60)
	rows := o.Rows
	if rows < 1 {
		rows = 3
	}
	ta.SetHeight(rows)
	ta.SetValue(o.Initial)

	m := Model{
		textarea:    ta,
		title:       o.Title,
		subject:     o.Subject,
		parentIndex: o.ParentIndex,
	}
	for _, c := range o.Choices {
		m.choices = append(m.choices, choice{
			key:      c.Key,
			label:    c.Label,
			selected: slices.Contains(o.Selected, c.Key),
		})
	}
	return m
}

// Subject returns where the form submits to.
func (m Model) Subject() thread.Subject { return m.subject }

// ParentIndex returns the index context the form was opened with.
func (m Model) ParentIndex() int { return m.parentIndex }

// Value returns the trimmed text.
func (m Model) Value() string {
	return strings.TrimSpace(m.textarea.Value())
}

// Selected returns the keys of the checked categories in choice order.
func (m Model) Selected() []string {
	var keys []string
	for _, c := range m.choices {
		if c.selected {
			keys = append(keys, c.key)
		}
	}
	return keys
}

// HasChoices reports whether the form offers categories.
func (m Model) HasChoices() bool { return len(m.choices) > 0 }

// Validate checks the input and keeps the message for display.
func (m *Model) Validate() error {
	m.invalid = ""
	text := m.Value()
	var err error
	switch {
	case text == "":
		err = &ValidationError{Message: "Comment cannot be empty"}
	case utf8.RuneCountInString(text) > MaxLength:
		err = &ValidationError{Message: fmt.Sprintf("Comment is too long (%d of max %d characters)", utf8.RuneCountInString(text), MaxLength)}
	}
	if err != nil {
		m.invalid = err.Error()
	}
	return err
}

// SetPending marks a submission in flight.
func (m *Model) SetPending(p bool) { m.pending = p }

// Pending reports whether a submission is in flight.
func (m Model) Pending() bool { return m.pending }

// Reset clears the text after a successful submission.
func (m *Model) Reset() {
	m.textarea.Reset()
	m.invalid = ""
	for i := range m.choices {
		m.choices[i].selected = false
	}
}

// Focus gives the textarea keyboard focus.
func (m *Model) Focus() tea.Cmd {
	m.focus = 0
	return m.textarea.Focus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focus = 0
	m.textarea.Blur()
}

// Focused reports whether the form takes keyboard input.
func (m Model) Focused() bool { return m.textarea.Focused() || m.focus > 0 }

// SetWidth sets the textarea width.
func (m *Model) SetWidth(w int) {
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	m.textarea.SetWidth(w)
}

// Update handles typing. Tab moves between the textarea and the category
// choices; space toggles the focused choice.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && len(m.choices) > 0 {
		switch km.String() {
		case "tab":
			m.focus = (m.focus + 1) % (len(m.choices) + 1)
			if m.focus == 0 {
				return m, m.textarea.Focus()
			}
			m.textarea.Blur()
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + len(m.choices)) % (len(m.choices) + 1)
			if m.focus == 0 {
				return m, m.textarea.Focus()
			}
			m.textarea.Blur()
			return m, nil
		case " ":
			if m.focus > 0 {
				c := &m.choices[m.focus-1]
				c.selected = !c.selected
				return m, nil
			}
		}
		if m.focus > 0 {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the form. submitErr is the externally owned error state of
// the last submission.
func (m Model) View(submitErr error) string {
	var sb strings.Builder

	if m.title != "" {
		sb.WriteString(titleStyle.Render(m.title))
		sb.WriteString("\n")
	}
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n")

	if len(m.choices) > 0 {
		for i, c := range m.choices {
			box := "[ ]"
			if c.selected {
				box = "[x]"
			}
			line := box + " " + c.label
			if m.focus == i+1 {
				sb.WriteString(cursorStyle.Render("> " + line))
			} else {
				sb.WriteString(choiceStyle.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	if m.invalid != "" {
		sb.WriteString(errorStyle.Render(m.invalid))
		sb.WriteString("\n")
	}
	if text := ErrorText(submitErr); text != "" {
		sb.WriteString(errorStyle.Render(text))
		sb.WriteString(" ")
		sb.WriteString(hintStyle.Render("(ctrl+x to dismiss)"))
		sb.WriteString("\n")
	}

	if m.pending {
		sb.WriteString(pendingStyle.Render("Submitting..."))
	} else {
		hint := "ctrl+s submit | esc cancel"
		if len(m.choices) > 0 {
			hint += " | tab categories"
		}
		sb.WriteString(hintStyle.Render(hint))
	}
	return sb.String()
}
