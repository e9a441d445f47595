package statusbar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func segment(bg, fg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(fg)).
		Padding(0, 1)
}

var (
	barStyle     = lipgloss.NewStyle().Background(lipgloss.Color("#333333"))
	appStyle     = segment("#2D9CDB", "#FFFFFF").Bold(true)
	siteStyle    = segment("#555555", "#CCCCCC")
	userStyle    = segment("#333333", "#32CD32")
	newStyle     = segment("#FF6600", "#FFFFFF").Bold(true)
	offlineStyle = segment("#8B0000", "#FFFFFF").Bold(true)
	infoStyle    = segment("#333333", "#AAAAAA")
	errStyle     = segment("#333333", "#FF6666")
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	site        string
	username    string
	newComments int
	statusText  string
	statusErr   bool
	offline     bool
}

// New creates a new status bar for the given site.
func New(site string) Model {
	return Model{site: site}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetUser sets the logged-in username; "" means anonymous.
func (m *Model) SetUser(username string) {
	m.username = username
}

// SetNewComments sets how many comments arrived since the thread was loaded.
func (m *Model) SetNewComments(count int) {
	m.newComments = count
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.statusErr = isError
}

// Status returns the current status message.
func (m Model) Status() string {
	return m.statusText
}

// SetOffline sets the offline indicator.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar: app and site on the left, state on the
// right.
func (m Model) View() string {
	left := appStyle.Render("threadview")
	if m.site != "" {
		left += siteStyle.Render(m.site)
	}

	var segs []string
	if m.offline {
		segs = append(segs, offlineStyle.Render("OFFLINE"))
	}
	if m.newComments > 0 {
		segs = append(segs, newStyle.Render(fmt.Sprintf("%d new, ctrl+r", m.newComments)))
	}
	if m.username != "" {
		segs = append(segs, userStyle.Render(m.username))
	} else {
		segs = append(segs, infoStyle.Render("L:login"))
	}
	switch {
	case m.statusText == "":
	case m.statusErr:
		segs = append(segs, errStyle.Render(m.statusText))
	default:
		segs = append(segs, infoStyle.Render(m.statusText))
	}
	right := strings.Join(segs, "")

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + barStyle.Width(gap).Render("") + right
}
