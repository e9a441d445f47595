package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/auth"
	"github.com/fragmede/threadview/internal/config"
	"github.com/fragmede/threadview/internal/logging"
	"github.com/fragmede/threadview/internal/monitor"
	"github.com/fragmede/threadview/internal/ui/commentview"
	"github.com/fragmede/threadview/internal/ui/login"
	"github.com/fragmede/threadview/internal/ui/messages"
	"github.com/fragmede/threadview/internal/ui/statusbar"
	"github.com/fragmede/threadview/internal/ui/threadview"
)

const restoreTimeout = 15 * time.Second

// ViewType identifies the active view.
type ViewType int

const (
	ViewThread ViewType = iota
	ViewLogin
)

// App is the root Bubble Tea model.
type App struct {
	activeView    ViewType
	previousViews []ViewType

	threadView threadview.Model
	loginForm  login.Model
	statusBar  statusbar.Model
	help       help.Model
	showHelp   bool

	cfg     *config.Config
	session *auth.Session
	monitor *monitor.Monitor
	log     zerolog.Logger

	width  int
	height int

	program *tea.Program
}

// NewApp creates the root application model for one page. mon may be nil
// to disable polling for new comments.
func NewApp(cfg *config.Config, opts threadview.Options, session *auth.Session, mon *monitor.Monitor, site string) *App {
	opts.Viewer = viewerOf(session)
	return &App{
		activeView: ViewThread,
		threadView: threadview.New(opts),
		statusBar:  statusbar.New(site),
		help:       help.New(),
		cfg:        cfg,
		session:    session,
		monitor:    mon,
		log:        logging.Component("app"),
	}
}

func viewerOf(s *auth.Session) commentview.Viewer {
	if s == nil || !s.LoggedIn {
		return commentview.Viewer{}
	}
	return commentview.Viewer{Name: s.Username, Authenticated: true}
}

// SetProgram stores the tea.Program reference and starts the background
// monitor, which reports through it.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
	if a.monitor != nil {
		a.monitor.Start(p.Send)
	}
}

// Init restores a saved session, then loads the thread: comment
// permissions in the list response depend on who is asking.
func (a *App) Init() tea.Cmd {
	if a.session == nil || a.cfg == nil {
		return a.threadView.Init()
	}
	session := a.session
	path := a.cfg.SessionPath()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()
		if session.Load(ctx, path) {
			return messages.SessionRestoredMsg{Username: session.Username}
		}
		return messages.SessionRestoredMsg{}
	}
}

func (a *App) quit() tea.Cmd {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	return tea.Quit
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.statusBar.SetSize(msg.Width)
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if a.activeView == ViewLogin {
			switch msg.String() {
			case "esc":
				return a, a.goBack()
			case "ctrl+c":
				return a, a.quit()
			}
			break
		}
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		if a.threadView.InputActive() {
			break
		}
		switch {
		case key.Matches(msg, Keys.Quit):
			return a, a.quit()
		case key.Matches(msg, Keys.Help):
			a.showHelp = !a.showHelp
			a.resize()
			return a, nil
		case key.Matches(msg, Keys.Back):
			if a.showHelp {
				a.showHelp = false
				a.resize()
				return a, nil
			}
		case key.Matches(msg, Keys.Login):
			return a, a.openLogin()
		}

	case messages.OpenLoginMsg:
		return a, a.openLogin()

	case messages.SessionRestoredMsg:
		a.statusBar.SetUser(msg.Username)
		return a, tea.Batch(a.threadView.SetViewer(viewerOf(a.session)), a.threadView.Init())

	case messages.LoginResultMsg:
		if msg.Err == nil {
			a.statusBar.SetUser(msg.Username)
			if err := a.session.Save(a.cfg.SessionPath()); err != nil {
				a.log.Error().Err(err).Msg("saving session")
			}
			a.goBack()
			// Permissions depend on the viewer, so reload what the server
			// says about the thread.
			return a, tea.Batch(a.threadView.SetViewer(viewerOf(a.session)), a.threadView.Refresh())
		}
		// The login form shows the error.

	case messages.ThreadLoadedMsg:
		if msg.Thread != nil && a.monitor != nil {
			if n := a.monitor.Unseen(msg.Thread); n > 0 {
				a.statusBar.SetStatus(fmt.Sprintf("%d new since your last visit", n), false)
			}
			a.monitor.Track(msg.Thread)
		}
		a.statusBar.SetOffline(msg.FromCache)
		a.statusBar.SetNewComments(0)

	case messages.NewCommentsMsg:
		a.statusBar.SetNewComments(msg.Count)
		return a, nil

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil

	case messages.OpenURLMsg:
		a.statusBar.SetStatus("Opening: "+msg.URL, false)
		go openBrowser(msg.URL)
		return a, nil
	}

	var cmd tea.Cmd
	switch a.activeView {
	case ViewThread:
		a.threadView, cmd = a.threadView.Update(msg)
		cmds = append(cmds, cmd)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
		cmds = append(cmds, cmd)
		// Node results arrive while the login form is open.
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			a.threadView, cmd = a.threadView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) openLogin() tea.Cmd {
	if a.session == nil || a.session.LoggedIn || a.activeView == ViewLogin {
		return nil
	}
	a.pushView(ViewLogin)
	a.loginForm = login.New(a.session, a.session.Host())
	a.resize()
	return nil
}

func (a *App) contentHeight() int {
	h := a.height - 1 // status bar
	if a.showHelp {
		h -= lipgloss.Height(a.helpView())
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) resize() {
	h := a.contentHeight()
	a.threadView.SetSize(a.width, h)
	a.loginForm.SetSize(a.width, h)
}

func (a *App) helpView() string {
	return HelpBoxStyle.Render(a.help.FullHelpView(Keys.FullHelp()))
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewThread:
		content = a.threadView.View()
	case ViewLogin:
		content = a.loginForm.View()
	}

	parts := []string{content}
	if a.showHelp {
		parts = append(parts, a.helpView())
	}
	parts = append(parts, a.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	return nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return
	}
	_ = cmd.Run()
}
