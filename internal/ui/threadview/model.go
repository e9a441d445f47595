package threadview

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/cache"
	"github.com/fragmede/threadview/internal/logging"
	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/commentview"
	"github.com/fragmede/threadview/internal/ui/form"
	"github.com/fragmede/threadview/internal/ui/messages"
	"github.com/fragmede/threadview/internal/ui/modal"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Padding(0, 1)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

const (
	scrollStep  = 3
	loadTimeout = 60 * time.Second
)

type entryOffset struct {
	startLine int
	endLine   int
}

// Options configures a thread view.
type Options struct {
	PageURL  string
	AnchorID int

	Client   Client
	Cache    *cache.DB
	Renderer *commentview.Renderer
	Viewer   commentview.Viewer

	// WithCategories overrides the page's setting when set. Categories
	// are used when the page offers none.
	WithCategories *bool
	Categories     []thread.Category

	CommentTTL  time.Duration
	WidgetTTL   time.Duration
	DateLayout  string
	BannerDelay time.Duration
}

// Model is the comment thread of one page.
type Model struct {
	opts     Options
	viewport viewport.Model
	log      zerolog.Logger

	env      *commentview.Env
	cb       *callbacks
	top      *commentview.List
	errs     map[int]commentview.ErrorState
	ingester *thread.Ingester

	widget    *api.Widget
	meta      api.ThreadMeta
	fromCache bool
	loading   bool
	loadErr   error

	entries  []Entry
	offsets  []entryOffset
	selected int

	modal        modal.Model
	compose      *form.Model
	composeToken string
	composeErr   error

	width  int
	height int
}

// New creates a thread view. Call Init to load the page.
func New(opts Options) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")

	errs := make(map[int]commentview.ErrorState)
	ingester := thread.NewIngester()
	log := logging.Component("threadview")
	cb := &callbacks{
		client:   opts.Client,
		cache:    opts.Cache,
		ingester: ingester,
		errs:     errs,
		log:      log,
	}
	env := &commentview.Env{
		Viewer:      opts.Viewer,
		PageURL:     opts.PageURL,
		DateLayout:  opts.DateLayout,
		BannerDelay: opts.BannerDelay,
		Errors:      func(id int) commentview.ErrorState { return errs[id] },
		Fresh:       make(map[int]bool),
		Callbacks:   cb,
	}

	return Model{
		opts:         opts,
		viewport:     vp,
		log:          log,
		env:          env,
		cb:           cb,
		errs:         errs,
		ingester:     ingester,
		loading:      true,
		modal:        modal.New(),
		composeToken: uuid.NewString(),
	}
}

// Init loads the page's widget and comments.
func (m Model) Init() tea.Cmd {
	return m.load(false)
}

func (m Model) load(force bool) tea.Cmd {
	client, db, opts := m.opts.Client, m.opts.Cache, m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return fetchThread(ctx, client, db, opts, force)
	}
}

// fetchThread reads the widget and the comment list, preferring fresh
// cache entries unless force is set. When the server cannot be reached the
// stale cached copy is returned with FromCache set.
func fetchThread(ctx context.Context, client Client, db *cache.DB, opts Options, force bool) messages.ThreadLoadedMsg {
	log := logging.Component("threadview")

	var widget, staleWidget *api.Widget
	if db != nil {
		w, fresh, err := db.GetWidget(opts.PageURL, opts.WidgetTTL)
		if err != nil {
			log.Error().Err(err).Msg("reading cached widget")
		}
		if w != nil && fresh {
			widget = w
		}
		staleWidget = w
	}
	if widget == nil {
		w, err := client.FetchWidget(ctx, opts.PageURL)
		switch {
		case err == nil:
			widget = w
			if db != nil {
				if err := db.PutWidget(opts.PageURL, w); err != nil {
					log.Error().Err(err).Msg("caching widget")
				}
			}
		case staleWidget != nil:
			log.Warn().Err(err).Msg("using cached widget")
			widget = staleWidget
		default:
			return messages.ThreadLoadedMsg{Err: fmt.Errorf("load page: %w", err)}
		}
	}

	s := widget.Subject()
	var stale *api.Thread
	if db != nil {
		t, fresh, err := db.GetThread(s, opts.CommentTTL)
		if err != nil {
			log.Error().Err(err).Msg("reading cached thread")
		}
		if t != nil && fresh && !force {
			log.Debug().Stringer("subject", s).Msg("cache hit")
			return messages.ThreadLoadedMsg{Widget: widget, Thread: t}
		}
		stale = t
	}

	t, err := client.ListComments(ctx, s)
	if err != nil {
		if stale != nil {
			log.Warn().Err(err).Stringer("subject", s).Msg("serving stale thread")
			return messages.ThreadLoadedMsg{Widget: widget, Thread: stale, FromCache: true}
		}
		return messages.ThreadLoadedMsg{Widget: widget, Err: fmt.Errorf("load comments: %w", err)}
	}
	if db != nil {
		if err := db.PutThread(t); err != nil {
			log.Error().Err(err).Msg("caching thread")
		}
	}
	return messages.ThreadLoadedMsg{Widget: widget, Thread: t}
}

// Refresh refetches the thread, bypassing the cache. Open comments stay
// open when they still exist.
func (m *Model) Refresh() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.rebuildContent()
	return m.load(true)
}

// SetViewer updates who is looking, e.g. after logging in or out.
func (m *Model) SetViewer(v commentview.Viewer) tea.Cmd {
	m.opts.Viewer = v
	if m.env.Store != nil && v.ID == 0 {
		v.ID = m.env.Store.ViewerID()
	}
	m.env.Viewer = v
	if m.top == nil {
		return nil
	}
	cmd := m.top.Sync()
	m.rebuild()
	return cmd
}

// Store returns the comment store, nil until the thread is loaded.
func (m Model) Store() *thread.Store { return m.env.Store }

// Subject returns the commented object, zero until loaded.
func (m Model) Subject() api.Subject {
	if m.widget == nil {
		return api.Subject{}
	}
	return m.widget.Subject()
}

// Entries returns the flattened visible thread.
func (m Model) Entries() []Entry { return m.entries }

// Selected returns the cursor position in Entries.
func (m Model) Selected() int { return m.selected }

// Errors returns the submission errors of comment id.
func (m Model) Errors(id int) commentview.ErrorState { return m.errs[id] }

// InputActive reports whether keys go to a form or dialog.
func (m Model) InputActive() bool {
	if m.modal.Active() {
		return true
	}
	if m.compose != nil && m.compose.Focused() {
		return true
	}
	return m.focusedNode() != nil
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.modal.SetWidth(w)
	m.resizeViewport()
	m.rebuildContent()
}

func (m *Model) resizeViewport() {
	headerLines := strings.Count(m.renderHeader(), "\n") + 1
	m.viewport.Height = m.height - headerLines
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ThreadLoadedMsg:
		return m.loaded(msg)

	case modal.ConfirmMsg, modal.ReportMsg, modal.ShareMsg:
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Open(msg)
		return m, cmd

	case modal.ClosedMsg:
		m.rebuild()
		return m, nil

	case messages.ReplyResultMsg:
		if msg.Token == m.composeToken {
			return m.composed(msg)
		}
		return m.routeResult(msg)

	case messages.EditResultMsg, messages.DeleteResultMsg, messages.RatedMsg, messages.BannerExpiredMsg:
		return m.routeResult(msg)

	case messages.ReportedMsg:
		return m, reportStatus(msg)

	case tea.KeyMsg:
		if m.modal.Active() {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		if m.compose != nil && m.compose.Focused() {
			return m.updateCompose(msg)
		}
		if n := m.focusedNode(); n != nil {
			var cmd tea.Cmd
			if n.EditFocused() {
				cmd = n.UpdateEditForm(msg)
			} else {
				cmd = n.UpdateReplyForm(msg)
			}
			m.rebuild()
			return m, cmd
		}
		return m.handleKey(msg)
	}

	if m.modal.Active() {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}

	// Messages private to the comment nodes, such as a confirmed delete.
	if m.top != nil {
		if ok, cmd := m.top.Route(msg); ok {
			m.rebuild()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) loaded(msg messages.ThreadLoadedMsg) (Model, tea.Cmd) {
	m.loading = false
	if msg.Thread == nil {
		m.loadErr = msg.Err
		if m.loadErr == nil {
			m.loadErr = fmt.Errorf("no comments found")
		}
		m.rebuildContent()
		return m, nil
	}
	m.loadErr = nil
	m.widget = msg.Widget
	m.meta = msg.Thread.Meta
	m.fromCache = msg.FromCache

	store := m.ingester.Build(msg.Thread)
	firstLoad := m.env.Store == nil
	m.env.Store = store
	if m.cb.subject != store.Subject || m.cb.commentType != store.CommentType {
		m.cb.subject = store.Subject
		m.cb.commentType = store.CommentType
	}

	if msg.Widget != nil {
		m.env.ReadOnly = msg.Widget.IsReadOnly
		m.env.ContextMember = msg.Widget.IsContextMember
		m.env.WithCategories = msg.Widget.WithCategories
		m.env.CategoryChoices = nil
		for _, c := range msg.Widget.CommentCategoryChoices {
			m.env.CategoryChoices = append(m.env.CategoryChoices, thread.Category{Key: c.Key, Label: c.Label})
		}
	}
	if m.opts.WithCategories != nil {
		m.env.WithCategories = *m.opts.WithCategories
	}
	if len(m.env.CategoryChoices) == 0 {
		m.env.CategoryChoices = m.opts.Categories
	}
	m.env.CanComment = msg.Thread.Meta.HasCommentingPermission

	viewer := m.opts.Viewer
	if viewer.ID == 0 {
		viewer.ID = store.ViewerID()
	}
	m.env.Viewer = viewer

	if firstLoad {
		anchorID := m.opts.AnchorID
		if anchorID == 0 && msg.Widget != nil {
			anchorID = msg.Widget.AnchoredCommentID.Int()
		}
		m.env.Anchor = store.AnchorContext(anchorID)
		m.top = commentview.NewList(m.env, 0, -1)
	} else {
		m.env.Anchor = store.AnchorContext(m.env.Anchor.ID)
	}

	cmd := m.top.Sync()
	m.resizeViewport()
	m.rebuild()
	if firstLoad && m.env.Anchor.ID != 0 {
		m.selectAnchor(store)
		m.scrollToCursor()
	}

	if msg.FromCache {
		cmd = tea.Batch(cmd, status("Offline: showing cached comments", true))
	}
	return m, cmd
}

// routeResult hands a node result to the node that issued it, then applies
// it to the store. A node that is gone keeps no local state, but what the
// server accepted still lands in the store; its failures only reach the
// status bar.
func (m Model) routeResult(msg tea.Msg) (Model, tea.Cmd) {
	if m.top == nil {
		return m, nil
	}
	ok, cmd := m.top.Route(msg)
	if !ok {
		if _, isBanner := msg.(messages.BannerExpiredMsg); isBanner {
			return m, nil
		}
		if err := resultErr(msg); err != nil {
			m.log.Debug().Err(err).Type("msg", msg).Msg("failure for unmounted comment")
			return m, status(form.ErrorText(err), true)
		}
		m.log.Debug().Type("msg", msg).Msg("applying result for unmounted comment")
	}

	cmds := []tea.Cmd{cmd}
	changed, statusCmd := m.apply(msg)
	cmds = append(cmds, statusCmd)
	if changed {
		cmds = append(cmds, m.top.Sync())
	}
	m.rebuild()
	return m, tea.Batch(cmds...)
}

// apply writes a result into the store and the error state.
func (m *Model) apply(msg tea.Msg) (bool, tea.Cmd) {
	store := m.env.Store
	switch msg := msg.(type) {
	case messages.EditResultMsg:
		e := m.errs[msg.Pos.ID]
		if msg.Err != nil {
			e.Edit = msg.Err
			m.cb.setErrors(msg.Pos.ID, e)
			return false, nil
		}
		e.Edit = nil
		m.cb.setErrors(msg.Pos.ID, e)
		if err := store.Replace(msg.Comment); err != nil {
			m.log.Warn().Err(err).Msg("applying edit")
			return false, nil
		}
		return true, nil

	case messages.ReplyResultMsg:
		e := m.errs[msg.Parent.ID]
		if msg.Err != nil {
			e.Reply = msg.Err
			m.cb.setErrors(msg.Parent.ID, e)
			return false, nil
		}
		e.Reply = nil
		m.cb.setErrors(msg.Parent.ID, e)
		return m.insert(msg.Comment), nil

	case messages.DeleteResultMsg:
		if msg.Err != nil {
			return false, status("Could not delete comment: "+form.ErrorText(msg.Err), true)
		}
		at := time.Now()
		st := thread.StatusRemovedByAuthor
		if c := msg.Comment; c != nil {
			if c.Status.Deleted() {
				st = c.Status
			}
			if c.ModifiedAt != nil {
				at = *c.ModifiedAt
			}
		}
		if err := store.Remove(msg.Pos.ID, st, at); err != nil {
			m.log.Warn().Err(err).Msg("applying delete")
			return false, nil
		}
		delete(m.errs, msg.Pos.ID)
		return true, nil

	case messages.RatedMsg:
		if msg.Err != nil {
			return false, status("Could not rate comment: "+form.ErrorText(msg.Err), true)
		}
		c, ok := store.Get(msg.Pos.ID)
		if !ok {
			return false, nil
		}
		c = c.Clone()
		c.Ratings = msg.Ratings
		return store.Replace(c) == nil, nil
	}
	return false, nil
}

func (m *Model) insert(c *thread.Comment) bool {
	if c == nil {
		return false
	}
	if err := m.env.Store.Insert(c); err != nil {
		m.log.Warn().Err(err).Msg("inserting new comment")
		return false
	}
	m.env.Fresh[c.ID] = true
	return true
}

func resultErr(msg tea.Msg) error {
	switch msg := msg.(type) {
	case messages.EditResultMsg:
		return msg.Err
	case messages.ReplyResultMsg:
		return msg.Err
	case messages.DeleteResultMsg:
		return msg.Err
	case messages.RatedMsg:
		return msg.Err
	}
	return nil
}

func reportStatus(msg messages.ReportedMsg) tea.Cmd {
	if msg.Err != nil {
		return status("Could not send report: "+form.ErrorText(msg.Err), true)
	}
	return status("Thank you! We are taking care of it.", false)
}

func openLogin() tea.Msg { return messages.OpenLoginMsg{} }

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}

// openCompose opens the form for a new top-level comment.
func (m Model) openCompose() (Model, tea.Cmd) {
	if m.env.Store == nil || m.env.ReadOnly {
		return m, nil
	}
	if !m.env.Viewer.Authenticated {
		return m, tea.Batch(status(commentview.ReplyLoginNotice, false), openLogin)
	}
	if m.compose == nil {
		var choices []thread.Category
		if m.env.WithCategories {
			choices = m.env.CategoryChoices
		}
		f := form.New(form.Options{
			Title:       "Your comment",
			Placeholder: "Your comment here",
			Subject:     m.env.Store.Subject,
			ParentIndex: -1,
			Choices:     choices,
			Rows:        3,
		})
		f.SetWidth(m.width - 4)
		m.compose = &f
	}
	cmd := m.compose.Focus()
	m.resizeViewport()
	m.rebuildContent()
	return m, cmd
}

func (m Model) updateCompose(msg tea.KeyMsg) (Model, tea.Cmd) {
	f := m.compose
	switch msg.String() {
	case "ctrl+s":
		if f.Pending() || f.Validate() != nil {
			m.rebuildContent()
			return m, nil
		}
		body := f.Value()
		var cats []string
		if f.HasChoices() {
			cats = append([]string{}, f.Selected()...)
		}
		f.SetPending(true)
		m.rebuildContent()
		cb, token := m.cb, m.composeToken
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), commentview.DefaultRequestTimeout)
			defer cancel()
			c, err := cb.Create(ctx, thread.Position{Index: -1, ParentIndex: -1}, body, cats)
			return messages.ReplyResultMsg{Token: token, Parent: thread.Position{}, Comment: c, Err: err}
		}
	case "esc":
		if !f.Pending() {
			m.compose = nil
			m.composeErr = nil
		} else {
			f.Blur()
		}
		m.resizeViewport()
		m.rebuildContent()
		return m, nil
	case "ctrl+x":
		m.composeErr = nil
		m.rebuildContent()
		return m, nil
	}
	if f.Pending() {
		return m, nil
	}
	var cmd tea.Cmd
	*m.compose, cmd = f.Update(msg)
	m.resizeViewport()
	m.rebuildContent()
	return m, cmd
}

func (m Model) composed(msg messages.ReplyResultMsg) (Model, tea.Cmd) {
	if m.compose != nil {
		m.compose.SetPending(false)
	}
	if msg.Err != nil {
		m.composeErr = msg.Err
		m.rebuildContent()
		return m, nil
	}
	m.composeErr = nil
	m.compose = nil
	var cmd tea.Cmd
	if m.insert(msg.Comment) {
		cmd = m.top.Sync()
	}
	m.resizeViewport()
	m.rebuild()
	if msg.Comment != nil {
		m.selectKey(entryKey{EntryComment, msg.Comment.ID})
		m.scrollToCursor()
	}
	return m, cmd
}

// focusedNode returns the node whose edit or reply form has focus.
func (m Model) focusedNode() *commentview.Node {
	if m.top == nil {
		return nil
	}
	for _, e := range m.entries {
		if e.Kind != EntryComment {
			continue
		}
		if n := m.top.Find(e.ID); n != nil && (n.EditFocused() || n.ReplyFocused()) {
			return n
		}
	}
	return nil
}

// current returns the selected entry and its node.
func (m Model) current() (Entry, *commentview.Node, bool) {
	if m.top == nil || m.selected < 0 || m.selected >= len(m.entries) {
		return Entry{}, nil, false
	}
	e := m.entries[m.selected]
	n := m.top.Find(e.ID)
	return e, n, n != nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.selected >= 0 && m.selected < len(m.offsets) {
			off := m.offsets[m.selected]
			if off.endLine >= m.viewport.YOffset+m.viewport.Height {
				// Entry extends below viewport, scroll within it.
				m.viewport.SetYOffset(m.viewport.YOffset + scrollStep)
				return m, nil
			}
		}
		if m.selected < len(m.entries)-1 {
			m.selected++
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "k", "up":
		if m.selected >= 0 && m.selected < len(m.offsets) {
			off := m.offsets[m.selected]
			if off.startLine < m.viewport.YOffset {
				newOff := m.viewport.YOffset - scrollStep
				if newOff < off.startLine {
					newOff = off.startLine
				}
				m.viewport.SetYOffset(newOff)
				return m, nil
			}
		}
		if m.selected > 0 {
			m.selected--
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "[", "p":
		if idx := FindParentIndex(m.entries, m.selected); idx >= 0 {
			m.selected = idx
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "]":
		if idx := FindNextSiblingIndex(m.entries, m.selected); idx >= 0 {
			m.selected = idx
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "g", "home":
		m.selected = 0
		m.rebuildContent()
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		if len(m.entries) > 0 {
			m.selected = len(m.entries) - 1
			m.rebuildContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	case "ctrl+d", "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	case "ctrl+u", "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "ctrl+r":
		return m, m.Refresh()
	case "c":
		return m.openCompose()
	}

	e, n, ok := m.current()
	if !ok {
		return m, nil
	}

	var cmd tea.Cmd
	switch msg.String() {
	case " ", "enter":
		if e.Kind == EntryReply {
			cmd = n.FocusReply()
		} else {
			cmd = n.ToggleChildren()
		}
	case "r":
		cmd = n.StartReply()
		m.rebuild()
		if n.HasReplyForm() {
			m.selectKey(entryKey{EntryReply, n.ID()})
			m.scrollToCursor()
		}
		return m, cmd
	case "e":
		cmd = n.ToggleEdit()
	case "d":
		cmd = n.RequestDelete()
	case "m":
		n.ToggleTruncation()
	case "s":
		cmd = n.Share()
	case "x":
		cmd = n.Report()
	case "+", "=":
		cmd = n.Rate(1)
	case "-":
		cmd = n.Rate(-1)
	case "a", "ctrl+x":
		n.AckEditError()
		n.AckReplyError()
	case "P":
		if c := n.Comment(); c != nil && c.Author.ProfileURL != "" && !c.Status.Deleted() {
			if u := m.resolve(c.Author.ProfileURL); u != "" {
				return m, func() tea.Msg { return messages.OpenURLMsg{URL: u} }
			}
		}
		return m, nil
	default:
		var vcmd tea.Cmd
		m.viewport, vcmd = m.viewport.Update(msg)
		return m, vcmd
	}
	m.rebuild()
	return m, cmd
}

// resolve makes a server relative link absolute against the page URL.
func (m Model) resolve(ref string) string {
	base, err := url.Parse(m.opts.PageURL)
	if err != nil {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// rebuild re-flattens the tree and keeps the cursor on the same entry
// when it is still visible.
func (m *Model) rebuild() {
	var key entryKey
	hadSel := m.selected >= 0 && m.selected < len(m.entries)
	if hadSel {
		key = m.entries[m.selected].key()
	}

	if m.top != nil {
		m.entries = Flatten(m.top.Snapshot())
	} else {
		m.entries = nil
	}

	if hadSel {
		m.selectKey(key)
	}
	if m.selected >= len(m.entries) {
		m.selected = len(m.entries) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.rebuildContent()
}

func (m *Model) selectKey(key entryKey) bool {
	for i, e := range m.entries {
		if e.key() == key {
			m.selected = i
			return true
		}
	}
	return false
}

// selectAnchor puts the cursor on the anchored comment, or on its closest
// visible ancestor when the anchor sits below a closed comment.
func (m *Model) selectAnchor(store *thread.Store) {
	id := m.env.Anchor.ID
	if m.selectKey(entryKey{EntryComment, id}) {
		return
	}
	for _, p := range store.Ancestors(id) {
		if m.selectKey(entryKey{EntryComment, p}) {
			return
		}
	}
}

func (m *Model) rebuildContent() {
	if m.opts.Renderer == nil {
		return
	}
	if len(m.entries) == 0 {
		m.offsets = nil
		switch {
		case m.loading:
			m.viewport.SetContent("  Loading comments...")
		case m.loadErr != nil:
			m.viewport.SetContent("  " + errorStyle.Render("Error loading comments: "+m.loadErr.Error()))
		default:
			m.viewport.SetContent("  No comments yet.")
		}
		return
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}

	var sb strings.Builder
	m.offsets = make([]entryOffset, len(m.entries))
	lineCount := 0
	for i, e := range m.entries {
		selected := i == m.selected
		var out string
		if e.Kind == EntryComment {
			out = m.opts.Renderer.Comment(e.View, e.Depth, width, selected)
		} else {
			out = m.opts.Renderer.Reply(e.Reply, e.Depth, width, selected)
		}
		sb.WriteString(out)
		sb.WriteString("\n")
		n := strings.Count(out, "\n") + 1
		m.offsets[i] = entryOffset{startLine: lineCount, endLine: lineCount + n - 1}
		lineCount += n
	}
	m.viewport.SetContent(sb.String())
}

func (m *Model) scrollToCursor() {
	if m.selected < 0 || m.selected >= len(m.offsets) {
		return
	}
	off := m.offsets[m.selected]
	if off.startLine < m.viewport.YOffset || off.startLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(off.startLine)
	}
}

// View renders the thread view.
func (m Model) View() string {
	body := m.viewport.View()
	if m.modal.Active() {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.modal.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body)
}

func (m Model) renderHeader() string {
	var parts []string
	if m.env.Store == nil {
		parts = append(parts, headerStyle.Render("Comments"))
	} else {
		title := fmt.Sprintf("Comments (%d)", m.meta.CommentCount)
		if m.meta.CommentCount == 0 {
			title = fmt.Sprintf("Comments (%d)", m.env.Store.Len())
		}
		parts = append(parts, headerStyle.Render(title))
	}

	meta := m.opts.PageURL
	if m.env.ReadOnly {
		meta += " | read only"
	}
	if m.fromCache {
		meta += " | offline copy"
	}
	parts = append(parts, metaStyle.Render(meta))

	if m.compose != nil {
		parts = append(parts, m.compose.View(m.composeErr))
	}

	parts = append(parts, separatorStyle.Render(strings.Repeat("─", max(m.width, 1))))
	hint := "j/k:move  space:replies  r:reply  c:comment  e:edit  d:delete  ?:help"
	parts = append(parts, hintStyle.Render(hint))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
