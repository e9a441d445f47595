package commentview

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/form"
	"github.com/fragmede/threadview/internal/ui/messages"
	"github.com/fragmede/threadview/internal/ui/modal"
	"github.com/fragmede/threadview/internal/ui/rating"
)

// State is the interaction state of one node. Editing is independent of
// the other fields.
type State struct {
	Editing          bool
	ChildrenExpanded bool
	Truncated        bool
	AnchorTarget     bool
	ShowBanner       bool
}

// deleteConfirmedMsg comes back from the delete confirmation dialog.
type deleteConfirmedMsg struct {
	token string
}

// Node is one mounted comment.
type Node struct {
	id    int
	env   *Env
	pos   thread.Position
	state State

	// token ties async results to this mount of the comment.
	token  string
	ctx    context.Context
	cancel context.CancelFunc
	dead   bool

	children *List
	edit     *form.Model
	reply    *form.Model

	editPending   bool
	replyPending  bool
	deletePending bool
	ratePending   bool
}

func newNode(env *Env, pos thread.Position) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	target := env.Anchor.Targets(pos.ID)
	return &Node{
		id:     pos.ID,
		env:    env,
		pos:    pos,
		token:  uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		state: State{
			ChildrenExpanded: env.Anchor.Expands(pos.ID),
			Truncated:        !target,
			AnchorTarget:     target,
			ShowBanner:       env.takeFresh(pos.ID),
		},
	}
}

// Init arms the banner timer and mounts the replies of nodes that start
// open.
func (n *Node) Init() tea.Cmd {
	var cmds []tea.Cmd
	if n.state.ShowBanner {
		cmds = append(cmds, n.bannerTimer())
	}
	if n.state.ChildrenExpanded {
		cmds = append(cmds, n.mountChildren())
	}
	return tea.Batch(cmds...)
}

// bannerTimer clears the success banner once. The timer is dropped when
// the node is destroyed first.
func (n *Node) bannerTimer() tea.Cmd {
	ctx, token, delay := n.ctx, n.token, n.env.bannerDelay()
	return func() tea.Msg {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
			return messages.BannerExpiredMsg{Token: token}
		case <-ctx.Done():
			return nil
		}
	}
}

// request runs fn off the event loop with the request timeout. The
// request is not tied to the node's lifetime; a late result is dropped by
// token instead.
func (n *Node) request(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := n.env.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (n *Node) ID() int                   { return n.id }
func (n *Node) Token() string             { return n.token }
func (n *Node) Position() thread.Position { return n.pos }
func (n *Node) State() State              { return n.state }
func (n *Node) Alive() bool               { return !n.dead }

// Children returns the mounted replies, nil while they are hidden.
func (n *Node) Children() *List { return n.children }

// Comment returns the comment from the store.
func (n *Node) Comment() *thread.Comment {
	c, _ := n.env.Store.Get(n.id)
	return c
}

// EditPending and ReplyPending report submissions in flight.
func (n *Node) EditPending() bool  { return n.editPending }
func (n *Node) ReplyPending() bool { return n.replyPending }

// EditFocused reports whether the edit form takes keyboard input.
func (n *Node) EditFocused() bool { return n.edit != nil && n.edit.Focused() }

// ReplyFocused reports whether the reply form takes keyboard input.
func (n *Node) ReplyFocused() bool { return n.reply != nil && n.reply.Focused() }

// HasReplyForm reports whether a reply form is mounted.
func (n *Node) HasReplyForm() bool { return n.reply != nil }

// ToggleEdit enters or leaves edit mode. Entering is a no-op without edit
// permission or on a removed comment.
func (n *Node) ToggleEdit() tea.Cmd {
	if n.state.Editing {
		n.state.Editing = false
		n.edit = nil
		return nil
	}
	c := n.Comment()
	if c == nil || c.Status.Deleted() || !c.Permissions.CanEdit {
		return nil
	}

	selected := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		selected = append(selected, cat.Key)
	}
	f := form.New(form.Options{
		Title:       "Edit comment",
		Subject:     c.Subject,
		ParentIndex: n.pos.ParentIndex,
		Initial:     c.Body,
		Choices:     n.env.categoryChoices(c),
		Selected:    selected,
		Rows:        5,
	})
	f.SetPending(n.editPending)
	n.edit = &f
	n.state.Editing = true
	return n.edit.Focus()
}

// ExpandChildren opens the replies. It never closes them.
func (n *Node) ExpandChildren() tea.Cmd {
	if n.state.ChildrenExpanded {
		return nil
	}
	n.state.ChildrenExpanded = true
	return n.mountChildren()
}

// ToggleChildren opens or closes the replies.
func (n *Node) ToggleChildren() tea.Cmd {
	if !n.state.ChildrenExpanded {
		return n.ExpandChildren()
	}
	n.state.ChildrenExpanded = false
	if n.children != nil {
		n.children.Destroy()
		n.children = nil
	}
	n.reply = nil
	return nil
}

// ToggleTruncation switches between the shortened and the full body.
func (n *Node) ToggleTruncation() {
	n.state.Truncated = !n.state.Truncated
}

func (n *Node) mountChildren() tea.Cmd {
	n.children = NewList(n.env, n.id, n.pos.Index)
	n.syncReplyForm()
	return n.children.Sync()
}

// syncReplyForm mounts or drops the reply form to match what the viewer
// may do right now.
func (n *Node) syncReplyForm() {
	c := n.Comment()
	allowed := c != nil && n.state.ChildrenExpanded && n.env.allowForm(c) &&
		!c.Status.Deleted() && n.env.replyNotice() == ""
	switch {
	case !allowed:
		n.reply = nil
	case n.reply == nil:
		f := form.New(form.Options{
			Placeholder: ReplyPlaceholder,
			Subject:     thread.Subject{ContentType: n.env.Store.CommentType, ObjectID: fmt.Sprint(n.id)},
			ParentIndex: n.pos.Index,
			Rows:        1,
		})
		n.reply = &f
	}
}

// StartReply opens the replies and focuses the reply form.
func (n *Node) StartReply() tea.Cmd {
	cmd := n.ExpandChildren()
	if n.reply == nil {
		return cmd
	}
	return tea.Batch(cmd, n.reply.Focus())
}

// SubmitEdit sends the edit form. It is rejected while a previous edit is
// in flight; invalid input is shown on the form.
func (n *Node) SubmitEdit() tea.Cmd {
	if !n.state.Editing || n.edit == nil || n.editPending {
		return nil
	}
	if err := n.edit.Validate(); err != nil {
		return nil
	}
	c := n.Comment()
	if c == nil {
		return nil
	}
	body := n.edit.Value()
	var cats []string
	if n.edit.HasChoices() {
		cats = append([]string{}, n.edit.Selected()...)
	}
	n.editPending = true
	n.edit.SetPending(true)

	cb, pos, token, subject := n.env.Callbacks, n.pos, n.token, c.Subject
	return n.request(func(ctx context.Context) tea.Msg {
		c, err := cb.Modify(ctx, pos, subject, body, cats)
		return messages.EditResultMsg{Token: token, Pos: pos, Comment: c, Err: err}
	})
}

// SubmitReply sends the reply form, with the same pending rule as edits.
func (n *Node) SubmitReply() tea.Cmd {
	if n.reply == nil || n.replyPending {
		return nil
	}
	if err := n.reply.Validate(); err != nil {
		return nil
	}
	body := n.reply.Value()
	n.replyPending = true
	n.reply.SetPending(true)

	cb, pos, token := n.env.Callbacks, n.pos, n.token
	return n.request(func(ctx context.Context) tea.Msg {
		c, err := cb.Create(ctx, pos, body, nil)
		return messages.ReplyResultMsg{Token: token, Parent: pos, Comment: c, Err: err}
	})
}

// RequestDelete asks for confirmation; the delete call runs only after
// the dialog confirms and only while the node is alive.
func (n *Node) RequestDelete() tea.Cmd {
	c := n.Comment()
	if c == nil || c.Status.Deleted() || !c.Permissions.CanDelete || n.deletePending {
		return nil
	}
	token := n.token
	req := modal.ConfirmMsg{
		Name:        fmt.Sprintf("comment_delete_%d", n.id),
		Title:       DeleteTitle,
		Affirmative: DeleteLabel,
		Negative:    AbortLabel,
		OnConfirm:   func() tea.Msg { return deleteConfirmedMsg{token: token} },
	}
	return func() tea.Msg { return req }
}

func (n *Node) deleteNow() tea.Cmd {
	c := n.Comment()
	if c == nil || n.deletePending {
		return nil
	}
	n.deletePending = true
	cb, pos, token, subject := n.env.Callbacks, n.pos, n.token, c.Subject
	return n.request(func(ctx context.Context) tea.Msg {
		c, err := cb.Delete(ctx, pos, subject)
		return messages.DeleteResultMsg{Token: token, Pos: pos, Comment: c, Err: err}
	})
}

// AckEditError clears the error shown on the edit form.
func (n *Node) AckEditError() {
	if n.env.errors(n.id).Edit != nil {
		n.env.Callbacks.EditErrorAck(n.pos)
	}
}

// AckReplyError clears the error shown on the reply form.
func (n *Node) AckReplyError() {
	if n.env.errors(n.id).Reply != nil {
		n.env.Callbacks.ReplyErrorAck(n.pos)
	}
}

// Share opens the share dialog with the comment's deep link.
func (n *Node) Share() tea.Cmd {
	c := n.Comment()
	if c == nil || c.Status.Deleted() {
		return nil
	}
	req := modal.ShareMsg{
		Name:     fmt.Sprintf("share_comment_%d", n.id),
		Title:    ShareTitle,
		ObjectID: n.id,
		URL:      ShareURL(n.env.PageURL, n.id),
	}
	return func() tea.Msg { return req }
}

// Report opens the report dialog. Own and removed comments cannot be
// reported, and neither can anything by anonymous viewers.
func (n *Node) Report() tea.Cmd {
	c := n.Comment()
	if c == nil || c.Status.Deleted() || c.IsOwn || !n.env.Viewer.Authenticated {
		return nil
	}
	cb, pos := n.env.Callbacks, n.pos
	timeout := n.env.requestTimeout()
	req := modal.ReportMsg{
		Name:        fmt.Sprintf("report_comment_%d", n.id),
		Title:       ReportTitle,
		ContentType: n.env.Store.CommentType,
		ObjectID:    n.id,
		OnSubmit: func(reason string) tea.Cmd {
			return func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				return messages.ReportedMsg{Pos: pos, Err: cb.Report(ctx, pos, reason)}
			}
		},
	}
	return func() tea.Msg { return req }
}

// Rate votes value (+1 or -1). Voting the current vote again withdraws it.
func (n *Node) Rate(value int) tea.Cmd {
	c := n.Comment()
	if c == nil || c.Status.Deleted() || n.ratePending {
		return nil
	}
	props := rating.FromComment(c, n.env.Store.CommentType, n.env.Viewer.ID, n.env.Viewer.Authenticated, n.env.ReadOnly)
	if props.Disabled() {
		return nil
	}
	value = rating.Next(props, value)
	n.ratePending = true

	cb, pos, token, prior := n.env.Callbacks, n.pos, n.token, c.Ratings
	return n.request(func(ctx context.Context) tea.Msg {
		r, err := cb.Rate(ctx, pos, prior, value)
		return messages.RatedMsg{Token: token, Pos: pos, Ratings: r, Err: err}
	})
}

// UpdateEditForm feeds input to the edit form. ctrl+s submits, esc
// leaves edit mode and ctrl+x acknowledges a shown error.
func (n *Node) UpdateEditForm(msg tea.Msg) tea.Cmd {
	if n.edit == nil {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+s":
			return n.SubmitEdit()
		case "esc":
			return n.ToggleEdit()
		case "ctrl+x":
			n.AckEditError()
			return nil
		}
	}
	if n.editPending {
		return nil
	}
	var cmd tea.Cmd
	*n.edit, cmd = n.edit.Update(msg)
	return cmd
}

// FocusReply gives the reply form keyboard focus.
func (n *Node) FocusReply() tea.Cmd {
	if n.reply == nil {
		return nil
	}
	return n.reply.Focus()
}

// UpdateReplyForm feeds input to the reply form. Esc only leaves the form.
func (n *Node) UpdateReplyForm(msg tea.Msg) tea.Cmd {
	if n.reply == nil {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+s":
			return n.SubmitReply()
		case "esc":
			n.reply.Blur()
			return nil
		case "ctrl+x":
			n.AckReplyError()
			return nil
		}
	}
	if n.replyPending {
		return nil
	}
	var cmd tea.Cmd
	*n.reply, cmd = n.reply.Update(msg)
	return cmd
}

// Route applies msg if it belongs to this node or one of its replies.
func (n *Node) Route(msg tea.Msg) (bool, tea.Cmd) {
	if n.dead {
		return false, nil
	}
	switch msg := msg.(type) {
	case messages.BannerExpiredMsg:
		if msg.Token == n.token {
			n.state.ShowBanner = false
			return true, nil
		}
	case messages.EditResultMsg:
		if msg.Token == n.token {
			n.editPending = false
			if n.edit != nil {
				n.edit.SetPending(false)
			}
			if msg.Err == nil {
				n.state.Editing = false
				n.edit = nil
			}
			return true, nil
		}
	case messages.ReplyResultMsg:
		if msg.Token == n.token {
			n.replyPending = false
			if n.reply != nil {
				n.reply.SetPending(false)
				if msg.Err == nil {
					n.reply.Reset()
				}
			}
			return true, nil
		}
	case messages.DeleteResultMsg:
		if msg.Token == n.token {
			n.deletePending = false
			return true, nil
		}
	case messages.RatedMsg:
		if msg.Token == n.token {
			n.ratePending = false
			return true, nil
		}
	case deleteConfirmedMsg:
		if msg.token == n.token {
			return true, n.deleteNow()
		}
	}
	if n.children != nil {
		return n.children.Route(msg)
	}
	return false, nil
}

// sync refreshes the node after the store changed.
func (n *Node) sync(pos thread.Position) tea.Cmd {
	n.pos = pos
	c := n.Comment()
	if c != nil && n.state.Editing && c.Status.Deleted() {
		n.state.Editing = false
		n.edit = nil
	}
	if n.children == nil {
		return nil
	}
	n.children.parentIndex = pos.Index
	n.syncReplyForm()
	return n.children.Sync()
}

// Destroy stops the node's timer and unmounts its replies. Results that
// arrive afterwards are ignored.
func (n *Node) Destroy() {
	if n.dead {
		return
	}
	n.dead = true
	n.cancel()
	if n.children != nil {
		n.children.Destroy()
	}
}

// Snapshot returns the display tree of the node and its open replies.
func (n *Node) Snapshot() View {
	c := n.Comment()
	if c == nil {
		return View{ID: n.id, Anchor: AnchorName(n.id)}
	}
	errs := n.env.errors(n.id)
	v := Snapshot(c, n.state, n.env, len(n.env.Store.Children(n.id)))

	if n.state.Editing && n.edit != nil {
		v.EditForm = n.edit.View(errs.Edit)
	}
	if v.Rating != nil {
		v.Rating.Pending = n.ratePending
	}
	v.Actions.Pending = n.editPending || n.deletePending

	if n.state.ChildrenExpanded && n.children != nil {
		v.Children = n.children.Snapshot()
		if n.env.allowForm(c) && !c.Status.Deleted() {
			rv := &ReplyView{ParentID: n.id}
			if n.reply != nil {
				rv.Form = n.reply.View(errs.Reply)
				rv.Focused = n.reply.Focused()
			} else {
				rv.Notice = n.env.replyNotice()
			}
			v.Reply = rv
		}
	}
	return v
}
