package commentview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/messages"
	"github.com/fragmede/threadview/internal/ui/modal"
)

const (
	subjectType = 12
	commentType = 8
)

type fakeCallbacks struct {
	modifyErr error
	modified  []string
	created   []string
	deleted   []int
	reports   []string
	rates     []int
	editAcks  []thread.Position
	replyAcks []thread.Position
	nextID    int
}

func (f *fakeCallbacks) Create(_ context.Context, parent thread.Position, body string, _ []string) (*thread.Comment, error) {
	f.created = append(f.created, body)
	f.nextID++
	return &thread.Comment{ID: f.nextID, ParentID: parent.ID, Body: body}, nil
}

func (f *fakeCallbacks) Modify(_ context.Context, pos thread.Position, _ thread.Subject, body string, _ []string) (*thread.Comment, error) {
	f.modified = append(f.modified, body)
	if f.modifyErr != nil {
		return nil, f.modifyErr
	}
	return &thread.Comment{ID: pos.ID, Body: body}, nil
}

func (f *fakeCallbacks) Delete(_ context.Context, pos thread.Position, _ thread.Subject) (*thread.Comment, error) {
	f.deleted = append(f.deleted, pos.ID)
	return nil, nil
}

func (f *fakeCallbacks) Rate(_ context.Context, _ thread.Position, prior thread.Ratings, value int) (thread.Ratings, error) {
	f.rates = append(f.rates, value)
	prior.ViewerVote = value
	return prior, nil
}

func (f *fakeCallbacks) Report(_ context.Context, _ thread.Position, reason string) error {
	f.reports = append(f.reports, reason)
	return nil
}

func (f *fakeCallbacks) EditErrorAck(pos thread.Position)  { f.editAcks = append(f.editAcks, pos) }
func (f *fakeCallbacks) ReplyErrorAck(pos thread.Position) { f.replyAcks = append(f.replyAcks, pos) }

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func comment(id, parent int) *thread.Comment {
	subject := thread.Subject{ContentType: subjectType, ObjectID: "7"}
	if parent != 0 {
		subject = thread.Subject{ContentType: commentType, ObjectID: "1"}
	}
	return &thread.Comment{
		ID:        id,
		ParentID:  parent,
		Subject:   subject,
		Body:      "body",
		CreatedAt: created,
		Author:    thread.Author{ID: 3, Name: "anna"},
	}
}

// sampleStore is:
//
//	1
//	├── 11
//	│   └── 111
//	└── 12
//	2
func sampleStore(t *testing.T) *thread.Store {
	t.Helper()
	s := thread.NewStore(thread.Subject{ContentType: subjectType, ObjectID: "7"}, commentType)
	for _, c := range []*thread.Comment{comment(2, 0), comment(1, 0), comment(11, 1), comment(111, 11), comment(12, 1)} {
		require.NoError(t, s.Insert(c))
	}
	return s
}

func newEnv(t *testing.T, anchor int) (*Env, *fakeCallbacks) {
	t.Helper()
	s := sampleStore(t)
	cb := &fakeCallbacks{nextID: 1000}
	errs := map[int]ErrorState{}
	return &Env{
		Store:         s,
		Anchor:        s.AnchorContext(anchor),
		Viewer:        Viewer{ID: 5, Name: "ben", Authenticated: true},
		CanComment:    true,
		ContextMember: true,
		PageURL:       "https://x/y?foo=1#bar",
		BannerDelay:   time.Millisecond,
		Errors:        func(id int) ErrorState { return errs[id] },
		Fresh:         map[int]bool{},
		Callbacks:     cb,
	}, cb
}

// mount builds the top-level list and runs the Init commands of every
// node except the banner timers.
func mount(env *Env) *List {
	l := NewList(env, 0, -1)
	l.Sync()
	return l
}

// walk visits every mounted node.
func walk(l *List, fn func(n *Node)) {
	for _, n := range l.Nodes() {
		fn(n)
		if n.Children() != nil {
			walk(n.Children(), fn)
		}
	}
}

// run executes cmd and flattens batches into messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestMount_Anchor(t *testing.T) {
	env, _ := newEnv(t, 11)
	l := mount(env)

	targets := 0
	walk(l, func(n *Node) {
		if n.State().AnchorTarget {
			targets++
			assert.Equal(t, 11, n.ID())
			assert.False(t, n.State().Truncated)
		} else {
			assert.True(t, n.State().Truncated)
		}
	})
	assert.Equal(t, 1, targets)

	// Only the anchor's parent starts open.
	require.NotNil(t, l.Find(11))
	assert.True(t, l.Find(1).State().ChildrenExpanded)
	assert.False(t, l.Find(11).State().ChildrenExpanded)
	assert.False(t, l.Find(2).State().ChildrenExpanded)
	assert.Nil(t, l.Find(111))
}

func TestMount_DeepAnchorOpensOnlyItsParent(t *testing.T) {
	env, _ := newEnv(t, 111)
	l := mount(env)

	walk(l, func(n *Node) {
		assert.Equal(t, n.ID() == 11, n.State().ChildrenExpanded, "comment %d", n.ID())
	})
	assert.False(t, l.Find(1).State().ChildrenExpanded)
	assert.Nil(t, l.Find(11), "replies of a closed comment are not mounted")

	// Opening the grandparent reveals the anchor's open parent.
	l.Find(1).ToggleChildren()
	require.NotNil(t, l.Find(11))
	assert.True(t, l.Find(11).State().ChildrenExpanded)
	require.NotNil(t, l.Find(111))
	assert.True(t, l.Find(111).State().AnchorTarget)
}

func TestMount_TopLevelAnchorOpensItsReplies(t *testing.T) {
	env, _ := newEnv(t, 1)
	l := mount(env)

	n := l.Find(1)
	require.NotNil(t, n)
	assert.True(t, n.State().AnchorTarget)
	assert.True(t, n.State().ChildrenExpanded)
}

func TestMount_NoAnchor(t *testing.T) {
	env, _ := newEnv(t, 0)
	l := mount(env)

	walk(l, func(n *Node) {
		assert.False(t, n.State().AnchorTarget)
		assert.False(t, n.State().ChildrenExpanded)
	})
	assert.Len(t, l.Nodes(), 2)
	assert.Nil(t, l.Find(11), "replies are mounted only when shown")
}

func TestToggleEdit_RoundTrip(t *testing.T) {
	env, _ := newEnv(t, 0)
	c, _ := env.Store.Get(1)
	c.Permissions.CanEdit = true
	l := mount(env)
	n := l.Find(1)
	before := n.Snapshot()

	n.ToggleEdit()
	require.True(t, n.State().Editing)
	assert.NotEmpty(t, n.Snapshot().EditForm)

	n.ToggleEdit()
	assert.False(t, n.State().Editing)
	assert.Equal(t, before, n.Snapshot())
}

func TestToggleEdit_Guarded(t *testing.T) {
	env, _ := newEnv(t, 0)
	l := mount(env)

	n := l.Find(1)
	n.ToggleEdit()
	assert.False(t, n.State().Editing, "no edit permission")

	c, _ := env.Store.Get(2)
	c.Permissions.CanEdit = true
	c.Status = thread.StatusRemovedByAuthor
	n = l.Find(2)
	n.ToggleEdit()
	assert.False(t, n.State().Editing, "removed comment")
}

func TestToggleEdit_KeepsExpansion(t *testing.T) {
	env, _ := newEnv(t, 0)
	c, _ := env.Store.Get(1)
	c.Permissions.CanEdit = true
	n := mount(env).Find(1)

	n.ExpandChildren()
	n.ToggleEdit()
	assert.True(t, n.State().ChildrenExpanded)
	n.ToggleEdit()
	assert.True(t, n.State().ChildrenExpanded)
}

func TestSubmitEdit(t *testing.T) {
	env, cb := newEnv(t, 0)
	c, _ := env.Store.Get(1)
	c.Permissions.CanEdit = true
	n := mount(env).Find(1)

	n.ToggleEdit()
	n.edit.Reset()
	assert.Nil(t, n.SubmitEdit(), "empty body is rejected before sending")
	assert.Contains(t, n.Snapshot().EditForm, "cannot be empty")

	n.ToggleEdit()
	n.ToggleEdit()
	cmd := n.SubmitEdit()
	require.NotNil(t, cmd)
	assert.True(t, n.EditPending())
	assert.Nil(t, n.SubmitEdit(), "second submission while pending")

	msgs := run(cmd)
	require.Len(t, msgs, 1)
	res := msgs[0].(messages.EditResultMsg)
	assert.Equal(t, n.Token(), res.Token)
	assert.Equal(t, []string{"body"}, cb.modified)

	ok, _ := n.Route(res)
	assert.True(t, ok)
	assert.False(t, n.EditPending())
	assert.False(t, n.State().Editing)
}

func TestSubmitEdit_RejectedStaysInEditMode(t *testing.T) {
	env, cb := newEnv(t, 0)
	cb.modifyErr = errors.New("offline")
	c, _ := env.Store.Get(1)
	c.Permissions.CanEdit = true
	errs := map[int]ErrorState{}
	env.Errors = func(id int) ErrorState { return errs[id] }
	n := mount(env).Find(1)

	n.ToggleEdit()
	res := run(n.SubmitEdit())[0].(messages.EditResultMsg)
	require.Error(t, res.Err)

	// The owner records the error; the node keeps editing.
	errs[1] = ErrorState{Edit: res.Err}
	n.Route(res)
	assert.True(t, n.State().Editing)
	assert.False(t, n.EditPending())
	assert.Contains(t, n.Snapshot().EditForm, "offline")
	assert.Equal(t, res.Err, errs[1].Edit, "error state is not cleared by the node")

	n.AckEditError()
	assert.Equal(t, []thread.Position{n.Position()}, cb.editAcks)
}

func TestReply(t *testing.T) {
	env, cb := newEnv(t, 0)
	n := mount(env).Find(1)

	n.StartReply()
	require.True(t, n.State().ChildrenExpanded)
	require.True(t, n.HasReplyForm())
	assert.True(t, n.ReplyFocused())

	n.reply.Reset()
	for _, r := range "hi there" {
		n.UpdateReplyForm(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	cmd := n.UpdateReplyForm(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, n.ReplyPending())

	res := run(cmd)[0].(messages.ReplyResultMsg)
	assert.Equal(t, 1, res.Parent.ID)
	assert.Equal(t, []string{"hi there"}, cb.created)

	n.Route(res)
	assert.False(t, n.ReplyPending())
	assert.Empty(t, n.reply.Value())
}

func TestReply_NoticeForAnonymous(t *testing.T) {
	env, _ := newEnv(t, 0)
	env.Viewer = Viewer{}
	n := mount(env).Find(1)

	n.StartReply()
	assert.False(t, n.HasReplyForm())
	v := n.Snapshot()
	require.NotNil(t, v.Reply)
	assert.Equal(t, ReplyLoginNotice, v.Reply.Notice)
}

func TestReply_NoFormUnderReplies(t *testing.T) {
	env, _ := newEnv(t, 0)
	l := mount(env)
	l.Find(1).ExpandChildren()

	n := l.Find(11)
	n.ExpandChildren()
	assert.False(t, n.HasReplyForm())
	assert.Nil(t, n.Snapshot().Reply)
}

func TestToggleChildren(t *testing.T) {
	env, _ := newEnv(t, 0)
	l := mount(env)
	n := l.Find(1)

	n.ToggleChildren()
	require.NotNil(t, n.Children())
	child := l.Find(11)
	require.NotNil(t, child)

	n.ToggleChildren()
	assert.Nil(t, n.Children())
	assert.False(t, child.Alive(), "hidden replies are unmounted")
}

func TestBanner(t *testing.T) {
	env, _ := newEnv(t, 0)
	env.Fresh[2] = true
	l := NewList(env, 0, -1)
	msgs := run(l.Sync())

	n := l.Find(2)
	require.True(t, n.State().ShowBanner)
	assert.Equal(t, BannerText, n.Snapshot().Banner)
	assert.False(t, l.Find(1).State().ShowBanner)

	require.Len(t, msgs, 1)
	ok, _ := l.Route(msgs[0])
	assert.True(t, ok)
	assert.False(t, n.State().ShowBanner)
	assert.Empty(t, n.Snapshot().Banner)
}

func TestBanner_DestroyedBeforeDelay(t *testing.T) {
	env, _ := newEnv(t, 0)
	env.BannerDelay = time.Hour
	env.Fresh[2] = true
	l := NewList(env, 0, -1)
	cmd := l.Sync()
	old := l.Find(2)

	done := make(chan []tea.Msg)
	go func() { done <- run(cmd) }()
	l.Destroy()

	select {
	case msgs := <-done:
		assert.Empty(t, msgs, "the timer is cancelled with the node")
	case <-time.After(time.Second):
		t.Fatal("banner timer outlived its node")
	}

	// A new mount of the same comment does not show the banner again.
	l.Sync()
	n := l.Find(2)
	assert.NotSame(t, old, n)
	assert.False(t, n.State().ShowBanner)
}

func TestRoute_DestroyedNodeIgnoresResults(t *testing.T) {
	env, _ := newEnv(t, 0)
	c, _ := env.Store.Get(1)
	c.Permissions.CanEdit = true
	l := mount(env)
	n := l.Find(1)

	n.ToggleEdit()
	res := run(n.SubmitEdit())[0]
	n.Destroy()

	ok, _ := l.Route(res)
	assert.False(t, ok)
	assert.True(t, n.State().Editing, "state of a destroyed node is not touched")
}

func TestSync_KeepsStateOfSurvivors(t *testing.T) {
	env, _ := newEnv(t, 0)
	l := mount(env)
	n := l.Find(1)
	n.ExpandChildren()
	n.ToggleTruncation()
	assert.Equal(t, 0, n.Position().Index)

	require.NoError(t, env.Store.Insert(comment(3, 0)))
	l.Sync()

	assert.Same(t, n, l.Find(1))
	assert.True(t, n.State().ChildrenExpanded)
	assert.False(t, n.State().Truncated)
	assert.Equal(t, 1, n.Position().Index, "new top-level comments go first")
	assert.Equal(t, 1, l.Find(11).Position().ParentIndex)

	require.NoError(t, env.Store.Remove(12, thread.StatusRemovedByAuthor, created))
	l.Sync()
	assert.Nil(t, l.Find(12))
	assert.Len(t, n.Children().Nodes(), 1)
}

func TestRequestDelete(t *testing.T) {
	env, cb := newEnv(t, 0)
	c, _ := env.Store.Get(2)
	c.Permissions.CanDelete = true
	l := mount(env)
	n := l.Find(2)

	assert.Nil(t, l.Find(1).RequestDelete(), "no permission")

	msgs := run(n.RequestDelete())
	require.Len(t, msgs, 1)
	req := msgs[0].(modal.ConfirmMsg)
	assert.Equal(t, "comment_delete_2", req.Name)
	assert.Equal(t, DeleteTitle, req.Title)
	assert.Equal(t, "Delete", req.Affirmative)
	assert.Equal(t, "Abort", req.Negative)
	assert.Empty(t, cb.deleted, "nothing is deleted before confirmation")

	ok, cmd := l.Route(req.OnConfirm())
	require.True(t, ok)
	res := run(cmd)[0].(messages.DeleteResultMsg)
	assert.Equal(t, []int{2}, cb.deleted)
	assert.Equal(t, 2, res.Pos.ID)
}

func TestShareAndReport(t *testing.T) {
	env, cb := newEnv(t, 0)
	l := mount(env)
	n := l.Find(2)

	share := run(n.Share())[0].(modal.ShareMsg)
	assert.Equal(t, "share_comment_2", share.Name)
	assert.Equal(t, "https://x/y?comment=2", share.URL)

	report := run(n.Report())[0].(modal.ReportMsg)
	assert.Equal(t, "report_comment_2", report.Name)
	assert.Equal(t, commentType, report.ContentType)
	res := run(report.OnSubmit("spam"))[0].(messages.ReportedMsg)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"spam"}, cb.reports)

	c, _ := env.Store.Get(2)
	c.IsOwn = true
	assert.Nil(t, n.Report(), "own comment")
	c.IsOwn = false
	c.Status = thread.StatusBlockedByModerator
	assert.Nil(t, n.Share())
	assert.Nil(t, n.Report())
}

func TestRate(t *testing.T) {
	env, cb := newEnv(t, 0)
	c, _ := env.Store.Get(2)
	c.Ratings.ViewerVote = 1
	n := mount(env).Find(2)

	cmd := n.Rate(1)
	require.NotNil(t, cmd)
	assert.Nil(t, n.Rate(-1), "one vote at a time")
	assert.True(t, n.Snapshot().Rating.Pending)

	res := run(cmd)[0].(messages.RatedMsg)
	assert.Equal(t, []int{0}, cb.rates, "same vote again withdraws it")
	n.Route(res)
	assert.False(t, n.Snapshot().Rating.Pending)

	env.ReadOnly = true
	assert.Nil(t, n.Rate(1))
}

func TestSnapshot_LongBody(t *testing.T) {
	env, _ := newEnv(t, 0)
	c, _ := env.Store.Get(2)
	c.Body = strings.Repeat("x", 450)
	n := mount(env).Find(2)

	v := n.Snapshot()
	assert.Equal(t, ReadMoreLabel, v.ReadMore)
	assert.Equal(t, strings.Repeat("x", 400)+"...", v.Body)

	n.ToggleTruncation()
	v = n.Snapshot()
	assert.Equal(t, ReadLessLabel, v.ReadMore)
	assert.Len(t, v.Body, 450)
}
