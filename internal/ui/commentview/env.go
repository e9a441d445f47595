// Package commentview renders a comment thread as a tree of nodes. Each
// node keeps its own interaction state (edit mode, replies shown, long
// bodies shortened, anchor highlight) and mounts a list of its replies
// while they are shown. The comment data itself lives in a thread.Store
// owned by the caller; nodes only reference it and report mutations back
// through Callbacks.
package commentview

import (
	"context"
	"time"

	"github.com/fragmede/threadview/internal/thread"
)

const (
	DefaultBannerDelay    = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Viewer is the person looking at the thread.
type Viewer struct {
	ID            int
	Name          string
	Authenticated bool
}

// ErrorState is the last failed submission of a comment's edit form and
// of the reply form below it.
type ErrorState struct {
	Edit  error
	Reply error
}

// Callbacks carries mutations up to the owner of the store.
//
// Create, Modify, Delete, Rate and Report are called from tea.Cmd
// goroutines and must not touch the store; their results come back as
// messages. The acknowledgement methods run on the event loop.
type Callbacks interface {
	Create(ctx context.Context, parent thread.Position, body string, categories []string) (*thread.Comment, error)
	// Modify replaces the body. subject is the comment's own subject, which
	// addresses it on the server. A nil categories slice leaves them
	// unchanged.
	Modify(ctx context.Context, pos thread.Position, subject thread.Subject, body string, categories []string) (*thread.Comment, error)
	// Delete returns the tombstone left by the server, or nil when the
	// comment is gone.
	Delete(ctx context.Context, pos thread.Position, subject thread.Subject) (*thread.Comment, error)
	Rate(ctx context.Context, pos thread.Position, prior thread.Ratings, value int) (thread.Ratings, error)
	Report(ctx context.Context, pos thread.Position, reason string) error

	EditErrorAck(pos thread.Position)
	ReplyErrorAck(pos thread.Position)
}

// Env is the ambient context shared by every node of one thread.
type Env struct {
	Store  *thread.Store
	Anchor thread.Anchor
	Viewer Viewer

	ReadOnly        bool
	CanComment      bool
	ContextMember   bool
	WithCategories  bool
	CategoryChoices []thread.Category

	PageURL    string
	DateLayout string

	BannerDelay    time.Duration
	RequestTimeout time.Duration

	// Errors looks up the submission errors kept by the owner.
	Errors func(id int) ErrorState
	// Fresh holds ids of comments created in this session that have not
	// shown their success banner yet. A node consumes its entry on mount.
	Fresh     map[int]bool
	Callbacks Callbacks
}

func (e *Env) errors(id int) ErrorState {
	if e.Errors == nil {
		return ErrorState{}
	}
	return e.Errors(id)
}

func (e *Env) takeFresh(id int) bool {
	if !e.Fresh[id] {
		return false
	}
	delete(e.Fresh, id)
	return true
}

func (e *Env) bannerDelay() time.Duration {
	if e.BannerDelay <= 0 {
		return DefaultBannerDelay
	}
	return e.BannerDelay
}

func (e *Env) requestTimeout() time.Duration {
	if e.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return e.RequestTimeout
}

// allowForm reports whether c can be replied to at all. Replies to
// replies are not possible: their subject is the comment type itself.
func (e *Env) allowForm(c *thread.Comment) bool {
	return !e.ReadOnly && c.Subject.ContentType != e.Store.CommentType
}

// displayCategories reports whether c carries categories, which only
// comments on the thread subject do.
func (e *Env) displayCategories(c *thread.Comment) bool {
	return c.Subject.ContentType != e.Store.CommentType
}

// categoryChoices returns the choices offered when editing c.
func (e *Env) categoryChoices(c *thread.Comment) []thread.Category {
	if !e.WithCategories || !e.displayCategories(c) {
		return nil
	}
	return e.CategoryChoices
}

// replyNotice explains why no reply form is shown below an open comment,
// or returns "" when the viewer may reply.
func (e *Env) replyNotice() string {
	switch {
	case !e.Viewer.Authenticated:
		return ReplyLoginNotice
	case !e.ContextMember:
		return ReplyMemberNotice
	case !e.CanComment:
		return ReplyPhaseNotice
	}
	return ""
}
