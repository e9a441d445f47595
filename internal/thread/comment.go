// Package thread holds the authoritative comment tree of one discussion.
// Comments live in an arena keyed by id; child order is kept as id slices.
package thread

import "time"

// Status is the moderation state of a comment.
type Status int

const (
	StatusActive Status = iota
	StatusRemovedByAuthor
	StatusRemovedByModerator
	StatusBlockedByModerator
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRemovedByAuthor:
		return "removed_by_author"
	case StatusRemovedByModerator:
		return "removed_by_moderator"
	case StatusBlockedByModerator:
		return "blocked_by_moderator"
	default:
		return "unknown"
	}
}

// Deleted reports whether the comment is removed or blocked.
func (s Status) Deleted() bool {
	return s != StatusActive
}

// Subject is the object a comment is attached to. For replies this is the
// comment content type and the parent comment's id.
type Subject struct {
	ContentType int
	ObjectID    string
}

// Category is one selected category of a comment.
type Category struct {
	Key   string
	Label string
}

// Author describes who wrote a comment.
type Author struct {
	ID          int
	Name        string
	ProfileURL  string
	ImageURL    string
	IsModerator bool
}

// Ratings is the vote summary of a comment. ViewerVote is -1, 0 or 1;
// ViewerRatingID is 0 when the viewer never voted.
type Ratings struct {
	Positive       int
	Negative       int
	ViewerVote     int
	ViewerRatingID int
}

// Permissions are the viewer's rights on a comment, computed by the server.
type Permissions struct {
	CanEdit   bool
	CanDelete bool
}

// Comment is one node of the thread.
type Comment struct {
	ID         int
	ParentID   int // 0 for top-level comments
	Subject    Subject
	Body       string
	CreatedAt  time.Time
	ModifiedAt *time.Time

	Author      Author
	Status      Status
	Categories  []Category
	Ratings     Ratings
	Permissions Permissions
	IsOwn       bool
}

// IsTopLevel reports whether the comment hangs directly off the subject.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == 0
}

// Clone returns a copy that shares nothing mutable with c.
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ModifiedAt != nil {
		t := *c.ModifiedAt
		cp.ModifiedAt = &t
	}
	if c.Categories != nil {
		cp.Categories = append([]Category(nil), c.Categories...)
	}
	return &cp
}
