package thread

import (
	"fmt"
	"slices"
	"time"
)

// Position locates a comment among its siblings. ParentIndex is the
// parent's own index, or -1 for top-level comments.
type Position struct {
	ID          int
	Index       int
	ParentIndex int
}

// Store is the single authoritative copy of a comment tree.
type Store struct {
	Subject     Subject
	CommentType int

	comments map[int]*Comment
	roots    []int
	children map[int][]int
}

// NewStore returns an empty store for subject. commentType is the content
// type of comments themselves; replies use it as their subject type.
func NewStore(subject Subject, commentType int) *Store {
	return &Store{
		Subject:     subject,
		CommentType: commentType,
		comments:    make(map[int]*Comment),
		children:    make(map[int][]int),
	}
}

// Len returns the number of comments, tombstones included.
func (s *Store) Len() int {
	return len(s.comments)
}

// Get returns the comment with id.
func (s *Store) Get(id int) (*Comment, bool) {
	c, ok := s.comments[id]
	return c, ok
}

// Roots returns the top-level comment ids in display order.
func (s *Store) Roots() []int {
	return s.roots
}

// Children returns the reply ids of id in display order. Children(0)
// returns the roots.
func (s *Store) Children(id int) []int {
	if id == 0 {
		return s.roots
	}
	return s.children[id]
}

// Parent returns the parent id of id, 0 for top-level or unknown comments.
func (s *Store) Parent(id int) int {
	if c, ok := s.comments[id]; ok {
		return c.ParentID
	}
	return 0
}

// Ancestors returns the chain of parent ids from the direct parent up to
// the top-level comment.
func (s *Store) Ancestors(id int) []int {
	var out []int
	for p := s.Parent(id); p != 0; p = s.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Position returns where id sits among its siblings.
func (s *Store) Position(id int) (Position, bool) {
	c, ok := s.comments[id]
	if !ok {
		return Position{}, false
	}
	pos := Position{ID: id, Index: slices.Index(s.Children(c.ParentID), id), ParentIndex: -1}
	if c.ParentID != 0 {
		pos.ParentIndex = slices.Index(s.Children(s.Parent(c.ParentID)), c.ParentID)
	}
	return pos, true
}

// Insert adds a new comment. New top-level comments go first, matching the
// newest-first order of the list; replies are appended to their parent.
func (s *Store) Insert(c *Comment) error {
	if _, exists := s.comments[c.ID]; exists {
		return fmt.Errorf("comment %d already exists", c.ID)
	}
	if c.ParentID != 0 {
		if _, ok := s.comments[c.ParentID]; !ok {
			return fmt.Errorf("parent %d of comment %d not found", c.ParentID, c.ID)
		}
		s.children[c.ParentID] = append(s.children[c.ParentID], c.ID)
	} else {
		s.roots = append([]int{c.ID}, s.roots...)
	}
	s.comments[c.ID] = c
	return nil
}

// add appends c at the end of its sibling list. Used while ingesting a
// list that is already in display order.
func (s *Store) add(c *Comment) {
	if c.ParentID != 0 {
		s.children[c.ParentID] = append(s.children[c.ParentID], c.ID)
	} else {
		s.roots = append(s.roots, c.ID)
	}
	s.comments[c.ID] = c
}

// Replace swaps in an updated version of an existing comment, keeping its
// place in the tree.
func (s *Store) Replace(c *Comment) error {
	old, ok := s.comments[c.ID]
	if !ok {
		return fmt.Errorf("comment %d not found", c.ID)
	}
	c.ParentID = old.ParentID
	s.comments[c.ID] = c
	return nil
}

// Remove deletes a comment the server no longer returns. A comment that
// still has replies becomes a tombstone with status so its thread stays
// reachable.
func (s *Store) Remove(id int, status Status, at time.Time) error {
	c, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %d not found", id)
	}
	if len(s.children[id]) > 0 {
		c.Status = status
		c.Body = ""
		c.Categories = nil
		c.Permissions = Permissions{}
		c.ModifiedAt = &at
		return nil
	}

	delete(s.comments, id)
	delete(s.children, id)
	if c.ParentID != 0 {
		s.children[c.ParentID] = slices.DeleteFunc(s.children[c.ParentID], func(x int) bool { return x == id })
	} else {
		s.roots = slices.DeleteFunc(s.roots, func(x int) bool { return x == id })
	}
	return nil
}

// Walk visits comments depth first in display order. Returning false from
// fn skips the comment's replies.
func (s *Store) Walk(fn func(c *Comment, depth int) bool) {
	var walk func(ids []int, depth int)
	walk = func(ids []int, depth int) {
		for _, id := range ids {
			c := s.comments[id]
			if c == nil {
				continue
			}
			if fn(c, depth) {
				walk(s.children[id], depth+1)
			}
		}
	}
	walk(s.roots, 0)
}

// IDs returns every comment id in display order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.comments))
	s.Walk(func(c *Comment, _ int) bool {
		ids = append(ids, c.ID)
		return true
	})
	return ids
}

// ViewerID returns the user id of the viewer if any of their own comments
// is in the thread, else 0.
func (s *Store) ViewerID() int {
	id := 0
	s.Walk(func(c *Comment, _ int) bool {
		if id == 0 && c.IsOwn && c.Author.ID != 0 {
			id = c.Author.ID
		}
		return id == 0
	})
	return id
}

// Anchor is the resolved deep-link target of a thread.
type Anchor struct {
	// ID is the anchored comment, 0 when there is none.
	ID int
	// ParentID is the anchor's parent for replies and the anchor itself
	// for top-level comments: its replies are opened on mount.
	ParentID int
}

// AnchorContext resolves anchorID against the store. Unknown ids yield the
// zero Anchor.
func (s *Store) AnchorContext(anchorID int) Anchor {
	c, ok := s.comments[anchorID]
	if !ok {
		return Anchor{}
	}
	a := Anchor{ID: anchorID, ParentID: anchorID}
	if c.ParentID != 0 {
		a.ParentID = c.ParentID
	}
	return a
}

// Expands reports whether the comment id starts with its replies shown,
// which holds for the anchor's parent only.
func (a Anchor) Expands(id int) bool {
	return a.ID != 0 && id == a.ParentID
}

// Targets reports whether id is the anchored comment.
func (a Anchor) Targets(id int) bool {
	return a.ID != 0 && id == a.ID
}
