package threadview

import "github.com/fragmede/threadview/internal/ui/commentview"

// EntryKind tells comments from reply areas in the flat list.
type EntryKind int

const (
	EntryComment EntryKind = iota
	EntryReply
)

// Entry is one selectable row of the flattened thread.
type Entry struct {
	Kind EntryKind
	// ID is the comment id, or for reply areas the comment replied to.
	ID       int
	ParentID int
	Depth    int
	View     *commentview.View
	Reply    *commentview.ReplyView
}

type entryKey struct {
	kind EntryKind
	id   int
}

func (e Entry) key() entryKey { return entryKey{e.Kind, e.ID} }

// Flatten converts the display tree into a flat list. Open comments are
// followed by their replies and then their reply area.
func Flatten(views []commentview.View) []Entry {
	var result []Entry

	var walk func(vs []commentview.View, parentID, depth int)
	walk = func(vs []commentview.View, parentID, depth int) {
		for i := range vs {
			v := &vs[i]
			result = append(result, Entry{
				Kind:     EntryComment,
				ID:       v.ID,
				ParentID: parentID,
				Depth:    depth,
				View:     v,
			})
			walk(v.Children, v.ID, depth+1)
			if v.Reply != nil {
				result = append(result, Entry{
					Kind:     EntryReply,
					ID:       v.ID,
					ParentID: v.ID,
					Depth:    depth + 1,
					Reply:    v.Reply,
				})
			}
		}
	}
	walk(views, 0, 0)
	return result
}

// FindParentIndex returns the index of the parent comment in the flat list.
func FindParentIndex(entries []Entry, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(entries) {
		return -1
	}
	parentID := entries[currentIdx].ParentID
	if parentID == 0 {
		return -1
	}
	for i := currentIdx - 1; i >= 0; i-- {
		if entries[i].Kind == EntryComment && entries[i].ID == parentID {
			return i
		}
	}
	return -1
}

// FindNextSiblingIndex returns the index of the next comment at the same depth.
func FindNextSiblingIndex(entries []Entry, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(entries) {
		return -1
	}
	depth := entries[currentIdx].Depth
	for i := currentIdx + 1; i < len(entries); i++ {
		if entries[i].Depth < depth {
			return -1
		}
		if entries[i].Depth == depth && entries[i].Kind == EntryComment {
			return i
		}
	}
	return -1
}
