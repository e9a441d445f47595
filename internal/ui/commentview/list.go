package commentview

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadview/internal/thread"
)

// FilterAll shows every comment. Lists receive their comments pre-filtered;
// the filter is carried for callers that want to know it.
const FilterAll = "all"

// List is the ordered replies of one parent, or the top-level comments
// when parentID is 0. It has no thread state of its own.
type List struct {
	env         *Env
	parentID    int
	parentIndex int
	filter      string

	nodes []*Node
	byID  map[int]*Node
}

// NewList creates an empty list; call Sync to mount its nodes. parentIndex
// is the parent's own index, -1 for the top level.
func NewList(env *Env, parentID, parentIndex int) *List {
	return &List{
		env:         env,
		parentID:    parentID,
		parentIndex: parentIndex,
		filter:      FilterAll,
		byID:        make(map[int]*Node),
	}
}

// Filter returns the filter the list was built with.
func (l *List) Filter() string { return l.filter }

// ParentID returns the comment the list belongs to.
func (l *List) ParentID() int { return l.parentID }

// Sync reconciles the mounted nodes with the store by id. Surviving nodes
// keep their state, removed ones are destroyed and new ones mounted. The
// returned command carries the Init of every new node.
func (l *List) Sync() tea.Cmd {
	ids := l.env.Store.Children(l.parentID)
	nodes := make([]*Node, 0, len(ids))
	byID := make(map[int]*Node, len(ids))
	var cmds []tea.Cmd

	for i, id := range ids {
		pos := thread.Position{ID: id, Index: i, ParentIndex: l.parentIndex}
		n, ok := l.byID[id]
		if ok {
			cmds = append(cmds, n.sync(pos))
		} else {
			n = newNode(l.env, pos)
			cmds = append(cmds, n.Init())
		}
		nodes = append(nodes, n)
		byID[id] = n
	}
	for id, n := range l.byID {
		if _, ok := byID[id]; !ok {
			n.Destroy()
		}
	}

	l.nodes = nodes
	l.byID = byID
	return tea.Batch(cmds...)
}

// Nodes returns the mounted nodes in display order.
func (l *List) Nodes() []*Node { return l.nodes }

// Find returns the mounted node of id anywhere below the list.
func (l *List) Find(id int) *Node {
	if n, ok := l.byID[id]; ok {
		return n
	}
	for _, n := range l.nodes {
		if n.children == nil {
			continue
		}
		if found := n.children.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Route hands msg to the node it belongs to.
func (l *List) Route(msg tea.Msg) (bool, tea.Cmd) {
	for _, n := range l.nodes {
		if ok, cmd := n.Route(msg); ok {
			return true, cmd
		}
	}
	return false, nil
}

// Snapshot returns the display trees of all nodes.
func (l *List) Snapshot() []View {
	views := make([]View, 0, len(l.nodes))
	for _, n := range l.nodes {
		views = append(views, n.Snapshot())
	}
	return views
}

// Destroy unmounts every node.
func (l *List) Destroy() {
	for _, n := range l.nodes {
		n.Destroy()
	}
	l.nodes = nil
	l.byID = make(map[int]*Node)
}
