package commentview

import (
	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/rating"
)

// AuthorView is the header of a comment.
type AuthorView struct {
	Name       string
	ProfileURL string
	ImageURL   string
	Deleted    bool
	Moderator  bool
}

// ActionsView lists the controls shown for a comment.
type ActionsView struct {
	ReplyLabel string
	Reply      bool
	Share      bool
	Report     bool
	Edit       bool
	Delete     bool
	Pending    bool
}

// ReplyView is the area under an open comment: a form or a notice.
type ReplyView struct {
	ParentID int
	Form     string
	Notice   string
	Focused  bool
}

// View is the display tree of one comment and its open replies.
type View struct {
	ID          int
	Anchor      string
	Status      thread.Status
	Highlighted bool
	Own         bool
	Banner      string

	Author     AuthorView
	DateLabel  string
	Categories []thread.Category

	Body     string
	Editing  bool
	EditForm string
	ReadMore string

	// Rating is nil for deleted comments.
	Rating   *rating.Props
	Actions  ActionsView
	ShareURL string

	Expanded bool
	Children []View
	Reply    *ReplyView
}

// Snapshot computes the display of c from its node state and the ambient
// env. childCount is the number of direct replies. Forms, children and the
// reply area are filled in by the node.
func Snapshot(c *thread.Comment, st State, env *Env, childCount int) View {
	deleted := c.Status.Deleted()

	v := View{
		ID:          c.ID,
		Anchor:      AnchorName(c.ID),
		Status:      c.Status,
		Highlighted: st.AnchorTarget,
		Own:         c.IsOwn,
		Author: AuthorView{
			Name:       c.Author.Name,
			ProfileURL: c.Author.ProfileURL,
			Deleted:    deleted,
			Moderator:  c.Author.IsModerator && !deleted,
		},
		DateLabel: DateLabel(c, env.DateLayout),
		Editing:   st.Editing,
		Expanded:  st.ChildrenExpanded,
		ShareURL:  ShareURL(env.PageURL, c.ID),
	}
	if !deleted {
		v.Author.ImageURL = c.Author.ImageURL
	}
	if st.ShowBanner {
		v.Banner = BannerText
	}

	if !st.Editing && env.displayCategories(c) {
		v.Categories = c.Categories
	}

	body, long := Truncate(c.Body, st.Truncated)
	if !st.Editing {
		v.Body = body
	}
	if long {
		if st.Truncated {
			v.ReadMore = ReadMoreLabel
		} else {
			v.ReadMore = ReadLessLabel
		}
	}

	if !deleted {
		p := rating.FromComment(c, env.Store.CommentType, env.Viewer.ID, env.Viewer.Authenticated, env.ReadOnly)
		v.Rating = &p
	}

	v.Actions = ActionsView{
		ReplyLabel: ReplyLabel(st.ChildrenExpanded, childCount),
		Reply:      (env.allowForm(c) && !deleted) || childCount > 0,
		Share:      !deleted,
		Report:     !deleted && env.Viewer.Authenticated && !c.IsOwn,
		Edit:       !deleted && c.Permissions.CanEdit,
		Delete:     !deleted && c.Permissions.CanDelete,
	}
	return v
}
