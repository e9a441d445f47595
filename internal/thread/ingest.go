package thread

import (
	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/logging"
)

// DeriveStatus collapses the three moderation flags into one Status.
// Removal by the author wins over censoring, which wins over blocking;
// conflict reports whether more than one flag was set.
func DeriveStatus(removed, censored, blocked bool) (status Status, conflict bool) {
	n := 0
	for _, f := range []bool{removed, censored, blocked} {
		if f {
			n++
		}
	}
	switch {
	case removed:
		status = StatusRemovedByAuthor
	case censored:
		status = StatusRemovedByModerator
	case blocked:
		status = StatusBlockedByModerator
	}
	return status, n > 1
}

// Ingester converts wire comments into thread comments.
type Ingester struct {
	log zerolog.Logger
}

// NewIngester returns an Ingester logging to the "thread" component.
func NewIngester() *Ingester {
	return &Ingester{log: logging.Component("thread")}
}

// Build creates a store from a fetched thread. Replies keep the order the
// server sent them in.
func (in *Ingester) Build(t *api.Thread) *Store {
	s := NewStore(fromAPISubject(t.Subject), t.Meta.CommentsContentType)

	var walk func(cs []api.Comment, parentID int)
	walk = func(cs []api.Comment, parentID int) {
		for _, wc := range cs {
			if _, dup := s.comments[wc.ID]; dup {
				in.log.Warn().Int("id", wc.ID).Msg("duplicate comment in listing")
				continue
			}
			s.add(in.Comment(wc, parentID))
			walk(wc.ChildComments, wc.ID)
		}
	}
	walk(t.Comments, 0)

	in.log.Debug().
		Str("subject", t.Subject.String()).
		Int("comments", s.Len()).
		Msg("built thread")
	return s
}

// Comment converts a single wire comment. parentID is the id of the comment
// it replies to, or 0.
func (in *Ingester) Comment(wc api.Comment, parentID int) *Comment {
	status, conflict := DeriveStatus(wc.IsRemoved, wc.IsCensored, wc.IsBlocked)
	if conflict {
		in.log.Warn().
			Int("id", wc.ID).
			Bool("removed", wc.IsRemoved).
			Bool("censored", wc.IsCensored).
			Bool("blocked", wc.IsBlocked).
			Stringer("status", status).
			Msg("comment has more than one removal flag")
	}

	c := &Comment{
		ID:         wc.ID,
		ParentID:   parentID,
		Subject:    Subject{ContentType: wc.ContentType, ObjectID: string(wc.ObjectPK)},
		Body:       wc.Comment,
		CreatedAt:  wc.Created,
		ModifiedAt: wc.Modified,
		Author: Author{
			Name:        wc.UserName,
			ProfileURL:  wc.UserProfileURL,
			ImageURL:    wc.UserImage,
			IsModerator: wc.IsModerator,
		},
		Status: status,
		Ratings: Ratings{
			Positive: wc.Ratings.Positive,
			Negative: wc.Ratings.Negative,
		},
		Permissions: Permissions{
			CanEdit:   wc.HasChangingPermission,
			CanDelete: wc.HasDeletingPermission,
		},
		IsOwn: wc.IsUsersOwnComment,
	}
	if wc.UserPK != nil {
		c.Author.ID = *wc.UserPK
	}
	if v := wc.Ratings.CurrentUserVote; v != nil {
		c.Ratings.ViewerVote = *v
	}
	if id := wc.Ratings.CurrentUserID; id != nil {
		c.Ratings.ViewerRatingID = *id
	}
	for _, cat := range wc.CommentCategories {
		c.Categories = append(c.Categories, Category{Key: cat.Key, Label: cat.Label})
	}
	return c
}

func fromAPISubject(s api.Subject) Subject {
	return Subject{ContentType: s.ContentType, ObjectID: s.ObjectID}
}

// APISubject converts a thread subject to its wire form.
func (s Subject) APISubject() api.Subject {
	return api.Subject{ContentType: s.ContentType, ObjectID: s.ObjectID}
}
