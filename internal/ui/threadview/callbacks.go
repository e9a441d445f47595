package threadview

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/cache"
	"github.com/fragmede/threadview/internal/thread"
	"github.com/fragmede/threadview/internal/ui/commentview"
	"github.com/fragmede/threadview/internal/ui/rating"
)

// Client is the part of the API client the thread view needs.
type Client interface {
	FetchWidget(ctx context.Context, pageURL string) (*api.Widget, error)
	ListComments(ctx context.Context, s api.Subject) (*api.Thread, error)
	CreateComment(ctx context.Context, s api.Subject, in api.CommentInput) (*api.Comment, error)
	ModifyComment(ctx context.Context, s api.Subject, id int, in api.CommentInput) (*api.Comment, error)
	DeleteComment(ctx context.Context, s api.Subject, id int) (*api.Comment, error)
	SubmitReport(ctx context.Context, r api.Report) error
	rating.Rater
}

// callbacks sends node mutations to the server. Results are converted but
// never applied here: the model applies them when the result message
// arrives.
type callbacks struct {
	client      Client
	cache       *cache.DB
	ingester    *thread.Ingester
	subject     thread.Subject
	commentType int
	errs        map[int]commentview.ErrorState
	log         zerolog.Logger
}

func commentInput(body string, categories []string) api.CommentInput {
	in := api.CommentInput{Comment: body}
	if categories != nil {
		joined := strings.Join(categories, ",")
		in.Categories = &joined
	}
	return in
}

// changed marks the cached copy stale after a successful write.
func (c *callbacks) changed() {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateThread(c.subject.APISubject()); err != nil {
		c.log.Error().Err(err).Msg("invalidating cached thread")
	}
}

func (c *callbacks) Create(ctx context.Context, parent thread.Position, body string, categories []string) (*thread.Comment, error) {
	s := c.subject
	if parent.ID != 0 {
		s = thread.Subject{ContentType: c.commentType, ObjectID: strconv.Itoa(parent.ID)}
	}
	wc, err := c.client.CreateComment(ctx, s.APISubject(), commentInput(body, categories))
	if err != nil {
		return nil, err
	}
	c.changed()
	return c.ingester.Comment(*wc, parent.ID), nil
}

func (c *callbacks) Modify(ctx context.Context, pos thread.Position, subject thread.Subject, body string, categories []string) (*thread.Comment, error) {
	wc, err := c.client.ModifyComment(ctx, subject.APISubject(), pos.ID, commentInput(body, categories))
	if err != nil {
		return nil, err
	}
	c.changed()
	return c.ingester.Comment(*wc, 0), nil
}

func (c *callbacks) Delete(ctx context.Context, pos thread.Position, subject thread.Subject) (*thread.Comment, error) {
	wc, err := c.client.DeleteComment(ctx, subject.APISubject(), pos.ID)
	if err != nil {
		return nil, err
	}
	c.changed()
	if wc == nil {
		return nil, nil
	}
	return c.ingester.Comment(*wc, 0), nil
}

func (c *callbacks) Rate(ctx context.Context, pos thread.Position, prior thread.Ratings, value int) (thread.Ratings, error) {
	p := rating.Props{
		ContentType:    c.commentType,
		ObjectID:       pos.ID,
		Authenticated:  true,
		ViewerVote:     prior.ViewerVote,
		ViewerRatingID: prior.ViewerRatingID,
	}
	r, err := rating.Vote(ctx, c.client, p, value)
	if err != nil {
		return thread.Ratings{}, err
	}
	c.changed()
	return r, nil
}

func (c *callbacks) Report(ctx context.Context, pos thread.Position, reason string) error {
	return c.client.SubmitReport(ctx, api.Report{
		Description: reason,
		ContentType: c.commentType,
		ObjectPK:    strconv.Itoa(pos.ID),
	})
}

func (c *callbacks) EditErrorAck(pos thread.Position) {
	e := c.errs[pos.ID]
	e.Edit = nil
	c.setErrors(pos.ID, e)
}

func (c *callbacks) ReplyErrorAck(pos thread.Position) {
	e := c.errs[pos.ID]
	e.Reply = nil
	c.setErrors(pos.ID, e)
}

func (c *callbacks) setErrors(id int, e commentview.ErrorState) {
	if e.Edit == nil && e.Reply == nil {
		delete(c.errs, id)
		return
	}
	c.errs[id] = e
}
