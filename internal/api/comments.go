package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

func commentsPath(s Subject) string {
	return fmt.Sprintf("/api/contenttypes/%d/objects/%s/comments/", s.ContentType, url.PathEscape(s.ObjectID))
}

func ratingsPath(contentType, objectID int) string {
	return fmt.Sprintf("/api/contenttypes/%d/objects/%d/ratings/", contentType, objectID)
}

func (c *Client) pageURL(s Subject, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.pageSize))
	return c.endpoint(commentsPath(s)) + "?" + q.Encode()
}

// ListComments fetches every top-level comment of subject, with replies
// nested. The first page tells how many pages exist; the rest are fetched
// concurrently and stitched back together in order.
func (c *Client) ListComments(ctx context.Context, s Subject) (*Thread, error) {
	var first commentPage
	if err := c.do(ctx, http.MethodGet, c.pageURL(s, 1), nil, &first); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	thread := &Thread{Subject: s, Meta: first.ThreadMeta}
	perPage := len(first.Results)
	if first.Next == nil || perPage == 0 || first.Count <= perPage {
		thread.Comments = first.Results
		return thread, nil
	}

	pages := (first.Count + perPage - 1) / perPage
	results := make([][]Comment, pages)
	results[0] = first.Results

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			var p commentPage
			if err := c.do(gctx, http.MethodGet, c.pageURL(s, page), nil, &p); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			// Each goroutine owns its slot.
			results[page-1] = p.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	for _, r := range results {
		thread.Comments = append(thread.Comments, r...)
	}
	c.log.Debug().
		Str("subject", s.String()).
		Int("pages", pages).
		Int("comments", len(thread.Comments)).
		Msg("listed comments")
	return thread, nil
}

// CreateComment posts a new comment on subject. Replies use the comment
// content type and the parent comment id as subject.
func (c *Client) CreateComment(ctx context.Context, s Subject, in CommentInput) (*Comment, error) {
	var out Comment
	if err := c.do(ctx, http.MethodPost, c.endpoint(commentsPath(s)), in, &out); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &out, nil
}

// ModifyComment updates the text (and categories) of comment id.
func (c *Client) ModifyComment(ctx context.Context, s Subject, id int, in CommentInput) (*Comment, error) {
	var out Comment
	u := c.endpoint(commentsPath(s)) + strconv.Itoa(id) + "/"
	if err := c.do(ctx, http.MethodPatch, u, in, &out); err != nil {
		return nil, fmt.Errorf("modify comment %d: %w", id, err)
	}
	return &out, nil
}

// DeleteComment soft-deletes comment id. The server answers with the
// tombstoned comment; a nil comment means it answered without a body.
func (c *Client) DeleteComment(ctx context.Context, s Subject, id int) (*Comment, error) {
	var out Comment
	u := c.endpoint(commentsPath(s)) + strconv.Itoa(id) + "/"
	if err := c.do(ctx, http.MethodDelete, u, nil, &out); err != nil {
		return nil, fmt.Errorf("delete comment %d: %w", id, err)
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

// Rate records the viewer's first vote on an object.
func (c *Client) Rate(ctx context.Context, contentType, objectID, value int) (*RatingResult, error) {
	var out RatingResult
	body := map[string]int{"value": value}
	if err := c.do(ctx, http.MethodPost, c.endpoint(ratingsPath(contentType, objectID)), body, &out); err != nil {
		return nil, fmt.Errorf("rate %d: %w", objectID, err)
	}
	return &out, nil
}

// UpdateRating changes an existing vote. A value of 0 withdraws it.
func (c *Client) UpdateRating(ctx context.Context, contentType, objectID, ratingID, value int) (*RatingResult, error) {
	var out RatingResult
	body := map[string]int{"value": value}
	u := c.endpoint(ratingsPath(contentType, objectID)) + strconv.Itoa(ratingID) + "/"
	if err := c.do(ctx, http.MethodPatch, u, body, &out); err != nil {
		return nil, fmt.Errorf("update rating %d: %w", ratingID, err)
	}
	return &out, nil
}

// SubmitReport sends a moderation report.
func (c *Client) SubmitReport(ctx context.Context, r Report) error {
	if err := c.do(ctx, http.MethodPost, c.endpoint("/api/reports/"), r, nil); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
