// Package rating renders the up/down vote box of a comment and turns a key
// press into a create or update call on the ratings API.
package rating

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/thread"
)

var (
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32")).Bold(true)
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4D")).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

// Props is everything the widget shows. It has no state of its own.
type Props struct {
	ContentType    int
	ObjectID       int
	ViewerID       int
	Authenticated  bool
	Positive       int
	Negative       int
	ViewerVote     int
	ViewerRatingID int
	ReadOnly       bool
	Pending        bool
}

// FromComment builds props for c. commentType is the content type ratings
// are attached to.
func FromComment(c *thread.Comment, commentType, viewerID int, authenticated, readOnly bool) Props {
	return Props{
		ContentType:    commentType,
		ObjectID:       c.ID,
		ViewerID:       viewerID,
		Authenticated:  authenticated,
		Positive:       c.Ratings.Positive,
		Negative:       c.Ratings.Negative,
		ViewerVote:     c.Ratings.ViewerVote,
		ViewerRatingID: c.Ratings.ViewerRatingID,
		ReadOnly:       readOnly,
	}
}

// Disabled reports whether the viewer cannot vote.
func (p Props) Disabled() bool {
	return p.ReadOnly || !p.Authenticated
}

// Next returns the vote to send when the viewer presses value. Pressing
// the current vote again withdraws it.
func Next(p Props, value int) int {
	if p.ViewerVote == value {
		return 0
	}
	return value
}

// View renders the counts; the viewer's own vote is highlighted.
func View(p Props) string {
	up := fmt.Sprintf("+%d", p.Positive)
	down := fmt.Sprintf("-%d", p.Negative)

	switch {
	case p.ViewerVote > 0:
		up = upStyle.Render(up)
		down = countStyle.Render(down)
	case p.ViewerVote < 0:
		up = countStyle.Render(up)
		down = downStyle.Render(down)
	case p.Disabled():
		up = offStyle.Render(up)
		down = offStyle.Render(down)
	default:
		up = countStyle.Render(up)
		down = countStyle.Render(down)
	}
	out := up + " " + down
	if p.Pending {
		out += countStyle.Render(" ...")
	}
	return out
}

// Rater is the part of the API client that stores votes.
type Rater interface {
	Rate(ctx context.Context, contentType, objectID, value int) (*api.RatingResult, error)
	UpdateRating(ctx context.Context, contentType, objectID, ratingID, value int) (*api.RatingResult, error)
}

// Vote sends value for the object in p. A viewer without a previous rating
// creates one; otherwise the existing rating is updated.
func Vote(ctx context.Context, r Rater, p Props, value int) (thread.Ratings, error) {
	var (
		res *api.RatingResult
		err error
	)
	if p.ViewerRatingID == 0 {
		res, err = r.Rate(ctx, p.ContentType, p.ObjectID, value)
	} else {
		res, err = r.UpdateRating(ctx, p.ContentType, p.ObjectID, p.ViewerRatingID, value)
	}
	if err != nil {
		return thread.Ratings{}, fmt.Errorf("vote on %d: %w", p.ObjectID, err)
	}

	out := thread.Ratings{
		Positive:       res.MetaInfo.Positive,
		Negative:       res.MetaInfo.Negative,
		ViewerVote:     res.Value,
		ViewerRatingID: res.ID,
	}
	if res.MetaInfo.UserValue != nil {
		out.ViewerVote = *res.MetaInfo.UserValue
	}
	if res.MetaInfo.UserID != nil {
		out.ViewerRatingID = *res.MetaInfo.UserID
	}
	return out, nil
}
