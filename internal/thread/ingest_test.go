package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fragmede/threadview/internal/api"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name                       string
		removed, censored, blocked bool
		want                       Status
		conflict                   bool
	}{
		{"active", false, false, false, StatusActive, false},
		{"removed by author", true, false, false, StatusRemovedByAuthor, false},
		{"removed by moderator", false, true, false, StatusRemovedByModerator, false},
		{"blocked", false, false, true, StatusBlockedByModerator, false},
		{"removed wins over censored", true, true, false, StatusRemovedByAuthor, true},
		{"censored wins over blocked", false, true, true, StatusRemovedByModerator, true},
		{"all set", true, true, true, StatusRemovedByAuthor, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conflict := DeriveStatus(tt.removed, tt.censored, tt.blocked)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.conflict, conflict)
			assert.Equal(t, tt.want != StatusActive, got.Deleted())
		})
	}
}

func TestIngester_Comment(t *testing.T) {
	modified := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)
	wc := api.Comment{
		ID:             5,
		Comment:        "hi",
		ContentType:    8,
		ObjectPK:       "1",
		Modified:       &modified,
		IsCensored:     true,
		IsModerator:    true,
		UserName:       "mod",
		UserPK:         ptr(9),
		UserProfileURL: "/u/mod/",
		UserImage:      "/img.png",
		Ratings: api.Ratings{
			Positive:        4,
			Negative:        2,
			CurrentUserVote: ptr(-1),
			CurrentUserID:   ptr(33),
		},
		HasChangingPermission: true,
		IsUsersOwnComment:     true,
		CommentCategories:     api.Categories{{Key: "B", Label: "Bee"}, {Key: "A", Label: "Ay"}},
	}

	c := NewIngester().Comment(wc, 1)

	assert.Equal(t, 1, c.ParentID)
	assert.Equal(t, Subject{ContentType: 8, ObjectID: "1"}, c.Subject)
	assert.Equal(t, StatusRemovedByModerator, c.Status)
	assert.Equal(t, &modified, c.ModifiedAt)
	assert.Equal(t, Author{ID: 9, Name: "mod", ProfileURL: "/u/mod/", ImageURL: "/img.png", IsModerator: true}, c.Author)
	assert.Equal(t, Ratings{Positive: 4, Negative: 2, ViewerVote: -1, ViewerRatingID: 33}, c.Ratings)
	assert.Equal(t, Permissions{CanEdit: true}, c.Permissions)
	assert.True(t, c.IsOwn)
	assert.Equal(t, []Category{{Key: "B", Label: "Bee"}, {Key: "A", Label: "Ay"}}, c.Categories)
}

func TestClone(t *testing.T) {
	m := time.Now()
	c := &Comment{ID: 1, ModifiedAt: &m, Categories: []Category{{Key: "A"}}}
	cp := c.Clone()

	cp.Categories[0].Key = "B"
	*cp.ModifiedAt = m.Add(time.Hour)

	assert.Equal(t, "A", c.Categories[0].Key)
	assert.Equal(t, m, *c.ModifiedAt)
}
