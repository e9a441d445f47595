package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadview/internal/api"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestThreadRoundTrip(t *testing.T) {
	db := openTemp(t)
	s := api.Subject{ContentType: 12, ObjectID: "7"}

	got, fresh, err := db.GetThread(s, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, fresh)

	th := &api.Thread{
		Subject: s,
		Meta:    api.ThreadMeta{CommentCount: 2, CommentsContentType: 8, HasCommentingPermission: true},
		Comments: []api.Comment{{
			ID:                1,
			Comment:           "first",
			ObjectPK:          "7",
			Created:           time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			CommentCategories: api.Categories{{Key: "q", Label: "Question"}, {Key: "a", Label: "Answer"}},
			ChildComments:     []api.Comment{{ID: 11, Comment: "reply", ObjectPK: "1"}},
		}},
	}
	require.NoError(t, db.PutThread(th))

	got, fresh, err = db.GetThread(s, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, fresh)
	assert.Equal(t, th.Meta, got.Meta)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "first", got.Comments[0].Comment)
	assert.Equal(t, th.Comments[0].CommentCategories, got.Comments[0].CommentCategories)
	require.Len(t, got.Comments[0].ChildComments, 1)
	assert.Equal(t, 11, got.Comments[0].ChildComments[0].ID)

	_, fresh, err = db.GetThread(s, 0)
	require.NoError(t, err)
	assert.False(t, fresh, "zero ttl is never fresh")
}

func TestInvalidateThread(t *testing.T) {
	db := openTemp(t)
	s := api.Subject{ContentType: 12, ObjectID: "7"}
	require.NoError(t, db.PutThread(&api.Thread{Subject: s}))
	require.NoError(t, db.InvalidateThread(s))

	got, fresh, err := db.GetThread(s, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got, "stale rows are kept for offline use")
	assert.False(t, fresh)
	assert.Empty(t, got.Comments)
}

func TestWidget(t *testing.T) {
	db := openTemp(t)
	page := "https://example.org/projects/p/ideas/7/"

	w := &api.Widget{
		SubjectType:            12,
		SubjectID:              "7",
		WithCategories:         true,
		CommentCategoryChoices: api.Categories{{Key: "q", Label: "Question"}},
	}
	require.NoError(t, db.PutWidget(page, w))

	got, fresh, err := db.GetWidget(page, time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, w, got)

	got, _, err = db.GetWidget("https://example.org/other/", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSeen(t *testing.T) {
	db := openTemp(t)
	s := api.Subject{ContentType: 12, ObjectID: "7"}

	seen, ok, err := db.GetSeen(s)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, s, seen.Subject)

	now := time.Unix(time.Now().Unix(), 0)
	require.NoError(t, db.PutSeen(Seen{Subject: s, IDs: []int{1, 11, 2}, CheckedAt: now}))

	seen, ok, err = db.GetSeen(s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 11, 2}, seen.IDs)
	assert.True(t, now.Equal(seen.CheckedAt))
}

func TestClear(t *testing.T) {
	db := openTemp(t)
	s := api.Subject{ContentType: 12, ObjectID: "7"}
	require.NoError(t, db.PutThread(&api.Thread{Subject: s}))
	require.NoError(t, db.PutWidget("https://example.org/", &api.Widget{}))
	require.NoError(t, db.PutSeen(Seen{Subject: s, CheckedAt: time.Now()}))

	require.NoError(t, db.Clear())

	th, _, err := db.GetThread(s, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, th)
	w, _, err := db.GetWidget("https://example.org/", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, w)
	_, ok, err := db.GetSeen(s)
	require.NoError(t, err)
	assert.False(t, ok)
}
