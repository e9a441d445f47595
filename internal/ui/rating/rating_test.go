package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadview/internal/api"
)

type fakeRater struct {
	created, updated int
	lastValue        int
	err              error
}

func (f *fakeRater) result(value int) (*api.RatingResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastValue = value
	res := &api.RatingResult{ID: 77, Value: value}
	res.MetaInfo.Positive = 4
	res.MetaInfo.Negative = 1
	return res, nil
}

func (f *fakeRater) Rate(_ context.Context, _, _, value int) (*api.RatingResult, error) {
	f.created++
	return f.result(value)
}

func (f *fakeRater) UpdateRating(_ context.Context, _, _, _, value int) (*api.RatingResult, error) {
	f.updated++
	return f.result(value)
}

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		prior int
		press int
		want  int
	}{
		{"first up vote", 0, 1, 1},
		{"first down vote", 0, -1, -1},
		{"same vote withdraws", 1, 1, 0},
		{"switch side", 1, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(Props{ViewerVote: tt.prior}, tt.press))
		})
	}
}

func TestDisabled(t *testing.T) {
	assert.True(t, Props{}.Disabled(), "anonymous")
	assert.True(t, Props{Authenticated: true, ReadOnly: true}.Disabled())
	assert.False(t, Props{Authenticated: true}.Disabled())
}

func TestVote_CreatesThenUpdates(t *testing.T) {
	r := &fakeRater{}

	got, err := Vote(context.Background(), r, Props{ContentType: 9, ObjectID: 5}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.created)
	assert.Equal(t, 4, got.Positive)
	assert.Equal(t, 1, got.ViewerVote)
	assert.Equal(t, 77, got.ViewerRatingID)

	_, err = Vote(context.Background(), r, Props{ContentType: 9, ObjectID: 5, ViewerRatingID: 77}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.updated)
	assert.Equal(t, 0, r.lastValue)
}

func TestVote_Error(t *testing.T) {
	r := &fakeRater{err: errors.New("boom")}
	_, err := Vote(context.Background(), r, Props{ObjectID: 5}, 1)
	assert.ErrorContains(t, err, "boom")
}

func TestView(t *testing.T) {
	out := View(Props{Positive: 3, Negative: 2, Authenticated: true})
	assert.Contains(t, out, "+3")
	assert.Contains(t, out, "-2")
	assert.Contains(t, View(Props{Pending: true}), "...")
}
