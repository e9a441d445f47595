package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c, srv
}

func commentJSON(id int, body string, children ...string) string {
	kids := "[]"
	if len(children) > 0 {
		kids = "[" + strings.Join(children, ",") + "]"
	}
	return fmt.Sprintf(`{
		"id": %d, "comment": %q, "content_type": 8, "object_pk": "1",
		"created": "2024-05-01T10:00:00+02:00", "modified": null,
		"is_removed": false, "is_censored": false, "is_blocked": false, "is_deleted": false,
		"user_name": "anna", "user_pk": 3, "user_profile_url": "/profile/anna/",
		"child_comments": %s,
		"ratings": {"positive_ratings": 2, "negative_ratings": 1,
		            "current_user_rating_value": null, "current_user_rating_id": null},
		"comment_categories": {"QUE": "Question", "ABC": "Alpha"}
	}`, id, body, kids)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("/api")
	assert.Error(t, err)
}

func TestListComments_SinglePage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contenttypes/12/objects/7/comments/", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{"count": 1, "next": null, "comments_contenttype": 8,
			"has_commenting_permission": true, "results": [%s]}`,
			commentJSON(1, "hello", commentJSON(2, "reply")))
	}))

	th, err := c.ListComments(context.Background(), Subject{ContentType: 12, ObjectID: "7"})
	require.NoError(t, err)

	assert.Equal(t, 8, th.Meta.CommentsContentType)
	assert.True(t, th.Meta.HasCommentingPermission)
	require.Len(t, th.Comments, 1)

	top := th.Comments[0]
	assert.Equal(t, "hello", top.Comment)
	assert.Equal(t, ID("1"), top.ObjectPK)
	assert.Nil(t, top.Modified)
	require.Len(t, top.ChildComments, 1)
	assert.Equal(t, 2, top.ChildComments[0].ID)

	// Category order follows the document, not key order.
	assert.Equal(t, Categories{{Key: "QUE", Label: "Question"}, {Key: "ABC", Label: "Alpha"}}, top.CommentCategories)
}

func TestListComments_FetchesRemainingPagesInOrder(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		next := `"more"`
		if page == 3 {
			next = "null"
		}
		first := (page-1)*2 + 1
		fmt.Fprintf(w, `{"count": 5, "next": %s, "results": [%s%s]}`,
			next, commentJSON(first, "c"), func() string {
				if first+1 > 5 {
					return ""
				}
				return "," + commentJSON(first+1, "c")
			}())
	}), WithPaging(2, 2))

	th, err := c.ListComments(context.Background(), Subject{ContentType: 1, ObjectID: "1"})
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	ids := make([]int, len(th.Comments))
	for i, cm := range th.Comments {
		ids[i] = cm.ID
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids)
}

func TestListComments_PageFailureFailsWhole(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"count": 2, "next": "x", "results": [%s]}`, commentJSON(1, "a"))
	}))

	_, err := c.ListComments(context.Background(), Subject{ContentType: 1, ObjectID: "1"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestUnsafeRequestsCarryCSRFToken(t *testing.T) {
	var gotToken, gotBody string
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotToken = r.Header.Get("X-CSRFToken")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, commentJSON(9, "new"))
	}))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "tok123"}})
	c.http.Jar = jar

	cats := "QUE"
	cm, err := c.CreateComment(context.Background(), Subject{ContentType: 8, ObjectID: "4"}, CommentInput{Comment: "new", Categories: &cats})
	require.NoError(t, err)

	assert.Equal(t, 9, cm.ID)
	assert.Equal(t, "tok123", gotToken)
	assert.JSONEq(t, `{"comment": "new", "comment_categories": "QUE"}`, gotBody)
}

func TestModifyAndDelete(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contenttypes/12/objects/7/comments/5/", r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			var in CommentInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			fmt.Fprint(w, commentJSON(5, in.Comment))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	s := Subject{ContentType: 12, ObjectID: "7"}

	cm, err := c.ModifyComment(context.Background(), s, 5, CommentInput{Comment: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", cm.Comment)

	cm, err = c.DeleteComment(context.Background(), s, 5)
	require.NoError(t, err)
	assert.Nil(t, cm)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotAuthenticated) },
		},
		{
			name:   "forbidden without credentials",
			status: http.StatusForbidden,
			body:   `{"detail": "Authentication credentials were not provided."}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotAuthenticated) },
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"detail": "You do not have permission to perform this action."}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrForbidden) },
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "validation",
			status: http.StatusBadRequest,
			body:   `{"comment": ["This field may not be blank."]}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "This field may not be blank.", ve.Message())
				assert.Contains(t, ve.Error(), "comment:")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			_, err := c.ModifyComment(context.Background(), Subject{ContentType: 1, ObjectID: "1"}, 1, CommentInput{})
			tt.check(t, err)
		})
	}
}

func TestRatings(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/contenttypes/8/objects/5/ratings/":
			fmt.Fprint(w, `{"id": 77, "value": 1, "meta_info": {
				"positive_ratings_on_same_object": 3, "negative_ratings_on_same_object": 0,
				"user_rating_on_same_object_value": 1, "user_rating_on_same_object_id": 77}}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/contenttypes/8/objects/5/ratings/77/":
			fmt.Fprint(w, `{"id": 77, "value": 0, "meta_info": {
				"positive_ratings_on_same_object": 2, "negative_ratings_on_same_object": 0,
				"user_rating_on_same_object_value": 0, "user_rating_on_same_object_id": 77}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))

	res, err := c.Rate(context.Background(), 8, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.MetaInfo.Positive)

	res, err = c.UpdateRating(context.Background(), 8, 5, 77, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.MetaInfo.Positive)
}

func TestSubmitReport(t *testing.T) {
	var got Report
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.SubmitReport(context.Background(), Report{Description: "spam", ContentType: 8, ObjectPK: "5"})
	require.NoError(t, err)
	assert.Equal(t, Report{Description: "spam", ContentType: 8, ObjectPK: "5"}, got)
}
