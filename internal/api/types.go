package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an object key that the server sends either as a JSON number or
// as a string (object_pk is a text column, subjectId is an integer).
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Int returns the numeric value of the id, or 0 when it is not a number.
func (id ID) Int() int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0
	}
	return n
}

// Category is one comment category choice.
type Category struct {
	Key   string
	Label string
}

// Categories is a key to label mapping that keeps the server's key order.
// It is encoded as a JSON object.
type Categories []Category

// UnmarshalJSON decodes a JSON object token by token so the order of keys
// survives. null and [] decode to an empty mapping.
func (c *Categories) UnmarshalJSON(data []byte) error {
	*c = nil
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("[]")) || bytes.Equal(data, []byte(`""`)) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key, got %v", tok)
		}
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("categories: label for %q: %w", key, err)
		}
		*c = append(*c, Category{Key: key, Label: label})
	}
	return nil
}

// MarshalJSON encodes the mapping as an object in slice order.
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(cat.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(cat.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Ratings is the rating summary attached to every comment.
type Ratings struct {
	Positive        int  `json:"positive_ratings"`
	Negative        int  `json:"negative_ratings"`
	CurrentUserVote *int `json:"current_user_rating_value"`
	CurrentUserID   *int `json:"current_user_rating_id"`
}

// Comment is a comment as serialized by the comments API. Replies are
// nested in ChildComments.
type Comment struct {
	ID          int        `json:"id"`
	Comment     string     `json:"comment"`
	ContentType int        `json:"content_type"`
	ObjectPK    ID         `json:"object_pk"`
	Created     time.Time  `json:"created"`
	Modified    *time.Time `json:"modified"`

	IsRemoved  bool `json:"is_removed"`
	IsCensored bool `json:"is_censored"`
	IsBlocked  bool `json:"is_blocked"`
	IsDeleted  bool `json:"is_deleted"`

	IsModerator    bool   `json:"is_moderator"`
	UserName       string `json:"user_name"`
	UserPK         *int   `json:"user_pk"`
	UserProfileURL string `json:"user_profile_url"`
	UserImage      string `json:"user_image"`

	ChildComments []Comment `json:"child_comments"`

	HasChangingPermission bool `json:"has_changing_permission"`
	HasDeletingPermission bool `json:"has_deleting_permission"`
	IsUsersOwnComment     bool `json:"is_users_own_comment"`

	Ratings           Ratings    `json:"ratings"`
	CommentCategories Categories `json:"comment_categories"`
}

// Subject identifies the object a comment list is attached to.
type Subject struct {
	ContentType int
	ObjectID    string
}

func (s Subject) String() string {
	return fmt.Sprintf("%d/%s", s.ContentType, s.ObjectID)
}

// ThreadMeta holds the list-level fields returned next to the comments.
type ThreadMeta struct {
	CommentCount                  int  `json:"comment_count"`
	CommentsContentType           int  `json:"comments_contenttype"`
	HasCommentingPermission       bool `json:"has_commenting_permission"`
	WouldHaveCommentingPermission bool `json:"would_have_commenting_permission"`
	ProjectIsPublic               bool `json:"project_is_public"`
}

// commentPage is one page of the paginated list endpoint.
type commentPage struct {
	ThreadMeta
	Count   int       `json:"count"`
	Next    *string   `json:"next"`
	Results []Comment `json:"results"`
}

// Thread is a fully fetched comment list.
type Thread struct {
	Subject  Subject
	Meta     ThreadMeta
	Comments []Comment
}

// CommentInput is the body of a create or modify request.
type CommentInput struct {
	Comment string `json:"comment"`
	// Categories is a comma separated list of category keys.
	Categories *string `json:"comment_categories,omitempty"`
}

// RatingResult is returned by the rating endpoints.
type RatingResult struct {
	ID       int `json:"id"`
	Value    int `json:"value"`
	MetaInfo struct {
		Positive  int  `json:"positive_ratings_on_same_object"`
		Negative  int  `json:"negative_ratings_on_same_object"`
		UserValue *int `json:"user_rating_on_same_object_value"`
		UserID    *int `json:"user_rating_on_same_object_id"`
	} `json:"meta_info"`
}

// Report is the body of a moderation report.
type Report struct {
	Description string `json:"description"`
	ContentType int    `json:"content_type"`
	ObjectPK    string `json:"object_pk"`
}

// Widget holds the bootstrap attributes the page embeds for the comment
// widget.
type Widget struct {
	SubjectType            int        `json:"subjectType"`
	SubjectID              ID         `json:"subjectId"`
	IsReadOnly             bool       `json:"isReadOnly"`
	CommentCategoryChoices Categories `json:"commentCategoryChoices"`
	AnchoredCommentID      ID         `json:"anchoredCommentId"`
	WithCategories         bool       `json:"withCategories"`
	IsContextMember        bool       `json:"isContextMember"`
}

// Subject returns the commented object.
func (w Widget) Subject() Subject {
	return Subject{ContentType: w.SubjectType, ObjectID: string(w.SubjectID)}
}
