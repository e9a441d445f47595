package messages

import (
	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/thread"
)

// View transition messages.
type (
	OpenLoginMsg struct{}
	OpenURLMsg   struct{ URL string }
)

// Data messages.
type (
	ThreadLoadedMsg struct {
		Widget    *api.Widget
		Thread    *api.Thread
		FromCache bool
		Err       error
	}

	LoginResultMsg struct {
		Username string
		Err      error
	}

	// SessionRestoredMsg ends the session restore at startup. Username is
	// empty when no saved session was accepted.
	SessionRestoredMsg struct {
		Username string
	}

	// NewCommentsMsg is sent by the background poller when the server has
	// comments the open thread does not show yet.
	NewCommentsMsg struct {
		Count int
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)

// Node lifetime messages. Token identifies the comment node that issued the
// request; results for a destroyed node are dropped.
type (
	BannerExpiredMsg struct {
		Token string
	}

	EditResultMsg struct {
		Token   string
		Pos     thread.Position
		Comment *thread.Comment
		Err     error
	}

	ReplyResultMsg struct {
		Token string
		// Parent is the position of the comment replied to; ID 0 means a
		// new top-level comment.
		Parent  thread.Position
		Comment *thread.Comment
		Err     error
	}

	DeleteResultMsg struct {
		Token string
		Pos   thread.Position
		// Comment is the tombstone returned by the server, if any.
		Comment *thread.Comment
		Err     error
	}

	RatedMsg struct {
		Token   string
		Pos     thread.Position
		Ratings thread.Ratings
		Err     error
	}

	ReportedMsg struct {
		Pos thread.Position
		Err error
	}
)
