package commentview

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/fragmede/threadview/internal/render"
	"github.com/fragmede/threadview/internal/thread"
)

// TruncateLength is the body length above which a comment is shortened,
// counted in UTF-16 code units like the web frontend does.
const TruncateLength = 400

const (
	BannerText        = "Entry successfully created"
	ModeratorLabel    = "Moderator"
	ReadMoreLabel     = "Read more..."
	ReadLessLabel     = "Read less"
	ShareLabel        = "Share"
	ReportLabel       = "Report"
	ShareTitle        = "Share link"
	ReportTitle       = "You want to report this content? Your message will be sent to the moderation. The moderation will look at the reported content. The content will be deleted if it does not meet our discussion rules (netiquette)."
	DeleteTitle       = "Do you really want to delete this comment?"
	DeleteLabel       = "Delete"
	AbortLabel        = "Abort"
	ReplyPlaceholder  = "Your reply here"
	ReplyLoginNotice  = "Please login to comment"
	ReplyMemberNotice = "Only invited users can actively participate."
	ReplyPhaseNotice  = "The currently active phase doesn't allow to comment."
)

// ReplyLabel is the text of the reply toggle.
func ReplyLabel(expanded bool, count int) string {
	switch {
	case expanded:
		return "hide replies"
	case count == 1:
		return "1 reply"
	case count > 1:
		return fmt.Sprintf("%d replies", count)
	default:
		return "Reply"
	}
}

// DateLabel is the date line under the author name. Comments that were
// never modified show their creation date; otherwise the modification
// date is explained by the status.
func DateLabel(c *thread.Comment, layout string) string {
	if c.ModifiedAt == nil {
		return render.FormatDate(c.CreatedAt, layout)
	}
	date := render.FormatDate(*c.ModifiedAt, layout)
	switch c.Status {
	case thread.StatusRemovedByAuthor:
		return "Deleted by creator on " + date
	case thread.StatusRemovedByModerator:
		return "Deleted by moderator on " + date
	case thread.StatusBlockedByModerator:
		return "Blocked by moderator on " + date
	default:
		return "Latest edit on " + date
	}
}

// ShareURL links to comment id on pageURL. Any query or fragment of the
// page is dropped.
func ShareURL(pageURL string, id int) string {
	base, _, _ := strings.Cut(pageURL, "?")
	base, _, _ = strings.Cut(base, "#")
	return base + "?comment=" + strconv.Itoa(id)
}

// AnchorName is the in-page anchor of a comment.
func AnchorName(id int) string {
	return "comment_" + strconv.Itoa(id)
}

// Truncate shortens body to TruncateLength code units plus an ellipsis
// when shorten is set. Long reports whether the body exceeds the limit,
// which is when a read more/less toggle applies. A surrogate pair that
// straddles the limit is dropped whole.
func Truncate(body string, shorten bool) (out string, long bool) {
	units, cut := 0, len(body)
	for i, r := range body {
		n := utf16.RuneLen(r)
		if units+n > TruncateLength && cut == len(body) {
			cut = i
		}
		units += n
	}
	if units <= TruncateLength {
		return body, false
	}
	if !shorten {
		return body, true
	}
	return body[:cut] + "...", true
}
