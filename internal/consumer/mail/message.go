package mail

import (
	"strconv"
	"strings"

	"github.com/robalyx/my2cents/internal/database/types"
)

// AdminName is the display name of the notification recipient.
const AdminName = "My2Cents Admin"

// Notification is a plain-text mail about a new comment.
type Notification struct {
	FromName string
	From     string
	ToName   string
	To       string
	Subject  string
	Body     string
}

// Compose builds the notification for comment. The sender name is the comment author.
func Compose(comment *types.Comment, from, to, postURL string) Notification {
	author := authorLabel(comment)

	lines := []string{
		"New comment on your post " + postURL,
		"",
		"Author: " + author,
		"",
		comment.Body,
		"",
		"You can see all comments on this post here:",
		postURL + "#comments",
		"",
		"Permalink: " + postURL + "#comment-" + strconv.FormatInt(comment.ID, 10),
	}

	return Notification{
		FromName: author,
		From:     from,
		ToName:   AdminName,
		To:       to,
		Subject:  "New comment on your post " + comment.Slug,
		Body:     strings.Join(lines, "\r\n"),
	}
}

func authorLabel(comment *types.Comment) string {
	if comment.User == nil {
		return "unknown"
	}

	return comment.User.Label()
}
