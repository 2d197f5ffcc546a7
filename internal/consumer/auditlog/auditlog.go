// Package auditlog writes a structured log line for every posted comment.
package auditlog

import (
	"context"
	"strings"

	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/pkg/utils"
	"go.uber.org/zap"
)

// excerptLength is the number of runes of the comment body kept in the log line.
const excerptLength = 80

// Consumer records comment activity in the application log.
type Consumer struct {
	logger *zap.Logger
}

// New creates the audit log consumer.
func New(logger *zap.Logger) *Consumer {
	return &Consumer{logger: logger.Named("audit")}
}

// RegisterConsumers implements events.Consumer. The audit log is always on.
func (c *Consumer) RegisterConsumers() []events.Registration {
	return []events.Registration{
		{Type: events.EventCommentPosted, Name: "auditlog.comment_posted", Handler: c.onCommentPosted},
	}
}

func (c *Consumer) onCommentPosted(_ context.Context, event events.Event) error {
	comment := event.Comment
	if comment == nil {
		return events.ErrMissingComment
	}

	author := ""
	if comment.User != nil {
		author = comment.User.Label()
	}

	c.logger.Info("Comment posted",
		zap.String("event", event.Type.String()),
		zap.Int64("commentID", comment.ID),
		zap.String("slug", comment.Slug),
		zap.String("author", author),
		zap.String("excerpt", Excerpt(comment.Body)))

	return nil
}

// Excerpt returns the start of body on a single line.
func Excerpt(body string) string {
	flat := strings.ReplaceAll(utils.CompressWhitespacePreserveNewlines(body), "\n", " ")

	runes := []rune(flat)
	if len(runes) <= excerptLength {
		return flat
	}

	return string(runes[:excerptLength]) + "..."
}
