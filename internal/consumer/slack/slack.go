package slack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/robalyx/my2cents/pkg/utils"
	"go.uber.org/zap"
)

// ErrWebhookRejected is returned when Slack answers with a non-success status.
var ErrWebhookRejected = errors.New("slack webhook rejected message")

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PageURLFunc returns the public URL of a thread.
type PageURLFunc func(slug string) string

type payload struct {
	Text string `json:"text"`
}

// Consumer posts new comments to a Slack incoming webhook.
type Consumer struct {
	webhookURL string
	client     Doer
	pageURL    PageURLFunc
	background *events.Background
	logger     *zap.Logger
}

// New creates the Slack consumer.
func New(
	cfg *config.Slack, client Doer, pageURL PageURLFunc, background *events.Background, logger *zap.Logger,
) *Consumer {
	return &Consumer{
		webhookURL: cfg.WebHookURL,
		client:     client,
		pageURL:    pageURL,
		background: background,
		logger:     logger.Named("slack_consumer"),
	}
}

// RegisterConsumers implements events.Consumer.
func (c *Consumer) RegisterConsumers() []events.Registration {
	if !config.IsValidWebHookURL(c.webhookURL) {
		c.logger.Info("Slack webhook is not configured, slack notifications are disabled")
		return nil
	}

	return []events.Registration{
		{Type: events.EventCommentPosted, Name: "slack.comment_posted", Handler: c.onCommentPosted},
	}
}

func (c *Consumer) onCommentPosted(ctx context.Context, event events.Event) error {
	comment := event.Comment
	if comment == nil {
		return events.ErrMissingComment
	}

	text := FormatText(comment, c.pageURL(comment.Slug))

	c.background.Go(ctx, "slack.post", func(ctx context.Context) error {
		return c.post(ctx, text)
	})

	return nil
}

func (c *Consumer) post(ctx context.Context, text string) error {
	body, err := sonic.Marshal(payload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}

	c.logger.Debug("Posted comment to slack")

	return nil
}

// FormatText renders the Slack message for comment with every paragraph quoted.
func FormatText(comment *types.Comment, postURL string) string {
	author := "unknown"
	if comment.User != nil {
		author = comment.User.Label()
	}

	return fmt.Sprintf("A <%s|new comment> was posted by %s under *%s*:\n\n%s",
		postURL, author, comment.Slug, Quote(comment.Body))
}

// Quote formats text as a Slack block quote in italics.
func Quote(text string) string {
	paragraphs := utils.SplitParagraphs(text)

	quoted := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p == "" {
			quoted = append(quoted, ">")
			continue
		}

		quoted = append(quoted, "> _"+p+"_")
	}

	return strings.Join(quoted, "\n>\n")
}
