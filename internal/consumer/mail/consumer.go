package mail

import (
	"context"
	"fmt"

	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/setup/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// PageURLFunc returns the public URL of a thread.
type PageURLFunc func(slug string) string

// Consumer mails the administrator about every new comment.
type Consumer struct {
	cfg        *config.Mail
	sender     Sender
	pageURL    PageURLFunc
	background *events.Background
	logger     *zap.Logger
}

// New creates the mail consumer. A nil sender disables it.
func New(
	cfg *config.Mail, sender Sender, pageURL PageURLFunc, background *events.Background, logger *zap.Logger,
) *Consumer {
	return &Consumer{
		cfg:        cfg,
		sender:     sender,
		pageURL:    pageURL,
		background: background,
		logger:     logger.Named("mail_consumer"),
	}
}

// RegisterConsumers implements events.Consumer.
func (c *Consumer) RegisterConsumers() []events.Registration {
	if c.cfg.Protocol == config.MailProtocolNoMail || c.sender == nil {
		c.logger.Info("Mail notifications are disabled")
		return nil
	}

	return []events.Registration{
		{Type: events.EventCommentPosted, Name: "mail.comment_posted", Handler: c.onCommentPosted},
	}
}

func (c *Consumer) onCommentPosted(ctx context.Context, event events.Event) error {
	comment := event.Comment
	if comment == nil {
		return events.ErrMissingComment
	}

	notification := Compose(comment, c.cfg.From, c.cfg.To, c.pageURL(comment.Slug))

	msg, err := Build(notification)
	if err != nil {
		return err
	}

	c.background.Go(ctx, "mail.send", func(ctx context.Context) error {
		if err := c.sender.Send(ctx, msg); err != nil {
			return err
		}

		c.logger.Info("Sent comment notification",
			zap.Int64("commentID", comment.ID),
			zap.String("slug", comment.Slug))

		return nil
	})

	return nil
}

// Build converts a notification into a go-mail message.
func Build(n Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.FromFormat(n.FromName, n.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if err := msg.AddToFormat(n.ToName, n.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(n.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, n.Body)

	return msg, nil
}
