package push

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregdel/pushover"
	"github.com/robalyx/my2cents/pkg/utils"
	"go.uber.org/zap"
)

// PushoverSender sends a message to a Pushover recipient.
type PushoverSender interface {
	SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error)
}

// PushoverNotifier sends reminders to one Pushover user.
type PushoverNotifier struct {
	sender    PushoverSender
	recipient *pushover.Recipient
	logger    *zap.Logger
}

// NewPushoverNotifier creates a notifier for the user identified by userKey.
func NewPushoverNotifier(sender PushoverSender, userKey string, logger *zap.Logger) *PushoverNotifier {
	return &PushoverNotifier{
		sender:    sender,
		recipient: pushover.NewRecipient(userKey),
		logger:    logger.Named("pushover"),
	}
}

// NewPushoverClient creates the Pushover API client for an application token.
func NewPushoverClient(appToken string) *pushover.Pushover {
	return pushover.New(appToken)
}

// Name implements Notifier.
func (n *PushoverNotifier) Name() string {
	return "pushover"
}

// Notify implements Notifier.
func (n *PushoverNotifier) Notify(ctx context.Context, msg Message) error {
	message := pushover.NewMessageWithTitle(msg.Body, msg.Title)
	message.URL = msg.URL
	message.URLTitle = msg.Slug

	resp, err := utils.WithRetry(ctx, func() (*pushover.Response, error) {
		resp, err := n.sender.SendMessage(message, n.recipient)
		if err != nil && !isTransientPushoverError(err) {
			return nil, backoff.Permanent(err)
		}

		return resp, err
	}, utils.GetNotificationRetryOptions())
	if err != nil {
		return fmt.Errorf("failed to send pushover message: %w", err)
	}

	n.logger.Debug("Pushover message sent",
		zap.String("slug", msg.Slug),
		zap.String("request", resp.ID))

	return nil
}

// isTransientPushoverError reports whether a send may succeed when repeated.
// Server side failures and network errors qualify; rejected tokens and invalid messages do not.
func isTransientPushoverError(err error) bool {
	if errors.Is(err, pushover.ErrHTTPPushover) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
