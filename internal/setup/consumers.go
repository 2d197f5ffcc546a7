package setup

import (
	"github.com/robalyx/my2cents/internal/consumer/auditlog"
	"github.com/robalyx/my2cents/internal/consumer/mail"
	"github.com/robalyx/my2cents/internal/consumer/push"
	"github.com/robalyx/my2cents/internal/consumer/slack"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/pkg/utils"
	"go.uber.org/zap"
)

// registerConsumers builds every notification consumer from the configuration
// and registers their handlers with the bus in a fixed order.
func (s *App) registerConsumers() {
	cfg := s.Config
	pageURL := cfg.Server.PageURL

	// Push notifiers share the moderation queue
	var notifiers []push.Notifier

	if cfg.Notification.Pushover.Enabled() {
		notifiers = append(notifiers, push.NewPushoverNotifier(
			push.NewPushoverClient(cfg.Notification.Pushover.AppToken),
			cfg.Notification.Pushover.UserKey,
			s.Logger,
		))
	}

	if cfg.Notification.WebPush.Enabled() {
		s.WebPush = push.NewWebPushNotifier(
			s.DB.Model().Subscription(),
			utils.NewHTTPClient(utils.GetWebhookHTTPOptions()),
			&cfg.Notification.WebPush,
			cfg.Server.My2CentsURL(),
			s.Logger,
		)
		notifiers = append(notifiers, s.WebPush)
	}

	s.Push = push.New(
		notifiers,
		s.DB.Service().Setting(),
		s.DB.Model().Comment(),
		pageURL,
		cfg.Notification.ReminderInterval(),
		s.Logger,
	)

	// A broken mail transport only disables mail
	sender, err := mail.NewSender(&cfg.Mail)
	if err != nil {
		s.Logger.Error("Failed to create mail sender, mail notifications are disabled", zap.Error(err))
		sender = nil
	}

	s.consumers = []events.Consumer{
		s.Push,
		mail.New(&cfg.Mail, sender, pageURL, s.Background, s.Logger),
		slack.New(&cfg.Notification.Slack, utils.NewHTTPClient(utils.GetWebhookHTTPOptions()), pageURL, s.Background, s.Logger),
		auditlog.New(s.Logger),
	}

	total := 0
	for _, consumer := range s.consumers {
		total += s.Bus.RegisterConsumer(consumer)
	}

	s.Logger.Info("Registered event handlers",
		zap.Int("consumers", len(s.consumers)),
		zap.Int("handlers", total))
}
