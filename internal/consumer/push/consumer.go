package push

import (
	"context"
	"time"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SeedLimit is the number of persisted comments loaded into the queue at startup.
const SeedLimit = 20

// SettingReader reports whether a notification channel is switched on.
type SettingReader interface {
	IsActive(ctx context.Context, key string) (bool, error)
}

// SeedSource loads the comments awaiting moderation at startup.
type SeedSource interface {
	GetAwaitingModeration(ctx context.Context, limit int) ([]*types.Comment, error)
}

// PageURLFunc returns the public URL of a thread.
type PageURLFunc func(slug string) string

// Consumer keeps the moderation queue and sends periodic reminders for it.
type Consumer struct {
	notifiers []Notifier
	settings  SettingReader
	seed      SeedSource
	pageURL   PageURLFunc
	interval  time.Duration
	queue     *queue
	scheduler *cron.Cron
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// New creates the push consumer. Without notifiers it registers no handlers.
// A non-positive interval disables reminders.
func New(
	notifiers []Notifier, settings SettingReader, seed SeedSource,
	pageURL PageURLFunc, interval time.Duration, logger *zap.Logger,
) *Consumer {
	return &Consumer{
		notifiers: notifiers,
		settings:  settings,
		seed:      seed,
		pageURL:   pageURL,
		interval:  interval,
		queue:     newQueue(),
		logger:    logger.Named("push_consumer"),
	}
}

// Enabled reports whether at least one notifier is configured.
func (c *Consumer) Enabled() bool {
	return len(c.notifiers) > 0
}

// RegisterConsumers implements events.Consumer.
func (c *Consumer) RegisterConsumers() []events.Registration {
	if !c.Enabled() {
		c.logger.Info("No push notifier configured, moderation reminders are disabled")
		return nil
	}

	return []events.Registration{
		{Type: events.EventCommentPosted, Name: "push.enqueue", Handler: c.onCommentPosted},
		{Type: events.EventCommentApproved, Name: "push.dequeue", Handler: c.onCommentModerated},
		{Type: events.EventCommentRejected, Name: "push.dequeue", Handler: c.onCommentModerated},
	}
}

// Start runs the queue actor, loads the startup seed and then schedules reminders.
// The seed is in the queue before the first reminder round can run.
func (c *Consumer) Start(ctx context.Context) {
	if !c.Enabled() {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	go c.queue.run(ctx)

	c.loadSeed(ctx)

	if c.interval <= 0 {
		c.logger.Warn("Reminder interval is not positive, no reminders will be pushed")
		return
	}

	c.scheduler = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{c.logger})))
	c.scheduler.Schedule(cron.Every(c.interval), cron.FuncJob(func() {
		c.Drain(ctx)
	}))
	c.scheduler.Start()

	c.logger.Info("Scheduled moderation reminders", zap.Duration("interval", c.interval))
}

// Stop halts the scheduler, waits for a running round and stops the queue actor.
func (c *Consumer) Stop() {
	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}

	if c.cancel != nil {
		c.cancel()
		<-c.queue.done
	}
}

// Pending returns the queued comments in insertion order.
func (c *Consumer) Pending(ctx context.Context) ([]*types.Comment, error) {
	return ask(ctx, c.queue, (*entries).snapshot)
}

// Drain runs one reminder round and returns the number of messages built.
// The queue is left untouched, comments only leave it through moderation.
func (c *Consumer) Drain(ctx context.Context) int {
	pending, err := c.Pending(ctx)
	if err != nil {
		c.logger.Error("Failed to read moderation queue", zap.Error(err))
		return 0
	}

	if len(pending) == 0 {
		c.logger.Debug("Nothing queued for push")
		return 0
	}

	active, err := c.settings.IsActive(ctx, types.SettingKeyNotification)
	if err != nil {
		c.logger.Error("Failed to read notification setting", zap.Error(err))
		return 0
	}

	if !active {
		c.logger.Debug("Notifications are deactivated, skipping round", zap.Int("queued", len(pending)))
		return 0
	}

	messages := c.summarize(pending)
	for _, msg := range messages {
		for _, notifier := range c.notifiers {
			if err := notifier.Notify(ctx, msg); err != nil {
				c.logger.Error("Failed to deliver reminder",
					zap.String("notifier", notifier.Name()),
					zap.String("slug", msg.Slug),
					zap.Error(err))
			}
		}
	}

	c.logger.Info("Pushed moderation reminders",
		zap.Int("queued", len(pending)),
		zap.Int("threads", len(messages)))

	return len(messages)
}

// summarize groups queued comments by slug in order of first appearance.
func (c *Consumer) summarize(pending []*types.Comment) []Message {
	var slugs []string

	counts := make(map[string]int)
	for _, comment := range pending {
		if _, seen := counts[comment.Slug]; !seen {
			slugs = append(slugs, comment.Slug)
		}

		counts[comment.Slug]++
	}

	messages := make([]Message, 0, len(slugs))
	for _, slug := range slugs {
		messages = append(messages, NewSummary(slug, counts[slug], c.pageURL(slug)))
	}

	return messages
}

func (c *Consumer) onCommentPosted(ctx context.Context, event events.Event) error {
	comment := event.Comment
	if comment == nil {
		return events.ErrMissingComment
	}

	if !comment.AwaitsModeration() {
		c.logger.Debug("Comment does not await moderation", zap.Int64("commentID", comment.ID))
		return nil
	}

	depth, err := ask(ctx, c.queue, func(e *entries) int {
		e.add(comment)
		return len(e.order)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("Queued comment for moderation",
		zap.Int64("commentID", comment.ID),
		zap.Int("depth", depth))

	return nil
}

func (c *Consumer) onCommentModerated(ctx context.Context, event events.Event) error {
	comment := event.Comment
	if comment == nil {
		return events.ErrMissingComment
	}

	depth, err := ask(ctx, c.queue, func(e *entries) int {
		e.remove(comment.ID)
		return len(e.order)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("Removed comment from moderation queue",
		zap.Int64("commentID", comment.ID),
		zap.Int("depth", depth))

	return nil
}

// loadSeed fills the queue with persisted comments awaiting moderation.
// A failed load leaves the queue empty.
func (c *Consumer) loadSeed(ctx context.Context) {
	var comments []*types.Comment

	if c.seed != nil {
		var err error

		comments, err = c.seed.GetAwaitingModeration(ctx, SeedLimit)
		if err != nil {
			c.logger.Error("Failed to load comments awaiting moderation", zap.Error(err))
		}
	}

	depth, err := ask(ctx, c.queue, func(e *entries) int {
		for _, comment := range comments {
			e.add(comment)
		}

		return len(e.order)
	})
	if err != nil {
		c.logger.Error("Failed to seed moderation queue", zap.Error(err))
		return
	}

	c.logger.Info("Seeded moderation queue", zap.Int("depth", depth))
}

// cronLogger adapts zap to the cron logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
