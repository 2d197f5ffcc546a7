package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/bytedance/sonic"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// WebPushTTL is the time in seconds a gateway keeps an undelivered message.
	WebPushTTL = 60 * 60 * 12
	// maxConcurrentPushes limits parallel requests to push gateways.
	maxConcurrentPushes = 8
)

// ErrPushRejected is returned when a push gateway refuses a message.
var ErrPushRejected = errors.New("push gateway rejected message")

// SubscriptionStore persists browser push subscriptions.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, sub *types.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
	GetSubscriptions(ctx context.Context) ([]*types.Subscription, error)
}

// webPushPayload is the JSON document the service worker receives.
type webPushPayload struct {
	ClickTarget string `json:"clickTarget"`
	Message     string `json:"message"`
	Title       string `json:"title"`
}

// WebPushNotifier sends reminders to every subscribed browser.
type WebPushNotifier struct {
	store      SubscriptionStore
	client     webpush.HTTPClient
	publicKey  string
	privateKey string
	subscriber string
	gone       map[string]struct{}
	mu         sync.Mutex
	logger     *zap.Logger
}

// NewWebPushNotifier creates a notifier signing requests with the configured VAPID keys.
// The subscriber is the contact URL or address sent to the gateways.
func NewWebPushNotifier(
	store SubscriptionStore, client webpush.HTTPClient, cfg *config.WebPush, subscriber string, logger *zap.Logger,
) *WebPushNotifier {
	return &WebPushNotifier{
		store:      store,
		client:     client,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		subscriber: subscriber,
		gone:       make(map[string]struct{}),
		logger:     logger.Named("webpush"),
	}
}

// Name implements Notifier.
func (n *WebPushNotifier) Name() string {
	return "webpush"
}

// Subscribe validates and stores a subscription.
func (n *WebPushNotifier) Subscribe(ctx context.Context, sub *types.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	if err := n.store.Subscribe(ctx, sub); err != nil {
		return err
	}

	n.mu.Lock()
	delete(n.gone, sub.Endpoint)
	n.mu.Unlock()

	n.logger.Info("Push subscription added", zap.String("endpoint", sub.Endpoint))

	return nil
}

// Unsubscribe removes the subscription of endpoint.
func (n *WebPushNotifier) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return types.ErrInvalidSubscription
	}

	if err := n.store.Unsubscribe(ctx, endpoint); err != nil {
		return err
	}

	n.logger.Info("Push subscription removed", zap.String("endpoint", endpoint))

	return nil
}

// Notify implements Notifier. Every subscription is contacted, the first failure is returned.
func (n *WebPushNotifier) Notify(ctx context.Context, msg Message) error {
	subs, err := n.store.GetSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	payload, err := sonic.Marshal(webPushPayload{
		ClickTarget: msg.URL,
		Message:     msg.Body,
		Title:       msg.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	p := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(maxConcurrentPushes)
	for _, sub := range subs {
		if n.isGone(sub.Endpoint) {
			continue
		}

		p.Go(func() error {
			return n.send(ctx, payload, sub)
		})
	}

	return p.Wait()
}

func (n *WebPushNotifier) send(ctx context.Context, payload []byte, sub *types.Subscription) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      n.client,
		Subscriber:      n.subscriber,
		VAPIDPublicKey:  n.publicKey,
		VAPIDPrivateKey: n.privateKey,
		TTL:             WebPushTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to send push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		n.handleGone(ctx, sub.Endpoint, resp.StatusCode)
		return nil
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s answered %d", ErrPushRejected, sub.Endpoint, resp.StatusCode)
	}

	n.logger.Debug("Push delivered", zap.String("endpoint", sub.Endpoint))

	return nil
}

// handleGone unsubscribes an endpoint the gateway no longer knows. Only the first report acts.
func (n *WebPushNotifier) handleGone(ctx context.Context, endpoint string, status int) {
	n.mu.Lock()
	if _, seen := n.gone[endpoint]; seen {
		n.mu.Unlock()
		return
	}
	n.gone[endpoint] = struct{}{}
	n.mu.Unlock()

	n.logger.Info("Push endpoint is gone, unsubscribing",
		zap.String("endpoint", endpoint),
		zap.Int("status", status))

	if err := n.store.Unsubscribe(ctx, endpoint); err != nil {
		n.logger.Error("Failed to unsubscribe gone endpoint",
			zap.String("endpoint", endpoint),
			zap.Error(err))
	}
}

func (n *WebPushNotifier) isGone(endpoint string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, ok := n.gone[endpoint]

	return ok
}
