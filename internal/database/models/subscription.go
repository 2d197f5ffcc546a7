package models

import (
	"context"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/dbretry"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SubscriptionModel handles database operations for browser push subscriptions.
type SubscriptionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSubscription creates a SubscriptionModel.
func NewSubscription(db *bun.DB, logger *zap.Logger) *SubscriptionModel {
	return &SubscriptionModel{
		db:     db,
		logger: logger.Named("db_subscription"),
	}
}

// Subscribe stores a subscription, replacing the keys of a known endpoint.
func (r *SubscriptionModel) Subscribe(ctx context.Context, sub *types.Subscription) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(sub).
			On("CONFLICT (endpoint) DO UPDATE").
			Set("p256dh = EXCLUDED.p256dh").
			Set("auth = EXCLUDED.auth").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}

		return nil
	})
}

// Unsubscribe removes every subscription registered for endpoint.
func (r *SubscriptionModel) Unsubscribe(ctx context.Context, endpoint string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := r.db.NewDelete().
			Model((*types.Subscription)(nil)).
			Where("endpoint = ?", endpoint).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}

		n, _ := res.RowsAffected()
		r.logger.Debug("Removed subscription",
			zap.String("endpoint", endpoint),
			zap.Int64("rows", n))

		return nil
	})
}

// GetSubscriptions retrieves every stored subscription.
func (r *SubscriptionModel) GetSubscriptions(ctx context.Context) ([]*types.Subscription, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Subscription, error) {
		var subs []*types.Subscription

		err := r.db.NewSelect().
			Model(&subs).
			Order("created_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get subscriptions: %w", err)
		}

		return subs, nil
	})
}
