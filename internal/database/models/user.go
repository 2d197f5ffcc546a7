package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/dbretry"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles database operations for commenters.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a UserModel.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// GetUserByID retrieves a user by ID.
func (r *UserModel) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		user := new(types.User)

		err := r.db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}

			return nil, fmt.Errorf("failed to get user: %w (id=%d)", err, id)
		}

		return user, nil
	})
}

// SaveUser inserts a user or refreshes the profile of the existing user with
// the same provider identity. The status of an existing user is kept.
func (r *UserModel) SaveUser(ctx context.Context, user *types.User) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(user).
			On("CONFLICT (provider, provider_id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("display_name = EXCLUDED.display_name").
			Set("url = EXCLUDED.url").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save user: %w (provider=%s)", err, user.Provider)
		}

		return nil
	})
}

// UpdateStatus sets the trust classification of a user.
func (r *UserModel) UpdateStatus(ctx context.Context, id int64, status enum.UserStatus) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		user := &types.User{ID: id, Status: status}

		res, err := r.db.NewUpdate().
			Model(user).
			Column("status").
			WherePK().
			Returning("*").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update user status: %w (id=%d)", err, id)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return nil, types.ErrUserNotFound
		}

		r.logger.Debug("Updated user status",
			zap.Int64("id", id),
			zap.String("status", status.String()))

		return user, nil
	})
}
