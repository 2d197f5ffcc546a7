package database

import (
	"github.com/robalyx/my2cents/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	comment      *models.CommentModel
	user         *models.UserModel
	setting      *models.SettingModel
	subscription *models.SubscriptionModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		comment:      models.NewComment(db, logger),
		user:         models.NewUser(db, logger),
		setting:      models.NewSetting(db, logger),
		subscription: models.NewSubscription(db, logger),
	}
}

// Comment returns the comment model repository.
func (r *Repository) Comment() *models.CommentModel {
	return r.comment
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Setting returns the setting model repository.
func (r *Repository) Setting() *models.SettingModel {
	return r.setting
}

// Subscription returns the push subscription model repository.
func (r *Repository) Subscription() *models.SubscriptionModel {
	return r.subscription
}
