package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"go.uber.org/zap"
)

// ErrCannotModerateSelf is returned when an administrator targets their own account.
var ErrCannotModerateSelf = errors.New("administrators cannot change their own status")

// UserStore persists commenters.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*types.User, error)
	SaveUser(ctx context.Context, user *types.User) error
	UpdateStatus(ctx context.Context, id int64, status enum.UserStatus) (*types.User, error)
}

// UserService handles trust classification of commenters.
type UserService struct {
	store  UserStore
	logger *zap.Logger
}

// NewUser creates a new user service.
func NewUser(store UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger.Named("user_service"),
	}
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*types.User, error) {
	if id <= 0 {
		return nil, types.ErrInvalidUserID
	}

	return s.store.GetUserByID(ctx, id)
}

// SaveUser creates or refreshes a user identified by provider and provider ID.
func (s *UserService) SaveUser(ctx context.Context, user *types.User) error {
	if user.Provider == "" || user.ProviderID == "" || user.Name == "" {
		return fmt.Errorf("%w: provider, provider id and name are required", types.ErrInvalidUserID)
	}

	return s.store.SaveUser(ctx, user)
}

// Block hides every comment of the user from other visitors.
func (s *UserService) Block(ctx context.Context, moderatorID, userID int64) (*types.User, error) {
	return s.setStatus(ctx, moderatorID, userID, enum.UserStatusBlocked)
}

// Trust lets comments of the user skip moderation.
func (s *UserService) Trust(ctx context.Context, moderatorID, userID int64) (*types.User, error) {
	return s.setStatus(ctx, moderatorID, userID, enum.UserStatusTrusted)
}

func (s *UserService) setStatus(
	ctx context.Context, moderatorID, userID int64, status enum.UserStatus,
) (*types.User, error) {
	if userID <= 0 {
		return nil, types.ErrInvalidUserID
	}

	if moderatorID == userID {
		return nil, ErrCannotModerateSelf
	}

	user, err := s.store.UpdateStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Changed user status",
		zap.Int64("moderatorID", moderatorID),
		zap.Int64("userID", userID),
		zap.String("status", status.String()))

	return user, nil
}
