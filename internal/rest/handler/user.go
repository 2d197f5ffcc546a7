package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/robalyx/my2cents/internal/database/service"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/rest/middleware/auth"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserModerator changes the trust classification of users.
type UserModerator interface {
	Block(ctx context.Context, moderatorID, userID int64) (*types.User, error)
	Trust(ctx context.Context, moderatorID, userID int64) (*types.User, error)
}

// UserHandler handles user moderation endpoints.
type UserHandler struct {
	users  UserModerator
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users UserModerator, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.Named("user_handler"),
	}
}

// Block hides every comment of a user.
func (h *UserHandler) Block(w http.ResponseWriter, req bunrouter.Request) error {
	return h.classify(w, req, h.users.Block)
}

// Trust lets comments of a user skip moderation.
func (h *UserHandler) Trust(w http.ResponseWriter, req bunrouter.Request) error {
	return h.classify(w, req, h.users.Trust)
}

func (h *UserHandler) classify(
	w http.ResponseWriter, req bunrouter.Request,
	action func(ctx context.Context, moderatorID, userID int64) (*types.User, error),
) error {
	userID, err := parseID(req, "id")
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid user id")
	}

	moderator := auth.FromContext(req.Context())

	user, err := action(req.Context(), moderator.ID, userID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUserNotFound):
			return writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrCannotModerateSelf), errors.Is(err, types.ErrInvalidUserID):
			return writeError(w, http.StatusBadRequest, err.Error())
		}

		h.logger.Error("Failed to change user status", zap.Int64("userID", userID), zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	return bunrouter.JSON(w, restTypes.UserStatusResponse{
		Status: restTypes.StatusOK,
		ID:     user.ID,
		State:  user.Status.String(),
	})
}
