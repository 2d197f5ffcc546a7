package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/robalyx/my2cents/internal/database/types"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// PushSubscriptions manages browser push registrations.
type PushSubscriptions interface {
	Subscribe(ctx context.Context, sub *types.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// PushHandler handles browser push registration endpoints.
type PushHandler struct {
	subscriptions PushSubscriptions
	logger        *zap.Logger
}

// NewPushHandler creates a new push handler. A nil subscription manager means web push is off.
func NewPushHandler(subscriptions PushSubscriptions, logger *zap.Logger) *PushHandler {
	return &PushHandler{
		subscriptions: subscriptions,
		logger:        logger.Named("push_handler"),
	}
}

// Subscribe registers a browser for moderation reminders.
func (h *PushHandler) Subscribe(w http.ResponseWriter, req bunrouter.Request) error {
	if h.subscriptions == nil {
		return writeError(w, http.StatusServiceUnavailable, "web push is not configured")
	}

	var body restTypes.SubscribeRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	err := h.subscriptions.Subscribe(req.Context(), &types.Subscription{
		Endpoint: body.Endpoint,
		P256dh:   body.PublicKey,
		Auth:     body.Auth,
	})
	if err != nil {
		return h.subscriptionError(w, err)
	}

	return bunrouter.JSON(w, restTypes.StatusResponse{Status: restTypes.StatusOK})
}

// Unsubscribe removes a browser registration.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, req bunrouter.Request) error {
	if h.subscriptions == nil {
		return writeError(w, http.StatusServiceUnavailable, "web push is not configured")
	}

	var body restTypes.UnsubscribeRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	if err := h.subscriptions.Unsubscribe(req.Context(), body.Endpoint); err != nil {
		return h.subscriptionError(w, err)
	}

	return bunrouter.JSON(w, restTypes.StatusResponse{Status: restTypes.StatusOK})
}

func (h *PushHandler) subscriptionError(w http.ResponseWriter, err error) error {
	if errors.Is(err, types.ErrInvalidSubscription) {
		return writeError(w, http.StatusBadRequest, err.Error())
	}

	h.logger.Error("Failed to update push subscription", zap.Error(err))

	return writeError(w, http.StatusInternalServerError, "internal server error")
}
