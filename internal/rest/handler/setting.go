package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/robalyx/my2cents/internal/database/types"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// SettingService reads and writes channel settings.
type SettingService interface {
	SettingReader
	Set(ctx context.Context, key string, setting *types.ChannelSetting) error
}

// SettingHandler handles channel setting endpoints.
type SettingHandler struct {
	settings SettingService
	logger   *zap.Logger
}

// NewSettingHandler creates a new setting handler.
func NewSettingHandler(settings SettingService, logger *zap.Logger) *SettingHandler {
	return &SettingHandler{
		settings: settings,
		logger:   logger.Named("setting_handler"),
	}
}

// Get returns a channel setting.
func (h *SettingHandler) Get(w http.ResponseWriter, req bunrouter.Request) error {
	key := req.Param("key")
	if !slices.Contains(types.DefaultSettingKeys, key) {
		return writeError(w, http.StatusNotFound, "unknown setting")
	}

	setting, err := h.settings.Get(req.Context(), key)
	if err != nil {
		if errors.Is(err, types.ErrSettingNotFound) {
			return writeError(w, http.StatusNotFound, "unknown setting")
		}

		h.logger.Error("Failed to read setting", zap.String("key", key), zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	return bunrouter.JSON(w, restTypes.Setting{Active: setting.Active})
}

// Put replaces a channel setting.
func (h *SettingHandler) Put(w http.ResponseWriter, req bunrouter.Request) error {
	key := req.Param("key")
	if !slices.Contains(types.DefaultSettingKeys, key) {
		return writeError(w, http.StatusNotFound, "unknown setting")
	}

	var body restTypes.Setting
	if err := decodeJSON(w, req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	if err := h.settings.Set(req.Context(), key, &types.ChannelSetting{Active: body.Active}); err != nil {
		h.logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	return bunrouter.JSON(w, body)
}
