package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/uptrace/bunrouter"
)

// maxBodyBytes caps request bodies; comments are far smaller.
const maxBodyBytes = 64 << 10

var (
	errInvalidID   = errors.New("invalid id")
	errInvalidBody = errors.New("invalid request body")
)

// writeError sends a JSON error with status.
func writeError(w http.ResponseWriter, status int, message string) error {
	w.WriteHeader(status)
	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, req bunrouter.Request, v any) error {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := sonic.ConfigDefault.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}

	return nil
}

// parseID reads a positive numeric path parameter.
func parseID(req bunrouter.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(req.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}

	return id, nil
}
