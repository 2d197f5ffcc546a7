package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/robalyx/my2cents/internal/visibility"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var (
	// ErrInvalidToken is returned for a bearer token that fails verification.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrInvalidSubject is returned when the token subject is not a user id.
	ErrInvalidSubject = errors.New("token subject is not a user id")
)

type userCtxKey struct{}

// UserLoader resolves the user a token was issued for.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*types.User, error)
}

// FromContext returns the authenticated user, or nil for anonymous requests.
func FromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(userCtxKey{}).(*types.User)
	return user
}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// ViewerFromContext returns the visibility viewer of the request.
func ViewerFromContext(ctx context.Context) visibility.Viewer {
	user := FromContext(ctx)
	if user == nil {
		return visibility.Anonymous
	}

	return visibility.Viewer{
		ID:            user.ID,
		Administrator: user.Status == enum.UserStatusAdministrator,
	}
}

// Middleware resolves the viewer from an HS256 bearer token whose subject is the user id.
// Requests without a token continue anonymously.
type Middleware struct {
	secret []byte
	issuer string
	users  UserLoader
	logger *zap.Logger
}

// New creates a new auth middleware.
func New(cfg *config.Auth, users UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		users:  users,
		logger: logger.Named("auth_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		header := req.Header.Get("Authorization")
		if header == "" {
			return next(w, req)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return nil
		}

		userID, err := m.Verify(token)
		if err != nil {
			m.logger.Debug("Rejected bearer token", zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)

			return nil
		}

		user, err := m.users.GetUser(req.Context(), userID)
		if err != nil {
			if errors.Is(err, types.ErrUserNotFound) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return nil
			}

			m.logger.Error("Failed to load token user", zap.Int64("userID", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)

			return nil
		}

		return next(w, req.WithContext(WithUser(req.Context(), user)))
	}
}

// Verify checks the token signature and claims and returns the user id.
func (m *Middleware) Verify(token string) (int64, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := new(jwt.RegisteredClaims)

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSubject, claims.Subject)
	}

	return userID, nil
}

// IssueToken signs a token for userID that expires after ttl.
func IssueToken(cfg *config.Auth, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if FromContext(req.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return nil
		}

		return next(w, req)
	}
}

// RequireAdministrator rejects anonymous requests with 401 and other users with 403.
func RequireAdministrator(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		user := FromContext(req.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return nil
		}

		if user.Status != enum.UserStatusAdministrator {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return nil
		}

		return next(w, req)
	}
}
