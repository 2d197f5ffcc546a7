package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/robalyx/my2cents/internal/rest/middleware/auth"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/robalyx/my2cents/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var authConfig = &config.Auth{JWTSecret: "0123456789abcdef0123", Issuer: "my2cents"}

type staticUsers map[int64]*types.User

func (s staticUsers) GetUser(_ context.Context, id int64) (*types.User, error) {
	if user, ok := s[id]; ok {
		return user, nil
	}

	return nil, types.ErrUserNotFound
}

var users = staticUsers{
	1: {ID: 1, Name: "visitor", Status: enum.UserStatusInitial},
	2: {ID: 2, Name: "admin", Status: enum.UserStatusAdministrator},
}

func newRouter() *bunrouter.Router {
	mw := auth.New(authConfig, users, zap.NewNop())
	router := bunrouter.New(bunrouter.Use(mw.AsRESTMiddleware))

	viewer := func(w http.ResponseWriter, req bunrouter.Request) error {
		return bunrouter.JSON(w, auth.ViewerFromContext(req.Context()))
	}

	router.GET("/viewer", viewer)
	router.Use(auth.RequireUser).GET("/user", viewer)
	router.Use(auth.RequireAdministrator).GET("/admin", viewer)

	return router
}

func token(t *testing.T, userID int64) string {
	t.Helper()

	signed, err := auth.IssueToken(authConfig, userID, time.Hour)
	require.NoError(t, err)

	return signed
}

func serve(router http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestAccessRules(t *testing.T) {
	t.Parallel()

	router := newRouter()
	visitorToken := token(t, 1)
	adminToken := token(t, 2)

	tests := []struct {
		name   string
		path   string
		bearer string
		want   int
	}{
		{name: "anonymous viewer", path: "/viewer", want: http.StatusOK},
		{name: "anonymous user route", path: "/user", want: http.StatusUnauthorized},
		{name: "anonymous admin route", path: "/admin", want: http.StatusUnauthorized},
		{name: "visitor user route", path: "/user", bearer: visitorToken, want: http.StatusOK},
		{name: "visitor admin route", path: "/admin", bearer: visitorToken, want: http.StatusForbidden},
		{name: "admin route", path: "/admin", bearer: adminToken, want: http.StatusOK},
		{name: "garbage token", path: "/viewer", bearer: "not-a-token", want: http.StatusUnauthorized},
		{name: "unknown user", path: "/viewer", bearer: token(t, 99), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, serve(router, tt.path, tt.bearer).Code)
		})
	}
}

func TestViewerFromToken(t *testing.T) {
	t.Parallel()

	rec := serve(newRouter(), "/viewer", token(t, 2))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ID":2,"Administrator":true}`, rec.Body.String())

	assert.Equal(t, visibility.Anonymous, auth.ViewerFromContext(t.Context()))
}

func TestVerifyRejectsBadClaims(t *testing.T) {
	t.Parallel()

	mw := auth.New(authConfig, users, zap.NewNop())

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)

		return signed
	}

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	secret := []byte(authConfig.JWTSecret)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "expired",
			token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "1", Issuer: "my2cents", ExpiresAt: past}),
			want:  auth.ErrInvalidToken,
		},
		{
			name:  "no expiry",
			token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "1", Issuer: "my2cents"}),
			want:  auth.ErrInvalidToken,
		},
		{
			name:  "wrong issuer",
			token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "1", Issuer: "other", ExpiresAt: future}),
			want:  auth.ErrInvalidToken,
		},
		{
			name:  "wrong secret",
			token: sign(jwt.SigningMethodHS256, []byte("another-secret-value"), jwt.RegisteredClaims{Subject: "1", Issuer: "my2cents", ExpiresAt: future}),
			want:  auth.ErrInvalidToken,
		},
		{
			name:  "other algorithm",
			token: sign(jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{Subject: "1", Issuer: "my2cents", ExpiresAt: future}),
			want:  auth.ErrInvalidToken,
		},
		{
			name:  "non numeric subject",
			token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "alice", Issuer: "my2cents", ExpiresAt: future}),
			want:  auth.ErrInvalidSubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := mw.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}

	id, err := mw.Verify(token(t, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}
