package types_test

import (
	"testing"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestUserProfileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user types.User
		want string
	}{
		{"explicit url wins", types.User{Name: "jane", Provider: "github", URL: "https://jane.dev"}, "https://jane.dev"},
		{"twitter fallback", types.User{Name: "jane", Provider: "twitter"}, "https://twitter.com/jane"},
		{"github fallback", types.User{Name: "jane", Provider: "github"}, "https://github.com/jane"},
		{"unknown provider", types.User{Name: "jane", Provider: "local"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.user.ProfileURL())
		})
	}
}

func TestUserLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jane Doe", (&types.User{Name: "jane", DisplayName: "Jane Doe"}).Label())
	assert.Equal(t, "jane", (&types.User{Name: "jane"}).Label())
}

func TestCommentAwaitsModeration(t *testing.T) {
	t.Parallel()

	initial := &types.User{Status: enum.UserStatusInitial}
	trusted := &types.User{Status: enum.UserStatusTrusted}
	admin := &types.User{Status: enum.UserStatusAdministrator}

	assert.True(t, (&types.Comment{User: initial}).AwaitsModeration())
	assert.False(t, (&types.Comment{User: trusted}).AwaitsModeration())
	assert.False(t, (&types.Comment{User: admin}).AwaitsModeration())
	assert.False(t, (&types.Comment{User: initial, Status: enum.CommentStatusApproved}).AwaitsModeration())
}

func TestSubscriptionValidate(t *testing.T) {
	t.Parallel()

	valid := &types.Subscription{Endpoint: "https://push.example/abc", P256dh: "key", Auth: "secret"}
	assert.NoError(t, valid.Validate())

	missing := &types.Subscription{Endpoint: "https://push.example/abc"}
	assert.ErrorIs(t, missing.Validate(), types.ErrInvalidSubscription)
}
