package enum_test

import (
	"testing"

	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestCommentStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from enum.CommentStatus
		to   enum.CommentStatus
		want bool
	}{
		{"initial to approved", enum.CommentStatusInitial, enum.CommentStatusApproved, true},
		{"initial to rejected", enum.CommentStatusInitial, enum.CommentStatusRejected, true},
		{"initial to initial", enum.CommentStatusInitial, enum.CommentStatusInitial, false},
		{"approved to rejected", enum.CommentStatusApproved, enum.CommentStatusRejected, false},
		{"rejected to approved", enum.CommentStatusRejected, enum.CommentStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestUserStatusIsTrusted(t *testing.T) {
	t.Parallel()

	assert.False(t, enum.UserStatusInitial.IsTrusted())
	assert.True(t, enum.UserStatusTrusted.IsTrusted())
	assert.False(t, enum.UserStatusBlocked.IsTrusted())
	assert.True(t, enum.UserStatusAdministrator.IsTrusted())
}

func TestStatusNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "administrator", enum.UserStatusAdministrator.String())
	assert.Equal(t, "rejected", enum.CommentStatusRejected.String())
	assert.Equal(t, "CommentStatus(7)", enum.CommentStatus(7).String())
}
