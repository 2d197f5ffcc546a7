package service_test

import (
	"context"
	"testing"

	"github.com/robalyx/my2cents/internal/database/service"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	users map[int64]*types.User
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}

	return user, nil
}

func (f *fakeUserStore) SaveUser(_ context.Context, user *types.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user

	return nil
}

func (f *fakeUserStore) UpdateStatus(_ context.Context, id int64, status enum.UserStatus) (*types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}

	user.Status = status

	return user, nil
}

func TestUserBlockAndTrust(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{users: map[int64]*types.User{
		1: {ID: 1, Name: "admin", Status: enum.UserStatusAdministrator},
		2: {ID: 2, Name: "visitor", Status: enum.UserStatusInitial},
	}}
	users := service.NewUser(store, zap.NewNop())

	user, err := users.Trust(t.Context(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, enum.UserStatusTrusted, user.Status)

	user, err = users.Block(t.Context(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, enum.UserStatusBlocked, user.Status)
}

func TestUserStatusErrors(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{users: map[int64]*types.User{
		1: {ID: 1, Name: "admin", Status: enum.UserStatusAdministrator},
	}}
	users := service.NewUser(store, zap.NewNop())

	_, err := users.Block(t.Context(), 1, 1)
	require.ErrorIs(t, err, service.ErrCannotModerateSelf)

	_, err = users.Block(t.Context(), 1, 0)
	require.ErrorIs(t, err, types.ErrInvalidUserID)

	_, err = users.Trust(t.Context(), 1, 42)
	require.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestUserSaveRequiresIdentity(t *testing.T) {
	t.Parallel()

	users := service.NewUser(&fakeUserStore{users: map[int64]*types.User{}}, zap.NewNop())

	err := users.SaveUser(t.Context(), &types.User{Name: "jane"})
	require.ErrorIs(t, err, types.ErrInvalidUserID)

	err = users.SaveUser(t.Context(), &types.User{Name: "jane", Provider: "github", ProviderID: "42"})
	require.NoError(t, err)
}
