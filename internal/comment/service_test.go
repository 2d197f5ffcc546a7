package comment_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/robalyx/my2cents/internal/comment"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryStore keeps comments in insertion order.
type memoryStore struct {
	comments []*types.Comment
	users    map[int64]*types.User
	nextID   int64
	clock    time.Time
}

func newMemoryStore(users ...*types.User) *memoryStore {
	s := &memoryStore{
		users: make(map[int64]*types.User),
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}

	return s
}

func (s *memoryStore) CreateComment(_ context.Context, c *types.Comment) error {
	s.nextID++
	s.clock = s.clock.Add(time.Minute)

	c.ID = s.nextID
	c.CreatedAt = s.clock
	c.User = s.users[c.UserID]
	s.comments = append(s.comments, c)

	return nil
}

func (s *memoryStore) GetCommentByID(_ context.Context, id int64) (*types.Comment, error) {
	for _, c := range s.comments {
		if c.ID == id {
			return c, nil
		}
	}

	return nil, types.ErrCommentNotFound
}

func (s *memoryStore) GetLastComment(_ context.Context, userID int64, slug string, replyTo *int64) (*types.Comment, error) {
	for i := len(s.comments) - 1; i >= 0; i-- {
		c := s.comments[i]
		if c.UserID != userID || c.Slug != slug {
			continue
		}

		if (replyTo == nil) != (c.ReplyTo == nil) || (replyTo != nil && *replyTo != *c.ReplyTo) {
			continue
		}

		return c, nil
	}

	return nil, nil //nolint:nilnil // no previous comment
}

func (s *memoryStore) GetCommentsBySlug(_ context.Context, slug string) ([]*types.Comment, error) {
	var out []*types.Comment
	for _, c := range s.comments {
		if c.Slug == slug {
			out = append(out, c)
		}
	}

	return out, nil
}

func (s *memoryStore) GetAwaitingModeration(_ context.Context, limit int) ([]*types.Comment, error) {
	var out []*types.Comment
	for i := len(s.comments) - 1; i >= 0 && len(out) < limit; i-- {
		c := s.comments[i]
		if c.Status == enum.CommentStatusInitial && c.User.Status == enum.UserStatusInitial {
			out = append(out, c)
		}
	}

	return out, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id int64, status enum.CommentStatus) (*types.Comment, error) {
	for _, c := range s.comments {
		if c.ID != id {
			continue
		}

		if !c.Status.CanTransitionTo(status) {
			return nil, types.ErrInvalidTransition
		}

		c.Status = status

		return c, nil
	}

	return nil, types.ErrCommentNotFound
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.events = append(p.events, event)
}

var (
	visitor = &types.User{ID: 1, Name: "visitor", Status: enum.UserStatusInitial}
	regular = &types.User{ID: 2, Name: "regular", Status: enum.UserStatusTrusted}
	admin   = &types.User{ID: 3, Name: "admin", Status: enum.UserStatusAdministrator}
)

func setup(t *testing.T) (*comment.Service, *memoryStore, *recordingPublisher) {
	t.Helper()

	store := newMemoryStore(visitor, regular, admin)
	publisher := &recordingPublisher{}

	return comment.NewService(store, publisher, zap.NewNop()), store, publisher
}

func ptr[T any](v T) *T {
	return &v
}

func TestPostStoresAndPublishes(t *testing.T) {
	t.Parallel()

	svc, store, publisher := setup(t)

	c, err := svc.Post(t.Context(), comment.PostInput{
		Author:    visitor,
		Slug:      "hello-world",
		Body:      "  Nice post!\r\nThanks  ",
		IPAddress: "203.0.113.9",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nice post!\nThanks", c.Body)
	assert.Equal(t, enum.CommentStatusInitial, c.Status)
	assert.Equal(t, "203.0.113.9", c.IPAddress)
	assert.Equal(t, "test-agent", c.UserAgent)
	assert.Same(t, visitor, c.User)
	assert.Len(t, store.comments, 1)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.EventCommentPosted, publisher.events[0].Type)
	assert.Same(t, c, publisher.events[0].Comment)
}

func TestPostRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input comment.PostInput
		want  error
	}{
		{name: "no author", input: comment.PostInput{Slug: "a", Body: "x"}, want: types.ErrInvalidUserID},
		{name: "empty slug", input: comment.PostInput{Author: visitor, Body: "x"}, want: types.ErrInvalidSlug},
		{name: "slug with space", input: comment.PostInput{Author: visitor, Slug: "a b", Body: "x"}, want: types.ErrInvalidSlug},
		{name: "slug with query", input: comment.PostInput{Author: visitor, Slug: "a?b=1", Body: "x"}, want: types.ErrInvalidSlug},
		{name: "long slug", input: comment.PostInput{Author: visitor, Slug: strings.Repeat("s", 257), Body: "x"}, want: types.ErrInvalidSlug},
		{name: "blank body", input: comment.PostInput{Author: visitor, Slug: "a", Body: " \r\n "}, want: types.ErrEmptyComment},
		{name: "long body", input: comment.PostInput{Author: visitor, Slug: "a", Body: strings.Repeat("x", types.MaxCommentLength+1)}, want: types.ErrCommentTooLong},
		{name: "unknown parent", input: comment.PostInput{Author: visitor, Slug: "a", Body: "x", ReplyTo: ptr(int64(99))}, want: types.ErrReplyTargetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _, publisher := setup(t)

			_, err := svc.Post(t.Context(), tt.input)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, publisher.events)
		})
	}
}

func TestPostRejectsDuplicate(t *testing.T) {
	t.Parallel()

	svc, store, publisher := setup(t)
	input := comment.PostInput{Author: visitor, Slug: "a", Body: "same text"}

	_, err := svc.Post(t.Context(), input)
	require.NoError(t, err)

	input.Body = "same text\n"
	_, err = svc.Post(t.Context(), input)
	require.ErrorIs(t, err, types.ErrDuplicateComment)

	// Same text on another thread is fine
	input.Slug = "b"
	_, err = svc.Post(t.Context(), input)
	require.NoError(t, err)

	assert.Len(t, store.comments, 2)
	assert.Len(t, publisher.events, 2)
}

func TestPostReply(t *testing.T) {
	t.Parallel()

	svc, _, _ := setup(t)

	trusted, err := svc.Post(t.Context(), comment.PostInput{Author: regular, Slug: "a", Body: "root"})
	require.NoError(t, err)

	pending, err := svc.Post(t.Context(), comment.PostInput{Author: visitor, Slug: "a", Body: "pending"})
	require.NoError(t, err)

	reply, err := svc.Post(t.Context(), comment.PostInput{
		Author: visitor, Slug: "a", Body: "reply", ReplyTo: ptr(trusted.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, trusted.ID, *reply.ReplyTo)

	// A duplicate check is scoped to the parent
	_, err = svc.Post(t.Context(), comment.PostInput{Author: visitor, Slug: "a", Body: "reply"})
	require.NoError(t, err)

	_, err = svc.Post(t.Context(), comment.PostInput{
		Author: visitor, Slug: "b", Body: "elsewhere", ReplyTo: ptr(trusted.ID),
	})
	require.ErrorIs(t, err, types.ErrReplyTargetOtherSlug)

	_, err = svc.Post(t.Context(), comment.PostInput{
		Author: regular, Slug: "a", Body: "answer", ReplyTo: ptr(pending.ID),
	})
	require.ErrorIs(t, err, comment.ErrReplyNotAllowed)
}

func TestModeration(t *testing.T) {
	t.Parallel()

	svc, _, publisher := setup(t)

	first, err := svc.Post(t.Context(), comment.PostInput{Author: visitor, Slug: "a", Body: "one"})
	require.NoError(t, err)
	second, err := svc.Post(t.Context(), comment.PostInput{Author: visitor, Slug: "a", Body: "two"})
	require.NoError(t, err)

	approved, err := svc.Approve(t.Context(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CommentStatusApproved, approved.Status)

	rejected, err := svc.Reject(t.Context(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CommentStatusRejected, rejected.Status)

	_, err = svc.Reject(t.Context(), first.ID)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = svc.Approve(t.Context(), 0)
	require.ErrorIs(t, err, types.ErrCommentNotFound)

	_, err = svc.Approve(t.Context(), 42)
	require.ErrorIs(t, err, types.ErrCommentNotFound)

	got := make([]events.EventType, 0, len(publisher.events))
	for _, e := range publisher.events {
		got = append(got, e.Type)
	}

	assert.Equal(t, []events.EventType{
		events.EventCommentPosted,
		events.EventCommentPosted,
		events.EventCommentApproved,
		events.EventCommentRejected,
	}, got)
}

func TestListForSlugAppliesVisibility(t *testing.T) {
	t.Parallel()

	svc, _, _ := setup(t)

	mine, err := svc.Post(t.Context(), comment.PostInput{Author: visitor, Slug: "a", Body: "mine"})
	require.NoError(t, err)
	trusted, err := svc.Post(t.Context(), comment.PostInput{Author: regular, Slug: "a", Body: "trusted"})
	require.NoError(t, err)
	_, err = svc.Post(t.Context(), comment.PostInput{Author: regular, Slug: "b", Body: "other thread"})
	require.NoError(t, err)

	anonymous, err := svc.ListForSlug(t.Context(), "a", visibility.Anonymous)
	require.NoError(t, err)
	require.Len(t, anonymous, 1)
	assert.Equal(t, trusted.ID, anonymous[0].ID)

	own, err := svc.ListForSlug(t.Context(), "a", visibility.Viewer{ID: visitor.ID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, trusted.ID, own[0].ID)
	assert.Equal(t, mine.ID, own[1].ID)
	assert.True(t, own[1].Own)

	_, err = svc.ListForSlug(t.Context(), "", visibility.Anonymous)
	require.ErrorIs(t, err, types.ErrInvalidSlug)
}

func TestAwaitingModeration(t *testing.T) {
	t.Parallel()

	svc, _, _ := setup(t)

	for i := range comment.ModerationLimit + 5 {
		_, err := svc.Post(t.Context(), comment.PostInput{
			Author: visitor, Slug: "a", Body: strings.Repeat("x", i+1),
		})
		require.NoError(t, err)
	}

	_, err := svc.Post(t.Context(), comment.PostInput{Author: regular, Slug: "a", Body: "trusted"})
	require.NoError(t, err)

	pending, err := svc.AwaitingModeration(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, comment.ModerationLimit)
	assert.Equal(t, int64(comment.ModerationLimit+5), pending[0].ID)
}
