package auditlog_test

import (
	"strings"
	"testing"

	"github.com/robalyx/my2cents/internal/consumer/auditlog"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommentPostedIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	bus := events.NewBus(zap.NewNop())
	assert.Equal(t, 1, bus.RegisterConsumer(auditlog.New(zap.New(core))))

	bus.Publish(t.Context(), events.CommentPosted(&types.Comment{
		ID:   9,
		Slug: "release-notes",
		Body: "Great  release!\n\nThanks",
		User: &types.User{Name: "jdoe", DisplayName: "Jane"},
	}))

	entries := logs.FilterMessage("Comment posted").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "release-notes", fields["slug"])
	assert.Equal(t, "Jane", fields["author"])
	assert.Equal(t, int64(9), fields["commentID"])
	assert.Equal(t, "Great release!  Thanks", fields["excerpt"])
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", auditlog.Excerpt("  short  "))

	long := auditlog.Excerpt(strings.Repeat("é", 100))
	assert.Equal(t, strings.Repeat("é", 80)+"...", long)
}

func TestIgnoresModerationEvents(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	bus := events.NewBus(zap.NewNop())
	bus.RegisterConsumer(auditlog.New(zap.New(core)))

	bus.Publish(t.Context(), events.CommentApproved(&types.Comment{ID: 1}))
	bus.Publish(t.Context(), events.CommentRejected(&types.Comment{ID: 2}))

	assert.Zero(t, logs.Len())
}
