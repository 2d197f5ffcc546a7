package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errDelivery = errors.New("delivery failed")

type staticConsumer []events.Registration

func (c staticConsumer) RegisterConsumers() []events.Registration {
	return c
}

func TestPublishRunsHandlersInOrder(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(zap.NewNop())

	var calls []string

	for _, name := range []string{"first", "second", "third"} {
		bus.Register(events.EventCommentPosted, name, func(context.Context, events.Event) error {
			calls = append(calls, name)
			return nil
		})
	}

	bus.Register(events.EventCommentApproved, "other", func(context.Context, events.Event) error {
		calls = append(calls, "other")
		return nil
	})

	bus.Publish(t.Context(), events.CommentPosted(&types.Comment{ID: 1}))

	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, []string{"first", "second", "third"}, bus.Handlers(events.EventCommentPosted))
}

func TestPublishIsolatesFailingHandlers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	bus := events.NewBus(zap.New(core))

	var ran []string

	bus.RegisterConsumer(staticConsumer{
		{Type: events.EventCommentPosted, Name: "push", Handler: func(context.Context, events.Event) error {
			ran = append(ran, "push")
			return nil
		}},
	})
	bus.RegisterConsumer(staticConsumer{
		{Type: events.EventCommentPosted, Name: "mail", Handler: func(context.Context, events.Event) error {
			panic("malformed address")
		}},
	})
	bus.RegisterConsumer(staticConsumer{
		{Type: events.EventCommentPosted, Name: "slack", Handler: func(context.Context, events.Event) error {
			ran = append(ran, "slack")
			return errDelivery
		}},
	})
	bus.RegisterConsumer(staticConsumer{
		{Type: events.EventCommentPosted, Name: "log", Handler: func(context.Context, events.Event) error {
			ran = append(ran, "log")
			return nil
		}},
	})

	require.NotPanics(t, func() {
		bus.Publish(t.Context(), events.CommentPosted(&types.Comment{ID: 7}))
	})

	assert.Equal(t, []string{"push", "slack", "log"}, ran)
	assert.Equal(t, 1, logs.FilterMessage("Event handler panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("Event handler failed").Len())
}

func TestPublishWithoutHandlers(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(zap.NewNop())

	assert.NotPanics(t, func() {
		bus.Publish(t.Context(), events.Event{Type: events.EventUnknown})
	})
}

func TestRegisterTwiceDuplicatesUntilReset(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(zap.NewNop())

	var count int

	consumer := staticConsumer{
		{Type: events.EventCommentRejected, Name: "counter", Handler: func(context.Context, events.Event) error {
			count++
			return nil
		}},
	}

	assert.Equal(t, 1, bus.RegisterConsumer(consumer))
	bus.RegisterConsumer(consumer)
	bus.Publish(t.Context(), events.CommentRejected(&types.Comment{ID: 3}))
	assert.Equal(t, 2, count)

	bus.Reset()
	bus.RegisterConsumer(consumer)
	bus.Publish(t.Context(), events.CommentRejected(&types.Comment{ID: 3}))
	assert.Equal(t, 3, count)
}

func TestEventConstructors(t *testing.T) {
	t.Parallel()

	comment := &types.Comment{ID: 9}

	assert.Equal(t, events.EventCommentPosted, events.CommentPosted(comment).Type)
	assert.Equal(t, events.EventCommentApproved, events.CommentApproved(comment).Type)
	assert.Equal(t, events.EventCommentRejected, events.CommentRejected(comment).Type)
	assert.Same(t, comment, events.CommentApproved(comment).Comment)
	assert.Equal(t, "CommentPosted", events.EventCommentPosted.String())
}

func TestBackgroundRecoversAndWaits(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	background := events.NewBackground(zap.New(core))

	var done atomic.Int32

	ctx, cancel := context.WithCancel(t.Context())
	background.Go(ctx, "slow", func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)

		// The publisher's cancellation does not reach background work
		if ctx.Err() == nil {
			done.Add(1)
		}

		return nil
	})
	cancel()

	background.Go(t.Context(), "broken", func(context.Context) error {
		panic("nil comment")
	})
	background.Go(t.Context(), "failing", func(context.Context) error {
		return errDelivery
	})

	background.Wait()

	assert.Equal(t, int32(1), done.Load())
	assert.Equal(t, 1, logs.FilterMessage("Background task panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("Background task failed").Len())
}
