package push_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gregdel/pushover"
	"github.com/robalyx/my2cents/internal/consumer/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePushover struct {
	err      error
	failures int
	calls    int
	last     *pushover.Message
	to       *pushover.Recipient
}

func (f *fakePushover) SendMessage(msg *pushover.Message, to *pushover.Recipient) (*pushover.Response, error) {
	f.calls++
	f.last = msg
	f.to = to

	if f.calls <= f.failures {
		return nil, f.err
	}

	return &pushover.Response{Status: 1, ID: "req-1"}, nil
}

func TestPushoverSendsSummary(t *testing.T) {
	t.Parallel()

	sender := &fakePushover{}
	notifier := push.NewPushoverNotifier(sender, "user-key", zap.NewNop())

	msg := push.NewSummary("hello", 2, "https://blog.example.com/hello")
	require.NoError(t, notifier.Notify(t.Context(), msg))

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, msg.Body, sender.last.Message)
	assert.Equal(t, "my2cents", sender.last.Title)
	assert.Equal(t, "https://blog.example.com/hello", sender.last.URL)
	assert.Equal(t, pushover.NewRecipient("user-key"), sender.to)
}

func TestPushoverRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	sender := &fakePushover{err: fmt.Errorf("send: %w", pushover.ErrHTTPPushover), failures: 1}
	notifier := push.NewPushoverNotifier(sender, "user-key", zap.NewNop())

	require.NoError(t, notifier.Notify(t.Context(), push.NewSummary("hello", 1, "https://blog.example.com/hello")))
	assert.Equal(t, 2, sender.calls)
}

func TestPushoverDoesNotRetryRejectedRequests(t *testing.T) {
	t.Parallel()

	sender := &fakePushover{err: errors.New("application token is invalid"), failures: 3}
	notifier := push.NewPushoverNotifier(sender, "user-key", zap.NewNop())

	err := notifier.Notify(t.Context(), push.NewSummary("hello", 1, "https://blog.example.com/hello"))
	require.Error(t, err)
	assert.Equal(t, 1, sender.calls)
}
