package events

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// DefaultTaskTimeout bounds a single background delivery.
const DefaultTaskTimeout = 30 * time.Second

// Background runs handler side effects off the publishing goroutine.
// Tasks are detached from the publisher's cancellation but keep its values.
type Background struct {
	wg      conc.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// NewBackground creates a background group with the default task timeout.
func NewBackground(logger *zap.Logger) *Background {
	return &Background{
		timeout: DefaultTaskTimeout,
		logger:  logger.Named("background"),
	}
}

// Go starts fn in the background. Errors and panics are logged with name.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	b.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		var err error

		recovered := panics.Try(func() {
			err = fn(ctx)
		})

		switch {
		case recovered != nil:
			b.logger.Error("Background task panicked",
				zap.String("task", name),
				zap.String("panic", recovered.String()))
		case err != nil:
			b.logger.Error("Background task failed",
				zap.String("task", name),
				zap.Error(err))
		}
	})
}

// Wait blocks until every started task has finished.
func (b *Background) Wait() {
	b.wg.Wait()
}
