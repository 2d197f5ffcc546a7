package push

import (
	"context"
	"errors"

	"github.com/robalyx/my2cents/internal/database/types"
)

// ErrQueueStopped is returned when the queue actor is no longer running.
var ErrQueueStopped = errors.New("moderation queue is stopped")

// entries is the moderation queue state. Only the actor goroutine touches it.
type entries struct {
	order    []int64
	comments map[int64]*types.Comment
}

func newEntries() *entries {
	return &entries{comments: make(map[int64]*types.Comment)}
}

// add queues a comment once. Returns false if it was already queued.
func (e *entries) add(comment *types.Comment) bool {
	if _, exists := e.comments[comment.ID]; exists {
		return false
	}

	e.comments[comment.ID] = comment
	e.order = append(e.order, comment.ID)

	return true
}

// remove drops a comment. Returns false if it was not queued.
func (e *entries) remove(id int64) bool {
	if _, exists := e.comments[id]; !exists {
		return false
	}

	delete(e.comments, id)

	for i, queued := range e.order {
		if queued == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	return true
}

// snapshot returns the queued comments in insertion order.
func (e *entries) snapshot() []*types.Comment {
	out := make([]*types.Comment, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.comments[id])
	}

	return out
}

// queue serializes every access to the moderation entries through one goroutine.
type queue struct {
	ops  chan func(*entries)
	done chan struct{}
}

func newQueue() *queue {
	return &queue{
		ops:  make(chan func(*entries), 64),
		done: make(chan struct{}),
	}
}

// run executes queued operations until ctx is cancelled.
func (q *queue) run(ctx context.Context) {
	defer close(q.done)

	state := newEntries()

	for {
		select {
		case <-ctx.Done():
			return
		case op := <-q.ops:
			op(state)
		}
	}
}

// ask runs fn on the actor goroutine and waits for its result.
func ask[T any](ctx context.Context, q *queue, fn func(*entries) T) (T, error) {
	var zero T

	reply := make(chan T, 1)
	op := func(e *entries) {
		reply <- fn(e)
	}

	select {
	case q.ops <- op:
	case <-q.done:
		return zero, ErrQueueStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case result := <-reply:
		return result, nil
	case <-q.done:
		return zero, ErrQueueStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
