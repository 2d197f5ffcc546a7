package events

import (
	"context"
	"errors"

	"github.com/robalyx/my2cents/internal/database/types"
)

// ErrMissingComment is returned by handlers when an event carries no comment.
var ErrMissingComment = errors.New("event has no comment")

// EventType identifies a comment lifecycle transition.
type EventType int

const (
	// EventUnknown is the zero value and never has handlers.
	EventUnknown EventType = iota
	// EventCommentPosted is published after a comment has been stored.
	EventCommentPosted
	// EventCommentApproved is published after a moderator approved a comment.
	EventCommentApproved
	// EventCommentRejected is published after a moderator rejected a comment.
	EventCommentRejected
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case EventCommentPosted:
		return "CommentPosted"
	case EventCommentApproved:
		return "CommentApproved"
	case EventCommentRejected:
		return "CommentRejected"
	case EventUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Event is an immutable notification about a comment.
type Event struct {
	Type    EventType
	Comment *types.Comment
}

// CommentPosted creates the event for a freshly stored comment.
func CommentPosted(comment *types.Comment) Event {
	return Event{Type: EventCommentPosted, Comment: comment}
}

// CommentApproved creates the event for an approved comment.
func CommentApproved(comment *types.Comment) Event {
	return Event{Type: EventCommentApproved, Comment: comment}
}

// CommentRejected creates the event for a rejected comment.
func CommentRejected(comment *types.Comment) Event {
	return Event{Type: EventCommentRejected, Comment: comment}
}

// Handler reacts to a published event. A returned error is logged by the bus.
type Handler func(ctx context.Context, event Event) error

// Registration binds a named handler to an event type.
type Registration struct {
	Type    EventType
	Name    string
	Handler Handler
}

// Consumer is a notification channel that subscribes to events.
type Consumer interface {
	// RegisterConsumers returns the handlers the channel wants to receive.
	// An unconfigured channel returns nil.
	RegisterConsumers() []Registration
}
