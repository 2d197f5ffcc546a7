package push

import (
	"context"
	"fmt"
)

// MessageTitle is the title of every reminder.
const MessageTitle = "my2cents"

// Message is a reminder about comments awaiting moderation on one thread.
type Message struct {
	Title string
	Body  string
	URL   string
	Slug  string
	Count int
}

// Notifier delivers reminders through one push channel.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// Notify delivers the message. Failures are reported, never retried by the caller.
	Notify(ctx context.Context, msg Message) error
}

// NewSummary builds the reminder for count comments on slug.
func NewSummary(slug string, count int, pageURL string) Message {
	plural := ""
	if count > 1 {
		plural = "s"
	}

	return Message{
		Title: MessageTitle,
		Body:  fmt.Sprintf("%d new comment%s on \"%s\" are awaiting moderation.", count, plural, slug),
		URL:   pageURL,
		Slug:  slug,
		Count: count,
	}
}
