package types

import "time"

// Status values reported by action endpoints.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
)

// Author describes the writer of a comment.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	// Only present for administrators and the author.
	ID     *int64  `json:"id,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Comment is a comment as shown in a thread.
type Comment struct {
	ID        int64     `json:"id"`
	ReplyTo   *int64    `json:"replyTo"`
	Comment   string    `json:"comment"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"user"`
	CanReply  bool      `json:"canReply"`
	Own       bool      `json:"own"`
	// Only present for administrators and the author.
	Status   *string `json:"status,omitempty"`
	Approved *bool   `json:"approved,omitempty"`
}

// Viewer describes the signed in user of a thread request.
type Viewer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Setting is the payload of a channel setting.
type Setting struct {
	Active bool `json:"active"`
}

// ThreadResponse is returned by GET /comments/:slug.
type ThreadResponse struct {
	Slug         string    `json:"slug"`
	Comments     []Comment `json:"comments"`
	User         *Viewer   `json:"user"`
	Notification *Setting  `json:"notification"`
}

// PostCommentRequest is the body of POST /comments/:slug.
type PostCommentRequest struct {
	Comment string `json:"comment"`
	ReplyTo *int64 `json:"replyTo"`
}

// PostCommentResponse is returned by POST /comments/:slug.
type PostCommentResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// StatusResponse acknowledges an action.
type StatusResponse struct {
	Status string `json:"status"`
}

// UserStatusResponse is returned by the user moderation endpoints.
type UserStatusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
	State  string `json:"state"`
}

// SubscribeRequest is the body of POST /push/subscribe.
type SubscribeRequest struct {
	Endpoint  string `json:"endpoint"`
	PublicKey string `json:"publicKey"`
	Auth      string `json:"auth"`
}

// UnsubscribeRequest is the body of POST /push/unsubscribe.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// MarkdownRequest is the body of POST /markdown.
type MarkdownRequest struct {
	Comment string `json:"comment"`
}

// MarkdownResponse carries rendered HTML.
type MarkdownResponse struct {
	HTML string `json:"html"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
