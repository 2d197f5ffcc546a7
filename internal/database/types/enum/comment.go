package enum

import "fmt"

// CommentStatus represents the moderation state of a comment.
type CommentStatus int

const (
	// CommentStatusInitial indicates a comment has not been moderated yet.
	CommentStatusInitial CommentStatus = iota
	// CommentStatusApproved indicates a moderator approved the comment.
	CommentStatusApproved
	// CommentStatusRejected indicates a moderator rejected the comment.
	CommentStatusRejected
)

var commentStatusNames = map[CommentStatus]string{
	CommentStatusInitial:  "initial",
	CommentStatusApproved: "approved",
	CommentStatusRejected: "rejected",
}

// String returns the lower case name of the status.
func (s CommentStatus) String() string {
	if name, ok := commentStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("CommentStatus(%d)", int(s))
}

// CanTransitionTo reports whether moderation may move a comment from s to next.
// Only initial comments can be approved or rejected.
func (s CommentStatus) CanTransitionTo(next CommentStatus) bool {
	return s == CommentStatusInitial && (next == CommentStatusApproved || next == CommentStatusRejected)
}
