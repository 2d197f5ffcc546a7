// Package visibility decides which comments of a thread a viewer may see and
// which moderation details are exposed to them.
package visibility

import (
	"slices"
	"time"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
)

// Viewer identifies who is looking at a thread. An ID of 0 is an anonymous visitor.
type Viewer struct {
	ID            int64
	Administrator bool
}

// Anonymous is the viewer without a session.
var Anonymous = Viewer{}

// Authenticated reports whether the viewer is signed in.
func (v Viewer) Authenticated() bool {
	return v.ID > 0
}

// Owns reports whether the viewer wrote the comment.
func (v Viewer) Owns(comment *types.Comment) bool {
	return v.Authenticated() && comment.UserID == v.ID
}

// View is a comment as presented to one viewer.
// Pointer fields are nil when redacted.
type View struct {
	ID           int64
	ReplyTo      *int64
	Slug         string
	Body         string
	CreatedAt    time.Time
	Author       string
	AuthorURL    string
	AuthorID     *int64
	AuthorStatus *enum.UserStatus
	Status       *enum.CommentStatus
	Approved     *bool
	CanReply     bool
	Own          bool
}

// authorStatus returns the status of the comment's author.
func authorStatus(comment *types.Comment) enum.UserStatus {
	if comment.User == nil {
		return enum.UserStatusInitial
	}

	return comment.User.Status
}

// IsVisible reports whether the viewer may see the comment.
func IsVisible(comment *types.Comment, viewer Viewer) bool {
	status := authorStatus(comment)

	if viewer.Administrator {
		return status != enum.UserStatusBlocked
	}

	if viewer.Owns(comment) {
		return true
	}

	if status == enum.UserStatusBlocked || comment.Status == enum.CommentStatusRejected {
		return false
	}

	return comment.Status == enum.CommentStatusApproved || status.IsTrusted()
}

// CanReply reports whether the viewer may answer the comment.
func CanReply(comment *types.Comment, viewer Viewer) bool {
	if !viewer.Authenticated() {
		return false
	}

	return comment.Status == enum.CommentStatusApproved || authorStatus(comment).IsTrusted()
}

// Project builds the view of a single comment. Moderation details are only
// filled in for administrators and the comment's author.
func Project(comment *types.Comment, viewer Viewer) View {
	view := View{
		ID:        comment.ID,
		ReplyTo:   comment.ReplyTo,
		Slug:      comment.Slug,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		CanReply:  CanReply(comment, viewer),
		Own:       viewer.Owns(comment),
	}

	if comment.User != nil {
		view.Author = comment.User.Label()
		view.AuthorURL = comment.User.ProfileURL()
	}

	if viewer.Administrator || view.Own {
		authorID := comment.UserID
		userStatus := authorStatus(comment)
		commentStatus := comment.Status
		approved := commentStatus == enum.CommentStatusApproved

		view.AuthorID = &authorID
		view.AuthorStatus = &userStatus
		view.Status = &commentStatus
		view.Approved = &approved
	}

	return view
}

// Thread filters the comments of a thread for the viewer and orders them newest first.
// Comments created at the same instant keep their input order.
func Thread(comments []*types.Comment, viewer Viewer) []View {
	visible := make([]*types.Comment, 0, len(comments))
	for _, comment := range comments {
		if IsVisible(comment, viewer) {
			visible = append(visible, comment)
		}
	}

	slices.SortStableFunc(visible, func(a, b *types.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	views := make([]View, 0, len(visible))
	for _, comment := range visible {
		views = append(views, Project(comment, viewer))
	}

	return views
}
