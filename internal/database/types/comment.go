package types

import (
	"errors"
	"time"

	"github.com/robalyx/my2cents/internal/database/types/enum"
)

var (
	ErrCommentNotFound      = errors.New("comment not found")
	ErrInvalidTransition    = errors.New("comment has already been moderated")
	ErrDuplicateComment     = errors.New("comment duplicates the previous one")
	ErrEmptyComment         = errors.New("comment is empty")
	ErrInvalidSlug          = errors.New("invalid slug")
	ErrReplyTargetNotFound  = errors.New("reply target not found")
	ErrReplyTargetOtherSlug = errors.New("reply target belongs to another slug")
	ErrCommentTooLong       = errors.New("comment is too long")
)

// MaxCommentLength is the maximum number of bytes stored for a comment body.
const MaxCommentLength = 8192

// MaxSlugLength is the maximum length of a slug.
const MaxSlugLength = 256

// Comment represents a comment posted on a page.
type Comment struct {
	ID        int64              `bun:",pk,autoincrement"                         json:"id"`
	UserID    int64              `bun:",notnull"                                  json:"userId"`
	ReplyTo   *int64             `bun:",nullzero"                                 json:"replyTo"`
	Slug      string             `bun:",notnull"                                  json:"slug"`
	Body      string             `bun:",notnull"                                  json:"comment"`
	Status    enum.CommentStatus `bun:",notnull,default:0"                        json:"status"`
	IPAddress string             `bun:",notnull"                                  json:"-"`
	UserAgent string             `bun:",notnull"                                  json:"-"`
	CreatedAt time.Time          `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// AwaitsModeration reports whether the comment belongs in the moderation queue.
func (c *Comment) AwaitsModeration() bool {
	if c.Status != enum.CommentStatusInitial {
		return false
	}

	return c.User == nil || !c.User.Status.IsTrusted()
}
