// Package comment implements the comment use cases: posting, moderation and thread listing.
package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/visibility"
	"github.com/robalyx/my2cents/pkg/utils"
	"go.uber.org/zap"
)

// ModerationLimit is the number of comments returned by AwaitingModeration.
const ModerationLimit = 20

// ErrReplyNotAllowed is returned when the author may not answer the target comment.
var ErrReplyNotAllowed = errors.New("replies to this comment are not allowed")

// slugRule accepts printable ASCII slugs without whitespace, query or fragment characters.
const slugRule = "required,max=256,printascii,excludesall= ?#%\\"

// Store persists comments.
type Store interface {
	CreateComment(ctx context.Context, comment *types.Comment) error
	GetCommentByID(ctx context.Context, id int64) (*types.Comment, error)
	GetLastComment(ctx context.Context, userID int64, slug string, replyTo *int64) (*types.Comment, error)
	GetCommentsBySlug(ctx context.Context, slug string) ([]*types.Comment, error)
	GetAwaitingModeration(ctx context.Context, limit int) ([]*types.Comment, error)
	UpdateStatus(ctx context.Context, id int64, status enum.CommentStatus) (*types.Comment, error)
}

// Publisher dispatches lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// PostInput is a new comment submitted by an authenticated user.
type PostInput struct {
	Author    *types.User
	Slug      string
	Body      string
	ReplyTo   *int64
	IPAddress string
	UserAgent string
}

// Service runs the comment use cases and publishes their events.
type Service struct {
	store     Store
	publisher Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService creates a comment service.
func NewService(store Store, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger.Named("comment_service"),
	}
}

// Post stores a new comment and publishes CommentPosted.
// An identical copy of the author's previous comment under the same parent is rejected.
func (s *Service) Post(ctx context.Context, input PostInput) (*types.Comment, error) {
	if input.Author == nil || input.Author.ID <= 0 {
		return nil, types.ErrInvalidUserID
	}

	if err := s.ValidateSlug(input.Slug); err != nil {
		return nil, err
	}

	body, err := NormalizeBody(input.Body)
	if err != nil {
		return nil, err
	}

	if input.ReplyTo != nil {
		if err := s.checkReplyTarget(ctx, input.Author, input.Slug, *input.ReplyTo); err != nil {
			return nil, err
		}
	}

	last, err := s.store.GetLastComment(ctx, input.Author.ID, input.Slug, input.ReplyTo)
	if err != nil {
		return nil, err
	}

	if last != nil && last.Body == body {
		s.logger.Info("Rejected duplicate comment",
			zap.Int64("userID", input.Author.ID),
			zap.String("slug", input.Slug))

		return nil, types.ErrDuplicateComment
	}

	comment := &types.Comment{
		UserID:    input.Author.ID,
		ReplyTo:   input.ReplyTo,
		Slug:      input.Slug,
		Body:      body,
		Status:    enum.CommentStatusInitial,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if comment.User == nil {
		comment.User = input.Author
	}

	s.logger.Debug("Stored comment",
		zap.Int64("commentID", comment.ID),
		zap.String("slug", comment.Slug))

	s.publisher.Publish(ctx, events.CommentPosted(comment))

	return comment, nil
}

// Approve publishes an initial comment and emits CommentApproved.
func (s *Service) Approve(ctx context.Context, id int64) (*types.Comment, error) {
	return s.moderate(ctx, id, enum.CommentStatusApproved, events.CommentApproved)
}

// Reject hides an initial comment and emits CommentRejected.
func (s *Service) Reject(ctx context.Context, id int64) (*types.Comment, error) {
	return s.moderate(ctx, id, enum.CommentStatusRejected, events.CommentRejected)
}

// ListForSlug returns the thread of slug as seen by viewer.
func (s *Service) ListForSlug(ctx context.Context, slug string, viewer visibility.Viewer) ([]visibility.View, error) {
	if err := s.ValidateSlug(slug); err != nil {
		return nil, err
	}

	comments, err := s.store.GetCommentsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	return visibility.Thread(comments, viewer), nil
}

// AwaitingModeration returns the newest comments by unclassified users that need a decision.
func (s *Service) AwaitingModeration(ctx context.Context) ([]*types.Comment, error) {
	return s.store.GetAwaitingModeration(ctx, ModerationLimit)
}

// ValidateSlug checks that slug can be appended to a page path.
func (s *Service) ValidateSlug(slug string) error {
	if err := s.validate.Var(slug, slugRule); err != nil {
		return fmt.Errorf("%w: %q", types.ErrInvalidSlug, slug)
	}

	return nil
}

// NormalizeBody unifies line endings and trims the comment body.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(utils.NormalizeNewlines(body))

	switch {
	case body == "":
		return "", types.ErrEmptyComment
	case len(body) > types.MaxCommentLength:
		return "", types.ErrCommentTooLong
	}

	return body, nil
}

func (s *Service) moderate(
	ctx context.Context, id int64, status enum.CommentStatus, event func(*types.Comment) events.Event,
) (*types.Comment, error) {
	if id <= 0 {
		return nil, types.ErrCommentNotFound
	}

	comment, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Moderated comment",
		zap.Int64("commentID", id),
		zap.String("slug", comment.Slug),
		zap.String("status", status.String()))

	s.publisher.Publish(ctx, event(comment))

	return comment, nil
}

func (s *Service) checkReplyTarget(ctx context.Context, author *types.User, slug string, replyTo int64) error {
	target, err := s.store.GetCommentByID(ctx, replyTo)
	if err != nil {
		if errors.Is(err, types.ErrCommentNotFound) {
			return types.ErrReplyTargetNotFound
		}

		return err
	}

	if target.Slug != slug {
		return types.ErrReplyTargetOtherSlug
	}

	viewer := visibility.Viewer{
		ID:            author.ID,
		Administrator: author.Status == enum.UserStatusAdministrator,
	}
	if !visibility.IsVisible(target, viewer) || !visibility.CanReply(target, viewer) {
		return ErrReplyNotAllowed
	}

	return nil
}
