package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalyx/my2cents/internal/database/dbretry"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// CommentModel handles database operations for comments.
type CommentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewComment creates a new comment model.
func NewComment(db *bun.DB, logger *zap.Logger) *CommentModel {
	return &CommentModel{
		db:     db,
		logger: logger.Named("db_comment"),
	}
}

// CreateComment inserts a new comment and loads its author.
func (r *CommentModel) CreateComment(ctx context.Context, comment *types.Comment) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(comment).Returning("*").Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert comment: %w (slug=%s)", err, comment.Slug)
		}

		user := new(types.User)
		if err := tx.NewSelect().Model(user).Where("id = ?", comment.UserID).Scan(ctx); err != nil {
			return fmt.Errorf("failed to load comment author: %w (userID=%d)", err, comment.UserID)
		}

		comment.User = user

		return nil
	})
}

// GetCommentByID retrieves a comment and its author.
func (r *CommentModel) GetCommentByID(ctx context.Context, id int64) (*types.Comment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Comment, error) {
		comment := new(types.Comment)

		err := r.db.NewSelect().
			Model(comment).
			Relation("User").
			Where("comment.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrCommentNotFound
			}

			return nil, fmt.Errorf("failed to get comment: %w (id=%d)", err, id)
		}

		return comment, nil
	})
}

// GetLastComment retrieves the newest comment of a user on a slug below the given parent.
// A nil replyTo matches top level comments only.
func (r *CommentModel) GetLastComment(
	ctx context.Context, userID int64, slug string, replyTo *int64,
) (*types.Comment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Comment, error) {
		comment := new(types.Comment)

		query := r.db.NewSelect().
			Model(comment).
			Where("user_id = ?", userID).
			Where("slug = ?", slug)

		if replyTo != nil {
			query.Where("reply_to = ?", *replyTo)
		} else {
			query.Where("reply_to IS NULL")
		}

		err := query.Order("created_at DESC", "id DESC").Limit(1).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil //nolint:nilnil // no previous comment is not an error
			}

			return nil, fmt.Errorf("failed to get last comment: %w (userID=%d)", err, userID)
		}

		return comment, nil
	})
}

// GetCommentsBySlug retrieves every comment of a thread with its author, newest first.
func (r *CommentModel) GetCommentsBySlug(ctx context.Context, slug string) ([]*types.Comment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Comment, error) {
		var comments []*types.Comment

		err := r.threadQuery(&comments, slug).Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get comments: %w (slug=%s)", err, slug)
		}

		return comments, nil
	})
}

// GetAwaitingModeration retrieves initial comments by initial users, newest first.
func (r *CommentModel) GetAwaitingModeration(ctx context.Context, limit int) ([]*types.Comment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Comment, error) {
		var comments []*types.Comment

		err := r.awaitingQuery(&comments, limit).Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get comments awaiting moderation: %w", err)
		}

		return comments, nil
	})
}

// threadQuery selects a thread newest first. Comments created at the same instant
// keep their insertion order, which the serial id reflects.
func (r *CommentModel) threadQuery(comments *[]*types.Comment, slug string) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(comments).
		Relation("User").
		Where("comment.slug = ?", slug).
		Order("comment.created_at DESC", "comment.id ASC")
}

func (r *CommentModel) awaitingQuery(comments *[]*types.Comment, limit int) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(comments).
		Relation("User").
		Where("comment.status = ?", enum.CommentStatusInitial).
		Where(`"user".status = ?`, enum.UserStatusInitial).
		Order("comment.created_at DESC", "comment.id ASC").
		Limit(limit)
}

// UpdateStatus moves a comment to a new moderation status and returns it with its author.
// Returns ErrInvalidTransition when the comment has already been moderated.
func (r *CommentModel) UpdateStatus(
	ctx context.Context, id int64, status enum.CommentStatus,
) (*types.Comment, error) {
	var comment *types.Comment

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		comment = new(types.Comment)

		err := tx.NewSelect().
			Model(comment).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.ErrCommentNotFound
			}

			return fmt.Errorf("failed to lock comment: %w (id=%d)", err, id)
		}

		if !comment.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w (id=%d, status=%s)", types.ErrInvalidTransition, id, comment.Status)
		}

		comment.Status = status

		_, err = tx.NewUpdate().
			Model(comment).
			Column("status").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update comment status: %w (id=%d)", err, id)
		}

		user := new(types.User)
		if err := tx.NewSelect().Model(user).Where("id = ?", comment.UserID).Scan(ctx); err != nil {
			return fmt.Errorf("failed to load comment author: %w (userID=%d)", err, comment.UserID)
		}

		comment.User = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Updated comment status",
		zap.Int64("id", id),
		zap.String("status", status.String()))

	return comment, nil
}
