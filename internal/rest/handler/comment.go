package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/feeds"
	"github.com/robalyx/my2cents/internal/comment"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/rest/convert"
	"github.com/robalyx/my2cents/internal/rest/middleware/auth"
	"github.com/robalyx/my2cents/internal/rest/middleware/ip"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/robalyx/my2cents/internal/visibility"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// CommentService runs the comment use cases.
type CommentService interface {
	Post(ctx context.Context, input comment.PostInput) (*types.Comment, error)
	Approve(ctx context.Context, id int64) (*types.Comment, error)
	Reject(ctx context.Context, id int64) (*types.Comment, error)
	ListForSlug(ctx context.Context, slug string, viewer visibility.Viewer) ([]visibility.View, error)
	AwaitingModeration(ctx context.Context) ([]*types.Comment, error)
}

// SettingReader reads channel settings.
type SettingReader interface {
	Get(ctx context.Context, key string) (*types.ChannelSetting, error)
}

// Renderer converts Markdown to HTML.
type Renderer interface {
	Render(source string) (string, error)
}

// CommentHandler handles thread and moderation endpoints.
type CommentHandler struct {
	comments CommentService
	settings SettingReader
	renderer Renderer
	pageURL  func(slug string) string
	siteURL  string
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(
	comments CommentService, settings SettingReader, renderer Renderer,
	pageURL func(slug string) string, siteURL string, logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		settings: settings,
		renderer: renderer,
		pageURL:  pageURL,
		siteURL:  siteURL,
		logger:   logger.Named("comment_handler"),
	}
}

// GetThread returns the comments of a slug visible to the caller.
func (h *CommentHandler) GetThread(w http.ResponseWriter, req bunrouter.Request) error {
	ctx := req.Context()
	slug := req.Param("slug")
	viewer := auth.ViewerFromContext(ctx)

	views, err := h.comments.ListForSlug(ctx, slug, viewer)
	if err != nil {
		if errors.Is(err, types.ErrInvalidSlug) {
			return writeError(w, http.StatusBadRequest, "invalid slug")
		}

		h.logger.Error("Failed to list comments", zap.String("slug", slug), zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	response := restTypes.ThreadResponse{
		Slug:     slug,
		Comments: convert.Comments(views, h.renderer.Render),
		User:     convert.Viewer(auth.FromContext(ctx), viewer),
	}

	if viewer.Administrator {
		setting, err := h.settings.Get(ctx, types.SettingKeyPush)
		if err != nil {
			h.logger.Warn("Failed to read push setting", zap.Error(err))
		} else {
			response.Notification = &restTypes.Setting{Active: setting.Active}
		}
	}

	return bunrouter.JSON(w, response)
}

// PostComment stores a comment by the signed in user.
func (h *CommentHandler) PostComment(w http.ResponseWriter, req bunrouter.Request) error {
	ctx := req.Context()

	var body restTypes.PostCommentRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	created, err := h.comments.Post(ctx, comment.PostInput{
		Author:    auth.FromContext(ctx),
		Slug:      req.Param("slug"),
		Body:      body.Comment,
		ReplyTo:   body.ReplyTo,
		IPAddress: ip.FromContext(ctx),
		UserAgent: req.UserAgent(),
	})
	if err != nil {
		return h.postError(w, err)
	}

	return bunrouter.JSON(w, restTypes.PostCommentResponse{Status: restTypes.StatusOK, ID: created.ID})
}

// Approve publishes a comment awaiting moderation.
func (h *CommentHandler) Approve(w http.ResponseWriter, req bunrouter.Request) error {
	return h.moderate(w, req, h.comments.Approve)
}

// Reject hides a comment awaiting moderation.
func (h *CommentHandler) Reject(w http.ResponseWriter, req bunrouter.Request) error {
	return h.moderate(w, req, h.comments.Reject)
}

// Markdown renders a comment preview.
func (h *CommentHandler) Markdown(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.MarkdownRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	html, err := h.renderer.Render(body.Comment)
	if err != nil {
		h.logger.Error("Failed to render markdown", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	return bunrouter.JSON(w, restTypes.MarkdownResponse{HTML: html})
}

// ModerationFeed returns an RSS feed of comments awaiting moderation.
func (h *CommentHandler) ModerationFeed(w http.ResponseWriter, req bunrouter.Request) error {
	pending, err := h.comments.AwaitingModeration(req.Context())
	if err != nil {
		h.logger.Error("Failed to load moderation queue", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	rss, err := h.buildFeed(pending).ToRss()
	if err != nil {
		h.logger.Error("Failed to render moderation feed", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, err = w.Write([]byte(rss))

	return err
}

func (h *CommentHandler) buildFeed(pending []*types.Comment) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       "Awaiting moderation",
		Link:        &feeds.Link{Href: h.siteURL},
		Description: "Comments waiting for a moderation decision",
	}

	for _, c := range pending {
		link := fmt.Sprintf("%s#comment-%d", h.pageURL(c.Slug), c.ID)

		feed.Add(&feeds.Item{
			Title:       fmt.Sprintf("New comment on '%s'", c.Slug),
			Link:        &feeds.Link{Href: link},
			Description: fmt.Sprintf("A new comment on '%s' is awaiting moderation", c.Slug),
			Id:          fmt.Sprintf("%s/%d", c.Slug, c.ID),
			Created:     c.CreatedAt,
		})

		if c.CreatedAt.After(feed.Created) {
			feed.Created = c.CreatedAt
		}
	}

	return feed
}

func (h *CommentHandler) moderate(
	w http.ResponseWriter, req bunrouter.Request, action func(context.Context, int64) (*types.Comment, error),
) error {
	id, err := parseID(req, "id")
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid comment id")
	}

	if _, err := action(req.Context(), id); err != nil {
		switch {
		case errors.Is(err, types.ErrCommentNotFound):
			return writeError(w, http.StatusNotFound, "comment not found")
		case errors.Is(err, types.ErrInvalidTransition):
			return writeError(w, http.StatusConflict, "comment has already been moderated")
		}

		h.logger.Error("Failed to moderate comment", zap.Int64("commentID", id), zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "internal server error")
	}

	return bunrouter.JSON(w, restTypes.StatusResponse{Status: restTypes.StatusOK})
}

func (h *CommentHandler) postError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, types.ErrDuplicateComment):
		return bunrouter.JSON(w, restTypes.PostCommentResponse{Status: restTypes.StatusRejected, Reason: "duplicate"})
	case errors.Is(err, types.ErrInvalidUserID):
		return writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, types.ErrInvalidSlug),
		errors.Is(err, types.ErrEmptyComment),
		errors.Is(err, types.ErrCommentTooLong),
		errors.Is(err, types.ErrReplyTargetNotFound),
		errors.Is(err, types.ErrReplyTargetOtherSlug),
		errors.Is(err, comment.ErrReplyNotAllowed):
		return writeError(w, http.StatusBadRequest, err.Error())
	}

	h.logger.Error("Failed to post comment", zap.Error(err))

	return writeError(w, http.StatusInternalServerError, "internal server error")
}
