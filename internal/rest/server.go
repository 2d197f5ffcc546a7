package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"
	"github.com/redis/rueidis"
	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/robalyx/my2cents/internal/rest/handler"
	"github.com/robalyx/my2cents/internal/rest/middleware/auth"
	"github.com/robalyx/my2cents/internal/rest/middleware/ip"
	"github.com/robalyx/my2cents/internal/rest/middleware/ratelimit"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserService loads and classifies commenters.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*types.User, error)
	handler.UserModerator
}

// Dependencies holds the services the REST API is built on.
type Dependencies struct {
	Comments handler.CommentService
	Users    UserService
	Settings handler.SettingService
	Renderer handler.Renderer
	// Push is nil when web push is not configured.
	Push  handler.PushSubscriptions
	Redis rueidis.Client
}

// Server implements the REST API service.
type Server struct {
	commentHandler *handler.CommentHandler
	userHandler    *handler.UserHandler
	settingHandler *handler.SettingHandler
	pushHandler    *handler.PushHandler
}

// NewServer creates a new REST API server mounted below the service path.
func NewServer(cfg *config.Config, deps *Dependencies, logger *zap.Logger) http.Handler {
	// Create server instance with handlers
	server := &Server{
		commentHandler: handler.NewCommentHandler(
			deps.Comments, deps.Settings, deps.Renderer,
			cfg.Server.PageURL, cfg.Server.My2CentsURL(), logger,
		),
		userHandler:    handler.NewUserHandler(deps.Users, logger),
		settingHandler: handler.NewSettingHandler(deps.Settings, logger),
		pushHandler:    handler.NewPushHandler(deps.Push, logger),
	}

	// Create middleware instances
	ipMiddleware := ip.New(logger)
	authMiddleware := auth.New(&cfg.Auth, deps.Users, logger)
	rateLimiter := ratelimit.New(&cfg.RateLimit, deps.Redis, logger)

	router := bunrouter.New()

	router.Use(
		ipMiddleware.AsRESTMiddleware,
		authMiddleware.AsRESTMiddleware,
	).WithGroup(MountPath(cfg.Server.PathToMy2Cents), func(g *bunrouter.Group) {
		g.GET("/comments/:slug", server.commentHandler.GetThread)
		g.POST("/markdown", server.commentHandler.Markdown)

		g.Use(auth.RequireUser, rateLimiter.AsRESTMiddleware).
			POST("/comments/:slug", server.commentHandler.PostComment)

		g.Use(auth.RequireAdministrator).WithGroup("", func(admin *bunrouter.Group) {
			admin.POST("/moderation/comments/:id/approve", server.commentHandler.Approve)
			admin.POST("/moderation/comments/:id/reject", server.commentHandler.Reject)
			admin.POST("/moderation/users/:id/block", server.userHandler.Block)
			admin.POST("/moderation/users/:id/trust", server.userHandler.Trust)
			admin.GET("/moderation/rss", server.commentHandler.ModerationFeed)

			admin.GET("/settings/:key", server.settingHandler.Get)
			admin.PUT("/settings/:key", server.settingHandler.Put)

			admin.POST("/push/subscribe", server.pushHandler.Subscribe)
			admin.POST("/push/unsubscribe", server.pushHandler.Unsubscribe)
		})
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}

// MountPath normalises the configured service path into a router prefix.
// The root path mounts the API without a prefix.
func MountPath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}

	return "/" + trimmed
}
