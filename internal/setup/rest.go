package setup

import (
	"net/http"

	"github.com/robalyx/my2cents/internal/rest"
)

// RESTHandler builds the HTTP API over the application's services.
func (s *App) RESTHandler() http.Handler {
	deps := &rest.Dependencies{
		Comments: s.Comments,
		Users:    s.DB.Service().User(),
		Settings: s.DB.Service().Setting(),
		Renderer: s.Renderer,
		Redis:    s.Limiter,
	}

	// Keep the interface nil when web push is off
	if s.WebPush != nil {
		deps.Push = s.WebPush
	}

	return rest.NewServer(s.Config, deps, s.Logger)
}
