package ip

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type ipCtxKey struct{}

// UnknownIP is returned when no address can be determined.
const UnknownIP = "unknown"

// mappedPrefix is the textual prefix of IPv4 addresses mapped into IPv6.
const mappedPrefix = "::ffff:"

// FromContext retrieves the client IP from the context.
func FromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipCtxKey{}).(string); ok {
		return ip
	}

	return UnknownIP
}

// WithIP stores the client IP in the context.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipCtxKey{}, ip)
}

// Middleware resolves the caller address and stores it in the request context.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new IP middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{logger: logger.Named("ip_middleware")}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		ip := ClientIP(req.Request)
		m.logger.Debug("Client IP detected", zap.String("ip", ip))

		return next(w, req.WithContext(WithIP(req.Context(), ip)))
	}
}

// ClientIP returns the first hop of X-Forwarded-For, falling back to the remote address.
// IPv4-mapped IPv6 addresses are reported in their IPv4 form.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return stripMapped(ip)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if host == "" {
		return UnknownIP
	}

	return stripMapped(host)
}

func stripMapped(ip string) string {
	return strings.TrimPrefix(ip, mappedPrefix)
}
