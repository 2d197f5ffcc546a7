package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"github.com/robalyx/my2cents/internal/rest/middleware/ip"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ErrUnexpectedReply indicates the counter script returned a malformed reply.
var ErrUnexpectedReply = errors.New("unexpected rate limit reply")

// incrWindow increments the counter and sets the window as expiry whenever the key has none.
var incrWindow = rueidis.NewLuaScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

const (
	errRateLimit  = "rate limit exceeded"
	headerRetryAt = "Retry-After"
	keyPrefix     = "my2cents:ratelimit:"
)

// Middleware limits requests per client address with a fixed window counter in Redis.
type Middleware struct {
	client rueidis.Client
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// New creates a new rate limiting middleware. A non-positive limit lets every request pass.
func New(cfg *config.RateLimit, client rueidis.Client, logger *zap.Logger) *Middleware {
	return &Middleware{
		client: client,
		limit:  int64(cfg.Comments),
		window: cfg.WindowDuration(),
		logger: logger.Named("ratelimit_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if m.limit <= 0 || m.window <= 0 || m.client == nil {
			return next(w, req)
		}

		clientIP := ip.FromContext(req.Context())

		allowed, retryAfter, err := m.Allow(req.Context(), clientIP)
		if err != nil {
			// Redis trouble must not take posting down
			m.logger.Error("Failed to check rate limit", zap.String("ip", clientIP), zap.Error(err))
			return next(w, req)
		}

		if !allowed {
			w.Header().Set(headerRetryAt, strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			http.Error(w, errRateLimit, http.StatusTooManyRequests)

			return nil
		}

		return next(w, req)
	}
}

// Allow counts a request for key and reports whether it is within the limit.
// When denied, the returned duration is the time until the window resets.
func (m *Middleware) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := incrWindow.Exec(ctx, m.client,
		[]string{keyPrefix + key},
		[]string{strconv.FormatInt(m.window.Milliseconds(), 10)},
	).AsIntSlice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	if len(res) != 2 {
		return false, 0, fmt.Errorf("%w: got %d values", ErrUnexpectedReply, len(res))
	}

	count, ttl := res[0], res[1]
	if count <= m.limit {
		return true, 0, nil
	}

	m.logger.Debug("Rate limit exceeded",
		zap.String("key", key),
		zap.Int64("count", count))

	return false, time.Duration(ttl) * time.Millisecond, nil
}
