package ip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robalyx/my2cents/internal/rest/middleware/ip"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "remote address", remoteAddr: "198.51.100.4:5123", want: "198.51.100.4"},
		{name: "first forwarded hop", forwarded: "203.0.113.7, 10.0.0.1", remoteAddr: "10.0.0.1:80", want: "203.0.113.7"},
		{name: "mapped forwarded", forwarded: "::ffff:203.0.113.8", remoteAddr: "10.0.0.1:80", want: "203.0.113.8"},
		{name: "mapped remote", remoteAddr: "[::ffff:192.0.2.1]:443", want: "192.0.2.1"},
		{name: "ipv6 remote", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "blank forwarded", forwarded: " , 10.0.0.1", remoteAddr: "192.0.2.9:1", want: "192.0.2.9"},
		{name: "nothing", remoteAddr: "", want: ip.UnknownIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, ip.ClientIP(req))
		})
	}
}

func TestMiddlewareStoresIP(t *testing.T) {
	t.Parallel()

	var got string

	router := bunrouter.New(bunrouter.Use(ip.New(zap.NewNop()).AsRESTMiddleware))
	router.GET("/", func(_ http.ResponseWriter, req bunrouter.Request) error {
		got = ip.FromContext(req.Context())
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.5", got)
	assert.Equal(t, ip.UnknownIP, ip.FromContext(t.Context()))
}
