package utils

import (
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
)

// HTTPOptions configures an outbound HTTP client.
type HTTPOptions struct {
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
}

// GetWebhookHTTPOptions returns client options for webhook and push gateway calls.
func GetWebhookHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:       10 * time.Second,
		Retries:       2,
		RetryInterval: 500 * time.Millisecond,
	}
}

// NewHTTPClient creates a heimdall client that retries server errors with a constant backoff.
func NewHTTPClient(opts HTTPOptions) *httpclient.Client {
	backoff := heimdall.NewConstantBackoff(opts.RetryInterval, 5*time.Millisecond)

	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(opts.Timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(opts.Retries),
	)
}
