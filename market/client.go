// Package market provides a typed Go client for the data marketplace REST API
// together with the two client-side components that sit on top of it: the
// adaptive dataset Resolver (with its FilterSession) and the table
// PreviewController.
//
// The client wraps HTTP transport, optional retries, request logging, and
// response decoding. Enumerated wire values (categories, frequencies, pricing
// models) are parsed explicitly and fail decoding when unknown.
package market

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
)

// DefaultBaseURL is the API origin used by a local development backend.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds every HTTP request issued by the client.
const DefaultTimeout = 10 * time.Second

// Logger defines an optional structured logging hook. Implementations should
// avoid recording sensitive values; authorization headers are redacted.
type Logger func(event string, metadata map[string]any)

// SlogLogger adapts a *slog.Logger to the Logger hook. Events are logged at
// debug level with metadata flattened into attributes.
func SlogLogger(l *slog.Logger) Logger {
	return func(event string, metadata map[string]any) {
		attrs := make([]any, 0, len(metadata)*2)
		for k, v := range metadata {
			attrs = append(attrs, k, v)
		}
		l.Debug(event, attrs...)
	}
}

// Client contains shared configuration and HTTP plumbing for the API.
type Client struct {
	// BaseURL is the API root including the /api prefix
	// (for example: http://localhost:8000/api).
	BaseURL string

	// HTTPClient is the underlying HTTP client. A tuned default with a 10s
	// timeout and transparent gzip decoding is provided.
	HTTPClient *http.Client

	// UserAgent is added to each request.
	UserAgent string

	// Headers are attached to every request (for example an Authorization
	// header in front of a gateway).
	Headers http.Header

	// Transport-level retries for 429/5xx. Disabled by default: the Resolver
	// and PreviewController own their retry policy.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Observability hooks.
	Logger      Logger
	BeforeHooks []func(*http.Request)
	AfterHooks  []func(*http.Response, []byte, error)
}

// New constructs a Client with safe defaults. Options can override defaults.
func New(opts ...Option) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: gzhttp.Transport(&http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: DefaultTimeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			}),
		},
		UserAgent:      "datamarket-go/0.1 (+https://github.com/steven3002/datamarket-go)",
		MaxRetries:     0,
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
	}
	for _, f := range opts {
		f(c)
	}
	return c
}
