package market

import (
	"net/http"
	"strings"
	"time"
)

// Option customizes a Client at construction time.
type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTPClient = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithRetries(max int) Option           { return func(c *Client) { c.MaxRetries = max } }
func WithBackoff(init, max time.Duration) Option {
	return func(c *Client) {
		c.InitialBackoff = init
		c.MaxBackoff = max
	}
}
func WithLogger(l Logger) Option { return func(c *Client) { c.Logger = l } }

// WithTimeout sets the per-request timeout on the current HTTP client.
// Apply it after WithHTTPClient when both are used.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.HTTPClient != nil && d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.Headers == nil {
			c.Headers = http.Header{}
		}
		c.Headers.Add(key, value)
	}
}

// CallOption customizes a single API call.
type CallOption func(*callOptions)

type callOptions struct {
	headers   http.Header
	label     string
	requestID string
}

// WithCallHeader adds an arbitrary header to a single API call.
func WithCallHeader(key, value string) CallOption {
	return func(co *callOptions) {
		if co.headers == nil {
			co.headers = http.Header{}
		}
		co.headers.Add(key, value)
	}
}

// WithRequestID sets the x-request-id header instead of a generated one.
func WithRequestID(id string) CallOption {
	return func(co *callOptions) { co.requestID = id }
}

// WithLabel sets an optional label that is included in request logs.
func WithLabel(l string) CallOption {
	return func(co *callOptions) { co.label = l }
}
