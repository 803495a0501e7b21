package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// doJSON sends a request with an optional JSON body and decodes a JSON
// response into out. Non-2xx responses are returned as *APIError, transport
// failures as *RequestError, and unknown enumerated values as a wrapped
// *DecodeError.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any, opts ...CallOption) error {
	res, err := c.doRequest(ctx, op, method, path, in, opts...)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &RequestError{Op: op, Method: method, URL: c.BaseURL + path, Err: err}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

// validator is implemented by response types carrying enumerated fields.
type validator interface {
	Validate() error
}

// doRequest returns the raw response of the first 2xx attempt. The caller
// must close the response body. Retries are performed for transport errors,
// 429 and 5xx when MaxRetries is positive, honoring Retry-After.
func (c *Client) doRequest(ctx context.Context, op, method, path string, in any, opts ...CallOption) (*http.Response, error) {
	u := c.BaseURL + path
	co := applyCallOptions(opts)

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		payload = b
	}

	initial, maxBack := normalizeBackoff(c.InitialBackoff, c.MaxBackoff)
	retries := normalizeRetries(c.MaxRetries)
	base := retry.WithMaxRetries(uint64(retries),
		retry.WithCappedDuration(maxBack,
			retry.WithJitterPercent(25, retry.NewExponential(initial))))

	var (
		out        *http.Response
		attempt    int
		retryAfter time.Duration
	)
	// A server-provided Retry-After stretches the next wait; it never adds to it.
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		if retryAfter > next {
			next = retryAfter
		}
		retryAfter = 0
		return next, false
	})
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		defer func() { attempt++ }()

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return err
		}
		c.prepareHeaders(req, co, payload != nil)

		if c.Logger != nil {
			c.Logger("request", map[string]any{
				"op": op, "label": co.label, "method": method, "url": u,
				"headers": redactHeaders(req.Header), "attempt": attempt,
			})
		}
		for _, h := range c.BeforeHooks {
			h(req)
		}

		res, err := c.HTTPClient.Do(req)
		if c.Logger != nil {
			c.Logger("response", map[string]any{
				"op": op, "method": method, "url": u, "status": statusOf(res), "attempt": attempt,
			})
		}
		if err != nil {
			for _, h := range c.AfterHooks {
				h(nil, nil, err)
			}
			return retry.RetryableError(&RequestError{Op: op, Method: method, URL: u, Err: err})
		}
		if res.StatusCode/100 == 2 {
			for _, h := range c.AfterHooks {
				h(res, nil, nil)
			}
			out = res
			return nil
		}

		raw, _ := io.ReadAll(res.Body)
		res.Body.Close()
		for _, h := range c.AfterHooks {
			h(res, raw, nil)
		}
		apiErr := parseAPIError(res.StatusCode, raw)
		if res.StatusCode != http.StatusTooManyRequests && res.StatusCode/100 != 5 {
			return apiErr
		}
		retryAfter = parseRetryAfter(res.Header.Get("Retry-After"))
		return retry.RetryableError(apiErr)
	})
	if err != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// go-retry reports cancellation between attempts as a bare ctx error.
			return nil, &RequestError{Op: op, Method: method, URL: u, Err: err}
		}
		return nil, err
	}
	return out, nil
}

func applyCallOptions(opts []CallOption) *callOptions {
	co := &callOptions{}
	for _, o := range opts {
		o(co)
	}
	return co
}

func (c *Client) prepareHeaders(req *http.Request, co *callOptions, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	mergeHeaders(req.Header, c.Headers)
	mergeHeaders(req.Header, co.headers)
	id := co.requestID
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set("x-request-id", id)
}
