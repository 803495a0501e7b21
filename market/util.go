package market

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json is the codec used for all request and response bodies.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sensitiveHeaders are masked by redactHeaders.
var sensitiveHeaders = []string{"authorization", "x-api-key", "cookie"}

// mergeHeaders appends values from src into dst.
func mergeHeaders(dst http.Header, src http.Header) {
	if src == nil {
		return
	}
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// statusOf returns the HTTP status code or zero if the response is nil.
func statusOf(res *http.Response) int {
	if res == nil {
		return 0
	}
	return res.StatusCode
}

// parseAPIError decodes an error body and captures message/code/details when
// available. FastAPI reports failures in a "detail" field.
func parseAPIError(code int, b []byte) *APIError {
	apiErr := &APIError{StatusCode: code, Body: string(b)}
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Code    string `json:"code"`
		Details any    `json:"details"`
	}
	if json.Unmarshal(b, &msg) == nil {
		switch {
		case msg.Message != "":
			apiErr.Message = msg.Message
		case msg.Error != "":
			apiErr.Message = msg.Error
		default:
			if s, ok := msg.Detail.(string); ok {
				apiErr.Message = s
			}
		}
		apiErr.Code = msg.Code
		apiErr.Details = msg.Details
		if apiErr.Details == nil {
			if _, ok := msg.Detail.(string); !ok {
				apiErr.Details = msg.Detail
			}
		}
	}
	return apiErr
}

// parseRetryAfter interprets Retry-After header values (seconds or HTTP-date).
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// redactHeaders masks sensitive header values for logging.
func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return h
	}
	cp := http.Header{}
	for k, vs := range h {
		for _, v := range vs {
			if isSensitive(k) {
				if len(v) > 8 {
					cp.Add(k, v[:4]+"…"+v[len(v)-4:])
				} else {
					cp.Add(k, "********")
				}
			} else {
				cp.Add(k, v)
			}
		}
	}
	return cp
}

func isSensitive(k string) bool {
	for _, s := range sensitiveHeaders {
		if strings.EqualFold(k, s) {
			return true
		}
	}
	return false
}

// escapeQuery encodes a query parameter value the way browsers'
// encodeURIComponent does: spaces become %20, not '+'.
func escapeQuery(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// buildQuery joins already-ordered key/value pairs, skipping empty values.
func buildQuery(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(escapeQuery(pairs[i+1]))
	}
	return b.String()
}

// normalizeBackoff ensures sane defaults for backoff windows.
func normalizeBackoff(initial, max time.Duration) (time.Duration, time.Duration) {
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 2 * time.Second
	}
	return initial, max
}

// normalizeRetries ensures non-negative retry counts.
func normalizeRetries(r int) int {
	if r < 0 {
		return 0
	}
	return r
}
