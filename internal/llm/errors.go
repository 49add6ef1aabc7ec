package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRateLimited is returned when the provider rejects a request for rate or quota reasons.
var ErrRateLimited = errors.New("llm provider rate limited")

// statusError builds the error for a non-200 provider response.
// 429s and bodies that mention quota or rate limits wrap ErrRateLimited.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if isRateLimit(status, msg) {
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, msg)
	}
	return fmt.Errorf("bad status %d: %s", status, msg)
}

func isRateLimit(status int, msg string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	m := strings.ToLower(msg)
	return strings.Contains(m, "quota") ||
		strings.Contains(m, "rate limit") ||
		strings.Contains(m, "rate_limit") ||
		strings.Contains(m, "429")
}
