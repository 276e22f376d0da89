package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited marks a provider 429. It is surfaced to the caller as a
// retriable condition and never retried inside the pipeline.
var ErrRateLimited = errors.New("provider rate limited")

// classifyProviderErr wraps transport failures from a model provider,
// promoting rate-limit responses to ErrRateLimited so callers can map them
// to a 429-class response with errors.Is.
func classifyProviderErr(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource exhausted") {
		return fmt.Errorf("%s: %w: %s", op, ErrRateLimited, err.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
