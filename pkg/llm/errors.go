package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/papercomputeco/scribe/pkg/llm/exchange"
	"github.com/papercomputeco/scribe/pkg/utils"
)

var (
	// ErrUnknownProvider is returned for provider kinds or ids that are not configured.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownAgent is returned when an agent id cannot be resolved.
	ErrUnknownAgent = errors.New("unknown agent")
)

// maxErrorBody bounds how much of an upstream error body ends up in Error().
const maxErrorBody = 500

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   ProviderKind
	StatusCode int
	Body       string

	// Exchange is the sanitized snapshot of the failed call.
	Exchange *exchange.Exchange
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, utils.Truncate(e.Body, maxErrorBody))
}

// Debug returns the rendered exchange, if one was recorded.
func (e *StatusError) Debug() string {
	if e.Exchange == nil {
		return ""
	}
	return e.Exchange.String()
}

// IsAuth reports whether err is an upstream authentication failure.
func IsAuth(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}

// IsRateLimit reports whether err is an upstream rate limit.
func IsRateLimit(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// IsTemporary reports whether retrying the same call later could succeed.
func IsTemporary(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= http.StatusInternalServerError
}

// RequestError wraps a failure that happened after a request was built but
// before a usable reply was decoded: transport errors and undecodable bodies.
type RequestError struct {
	Provider ProviderKind
	Err      error
	Exchange *exchange.Exchange
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ExchangeOf returns the exchange attached to err, if any.
func ExchangeOf(err error) *exchange.Exchange {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Exchange
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Exchange
	}
	return nil
}
