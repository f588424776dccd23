package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidCriteria = errors.New("invalid criteria")
	ErrConfiguration   = errors.New("configuration error")
	ErrAuthentication  = errors.New("authentication error")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUpstream        = errors.New("upstream error")
	ErrParse           = errors.New("parse error")
)

// ProviderError scopes a failure to one asset provider. Kind is one of the
// sentinel errors above; Err is the underlying cause, if any.
type ProviderError struct {
	Provider string
	Kind     error
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Kind != nil {
		return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewProviderError builds a ProviderError of the given kind.
func NewProviderError(provider string, kind error, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: cause}
}

// RateWindow names a rate limiter window.
type RateWindow string

const (
	WindowMinute RateWindow = "minute"
	WindowDay    RateWindow = "day"
)

// RateLimitError reports which window of a provider's limiter is exhausted.
type RateLimitError struct {
	Provider string
	Window   RateWindow
	Limit    int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded: %d requests per %s", e.Provider, e.Limit, e.Window)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ErrorKind maps an error onto the short code used in logs and API payloads.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrRateLimited):
		return "rate_limit"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrInvalidCriteria):
		return "invalid_criteria"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "internal"
}
