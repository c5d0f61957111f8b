package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUpstream         = errors.New("upstream service error")
	ErrNoAPIKey         = errors.New("api key not configured")
	ErrModelUnavailable = errors.New("model service unavailable")
	ErrContextDone      = errors.New("context cancelled")
)

// IsTransient reports whether err is a transient upstream condition that is
// worth retrying: rate limiting and 5xx-class failures. Everything else
// (4xx, decode failures, missing keys) degrades immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstream)
}
