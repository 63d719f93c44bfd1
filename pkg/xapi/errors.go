package xapi

import "errors"

var (
	// ErrAuth covers invalid or expired API credentials (401/403 upstream).
	ErrAuth = errors.New("x api authentication failed")
	// ErrNotFound means the requested handle or post does not exist upstream.
	ErrNotFound = errors.New("x api resource not found")
	// ErrUpstreamShape means no known response envelope matched. Rare; callers
	// log it rather than swallowing it.
	ErrUpstreamShape = errors.New("unexpected x api response shape")
)
