package domain

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the question bank or its token
	// endpoint failed or timed out; callers fail soft on it.
	ErrUpstreamUnavailable = errors.New("upstream trivia service unavailable")
	// ErrInvalidTimestamp is returned when a submitted commitment timestamp is
	// not a parseable RFC 3339 instant.
	ErrInvalidTimestamp = errors.New("commitment timestamp is not a valid instant")
	// ErrNoCredential indicates no upstream credential is cached for a session.
	ErrNoCredential = errors.New("no upstream credential for session")
)
