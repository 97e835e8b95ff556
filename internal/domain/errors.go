package domain

import "errors"

// Error kinds returned by external adapters. Adapters translate provider
// failures into these at the boundary so the orchestrator's retry policy
// stays independent of any particular API's error format.
var (
	// ErrChannelUnreachable means the channel itself cannot be resolved.
	ErrChannelUnreachable = errors.New("channel unreachable")

	// ErrUpstream is a transient provider failure, retryable next run.
	ErrUpstream = errors.New("upstream error")

	// ErrRateLimited means the provider asked us to back off; the run skips
	// the rest of the channel and retries on the next schedule.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput is permanent for the given input (e.g. captions
	// disabled on a video); blind retries will not succeed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuth means credentials are missing or rejected; operator action
	// is required before any retry can succeed.
	ErrAuth = errors.New("authentication failed")
)

// Retryable reports whether a failure of this kind can plausibly succeed
// on a later run without operator intervention.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrChannelUnreachable)
}
