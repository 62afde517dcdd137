package store

import "errors"

// ErrUnavailable marks transient store-layer failures (timeouts, connectivity).
// Services wrap raw driver errors with it so callers can decide retry policy.
var ErrUnavailable = errors.New("store unavailable")
