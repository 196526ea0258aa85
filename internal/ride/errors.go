package ride

import "errors"

var (
	// ErrValidation marks missing or malformed required input. Caller's
	// fault, not retryable.
	ErrValidation = errors.New("invalid request")

	// ErrSessionNotFound is returned when no live session exists for the
	// given ride id (never created, or already finished).
	ErrSessionNotFound = errors.New("ride session not found or already finished")

	// ErrInvalidMetric marks a telemetry field that could not be coerced to
	// a number. The whole update call is rejected.
	ErrInvalidMetric = errors.New("invalid metric value")

	// ErrStoreUnavailable marks a session-store failure. Retryable.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrPersistence marks a failed durable write on finish. The session is
	// kept so the ride can be finished again.
	ErrPersistence = errors.New("failed to save ride")
)
