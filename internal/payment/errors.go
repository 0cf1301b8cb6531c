package payment

import "errors"

var (
	// ErrInvalidCallback rejects a gateway callback with a bad checksum or a non-success status.
	ErrInvalidCallback = errors.New("invalid payment callback")
	// ErrUpstreamUnavailable reports a failed or timed-out call to a payment provider.
	ErrUpstreamUnavailable = errors.New("payment provider unavailable")
	// ErrSessionNotPaid means a checkout session exists but was not paid for the claimed amount.
	ErrSessionNotPaid = errors.New("checkout session not paid")
)
