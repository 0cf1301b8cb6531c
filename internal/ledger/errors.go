package ledger

import "errors"

var (
	// ErrInvalidPayment rejects a payment whose user, amount or lock period is unusable.
	ErrInvalidPayment = errors.New("invalid payment")
	// ErrDuplicatePayment means the order reference was already recorded.
	ErrDuplicatePayment = errors.New("payment already recorded")
	// ErrPersistence wraps any store failure.
	ErrPersistence = errors.New("ledger persistence failure")

	ErrNotFound         = errors.New("saving not found")
	ErrAlreadyWithdrawn = errors.New("saving already withdrawn")
	ErrStillLocked      = errors.New("saving is still locked")
)
