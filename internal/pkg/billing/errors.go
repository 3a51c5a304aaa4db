package billing

import "errors"

// Verification failures are surfaced as typed sentinel errors so the
// controller can map them to stable error codes without leaking raw
// persistence errors.
var (
	// ErrValidation marks a missing or malformed callback field. Nothing was
	// looked up or written.
	ErrValidation = errors.New("invalid payment verification request")

	// ErrUnauthorized marks a caller that does not own the transaction being
	// verified. No state was touched.
	ErrUnauthorized = errors.New("payment does not belong to caller")

	// ErrSignature marks a gateway signature mismatch. No state was touched;
	// callers should log this as a potential security event.
	ErrSignature = errors.New("payment signature mismatch")

	// ErrNotFound marks an unknown transaction or an invoice that is missing
	// or already consumed. No state was touched.
	ErrNotFound = errors.New("no matching payment records")
)
