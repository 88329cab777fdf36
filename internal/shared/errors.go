package shared

import "errors"

// Domain error kinds shared across the accounting core. Services return
// these sentinels (optionally wrapped) and the transport layer maps them
// to problem responses.
var (
	// ErrNotFound indicates an unknown id or code.
	ErrNotFound = errors.New("meridian: not found")
	// ErrUnbalanced indicates journal debits do not equal credits.
	ErrUnbalanced = errors.New("meridian: journal lines must balance")
	// ErrInvalidTransition indicates a forbidden lifecycle transition.
	ErrInvalidTransition = errors.New("meridian: invalid state transition")
	// ErrDuplicateCode indicates an account code collision.
	ErrDuplicateCode = errors.New("meridian: duplicate account code")
	// ErrProtected indicates a mutation against a system-protected entity.
	ErrProtected = errors.New("meridian: entity is system protected")
	// ErrHasDependents indicates deletion blocked by dependents.
	ErrHasDependents = errors.New("meridian: entity has dependents")
	// ErrRefundExceedsAvailable indicates a refund above the refundable remainder.
	ErrRefundExceedsAvailable = errors.New("meridian: refund exceeds available amount")
	// ErrSequenceConflict indicates a document number collision; callers retry.
	ErrSequenceConflict = errors.New("meridian: sequence number conflict")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("meridian: source already linked")
)
