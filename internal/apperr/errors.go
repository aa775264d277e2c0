package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition is returned when a status change is not reachable
// from the entity's current status.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrAlreadyClaimed is the expected outcome of losing a claim race:
// another driver's conditional write won. Not a system error.
var ErrAlreadyClaimed = errors.New("already claimed")

// ErrNotAuthorized indicates the actor does not hold the role or identity
// required for the requested operation.
var ErrNotAuthorized = errors.New("not authorized")

// ErrSettlementNotReady is returned when settlement is queried before both
// confirmation flags are set.
var ErrSettlementNotReady = errors.New("settlement not ready")
