package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")

	// ErrInvalidTransition rejects payout state changes outside the
	// PENDING -> {RELEASED, FROZEN, CANCELLED} / FROZEN -> {RELEASED, CANCELLED} machine.
	ErrInvalidTransition = errors.New("invalid payout state transition")
	// ErrBalanceMissing means a payout was requested for a creator with no balance record.
	ErrBalanceMissing = errors.New("creator balance record missing")
	// ErrVisitAlreadyPaid guards the terminal visit lifecycle flag.
	ErrVisitAlreadyPaid = errors.New("visit event already paid")
	// ErrInsufficientBudget mirrors the budget ledger rejection code.
	ErrInsufficientBudget = errors.New("insufficient campaign budget")
)
