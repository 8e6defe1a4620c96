package service

import (
	"errors"

	"github.com/gameia/engine/internal/validation"
)

var (
	// ErrInvalidTransition: the goal's state does not allow the operation
	// (terminal goal, duplicate join or support, draft goal, ...).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInsufficientBalance: a stake or purchase exceeds the user's coins.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrencyConflict: optimistic updates kept colliding after all retries.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrSettlementFailure: rewards could not be credited; the settlement is retried later.
	ErrSettlementFailure = errors.New("settlement failure")

	ErrForbidden = errors.New("forbidden")
)

// ValidationError is returned for malformed input.
type ValidationError = validation.Error
