package services

import "errors"

// Engine error taxonomy. Every violated precondition aborts the call,
// rolls back the enclosing transaction, and surfaces one of these.
var (
	ErrNotAuthorized             = errors.New("not authorized")
	ErrAlreadyInitialized        = errors.New("already initialized")
	ErrNotInitialized            = errors.New("not initialized")
	ErrMerchantAlreadyRegistered = errors.New("merchant already registered")
	ErrMerchantNotFound          = errors.New("merchant not found")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrInvoiceNotFound           = errors.New("invoice not found")
	ErrContractPaused            = errors.New("contract paused")
	ErrContractNotPaused         = errors.New("contract not paused")
	ErrTokenNotAccepted          = errors.New("token not accepted")
	ErrAccountNotFound           = errors.New("merchant account not found")
	ErrAccountNotSet             = errors.New("merchant account not set")
	ErrInvalidInvoiceStatus      = errors.New("invalid invoice status")
	ErrRefundPeriodExpired       = errors.New("refund period expired")
	ErrAccountRestricted         = errors.New("account restricted")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrInvalidRole               = errors.New("invalid role")

	// Reserved: per-call transactions are serialized, so no guard
	// currently raises this.
	ErrReentrancy = errors.New("reentrancy")
)
