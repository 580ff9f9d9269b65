package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so that callers and the resilience pipeline can
// dispatch on it without inspecting concrete types.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation marks malformed input. Never retried.
	KindValidation
	// KindBusiness marks a rule rejection (insufficient balance, account not active...). Never retried.
	KindBusiness
	// KindTransient marks infrastructure trouble (timeouts, lock waits, connection loss). Eligible for retry.
	KindTransient
	// KindCircuitOpen means the call was not attempted at all.
	KindCircuitOpen
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	case KindTransient:
		return "transient"
	case KindCircuitOpen:
		return "circuit_open"
	default:
		return "internal"
	}
}

// Code is the stable error code surfaced to callers.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeSameAccount         Code = "SAME_ACCOUNT"
	CodeUnsupportedCurrency Code = "UNSUPPORTED_CURRENCY"

	CodeInsufficientBalance     Code = "INSUFFICIENT_BALANCE"
	CodeAccountNotFound         Code = "ACCOUNT_NOT_FOUND"
	CodeAccountNotActive        Code = "ACCOUNT_NOT_ACTIVE"
	CodeCurrencyMismatch        Code = "CURRENCY_MISMATCH"
	CodeLockNotFound            Code = "LOCK_NOT_FOUND"
	CodeDuplicateLock           Code = "DUPLICATE_LOCK"
	CodeTransactionNotFound     Code = "TRANSACTION_NOT_FOUND"
	CodeNotReversible           Code = "NOT_REVERSIBLE"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodeIdempotencyConflict     Code = "IDEMPOTENCY_CONFLICT"
	CodeAlreadyExists           Code = "ALREADY_EXISTS"
	CodeNotFound                Code = "NOT_FOUND"
	CodeCustomerNotEligible     Code = "CUSTOMER_NOT_ELIGIBLE"
	CodeDestinationNotFound     Code = "DESTINATION_NOT_FOUND"
	CodePartnerRejected         Code = "PARTNER_REJECTED"

	CodeTimeout            Code = "TIMEOUT"
	CodeLockTimeout        Code = "LOCK_TIMEOUT"
	CodeConnectionFailure  Code = "CONNECTION_FAILURE"
	CodeUpstream           Code = "UPSTREAM_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeCircuitOpen        Code = "CIRCUIT_OPEN"

	CodeInternal Code = "INTERNAL"
)

// Error is the classified error carried through every layer.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	Err     error
}

// NewError creates a classified error.
func NewError(code Code, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so sentinel comparisons
// survive WithDetail and Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e with a more specific message.
func (e *Error) WithDetail(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e that wraps cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// Common domain errors
var (
	ErrValidation          = NewError(CodeValidation, KindValidation, "validation error")
	ErrInvalidAmount       = NewError(CodeInvalidAmount, KindValidation, "amount must be positive and match currency precision")
	ErrSameAccount         = NewError(CodeSameAccount, KindValidation, "source and destination accounts must differ")
	ErrUnsupportedCurrency = NewError(CodeUnsupportedCurrency, KindValidation, "unsupported currency")

	ErrInsufficientBalance     = NewError(CodeInsufficientBalance, KindBusiness, "insufficient available balance")
	ErrAccountNotFound         = NewError(CodeAccountNotFound, KindBusiness, "account not found")
	ErrAccountNotActive        = NewError(CodeAccountNotActive, KindBusiness, "account status does not allow this operation")
	ErrCurrencyMismatch        = NewError(CodeCurrencyMismatch, KindBusiness, "currency mismatch")
	ErrLockNotFound            = NewError(CodeLockNotFound, KindBusiness, "fund lock not found")
	ErrDuplicateLock           = NewError(CodeDuplicateLock, KindBusiness, "an active lock already uses this reference")
	ErrTransactionNotFound     = NewError(CodeTransactionNotFound, KindBusiness, "transaction not found")
	ErrNotReversible           = NewError(CodeNotReversible, KindBusiness, "transaction cannot be reversed")
	ErrInvalidStatusTransition = NewError(CodeInvalidStatusTransition, KindBusiness, "invalid status transition")
	ErrIdempotencyConflict     = NewError(CodeIdempotencyConflict, KindBusiness, "reference already used with a different payload")
	ErrAlreadyExists           = NewError(CodeAlreadyExists, KindBusiness, "resource already exists")
	ErrNotFound                = NewError(CodeNotFound, KindBusiness, "resource not found")
	ErrCustomerNotEligible     = NewError(CodeCustomerNotEligible, KindBusiness, "customer not found or not active")
	ErrDestinationNotFound     = NewError(CodeDestinationNotFound, KindBusiness, "destination account not found at partner bank")
	ErrPartnerRejected         = NewError(CodePartnerRejected, KindBusiness, "partner bank rejected the settlement")

	ErrTimeout            = NewError(CodeTimeout, KindTransient, "operation timed out")
	ErrLockTimeout        = NewError(CodeLockTimeout, KindTransient, "timed out waiting for account lock")
	ErrConnectionFailure  = NewError(CodeConnectionFailure, KindTransient, "connection failure")
	ErrUpstream           = NewError(CodeUpstream, KindTransient, "upstream server error")
	ErrServiceUnavailable = NewError(CodeServiceUnavailable, KindTransient, "service unavailable")
	ErrCircuitOpen        = NewError(CodeCircuitOpen, KindCircuitOpen, "circuit open")

	ErrInternal = NewError(CodeInternal, KindInternal, "internal error")
)

var byCode = map[Code]*Error{}

func init() {
	for _, e := range []*Error{
		ErrValidation, ErrInvalidAmount, ErrSameAccount, ErrUnsupportedCurrency,
		ErrInsufficientBalance, ErrAccountNotFound, ErrAccountNotActive, ErrCurrencyMismatch,
		ErrLockNotFound, ErrDuplicateLock, ErrTransactionNotFound, ErrNotReversible,
		ErrInvalidStatusTransition, ErrIdempotencyConflict, ErrAlreadyExists, ErrNotFound,
		ErrCustomerNotEligible, ErrDestinationNotFound, ErrPartnerRejected,
		ErrTimeout, ErrLockTimeout, ErrConnectionFailure, ErrUpstream, ErrServiceUnavailable,
		ErrCircuitOpen, ErrInternal,
	} {
		byCode[e.Code] = e
	}
}

// FromCode rebuilds a classified error from a code received over the wire or
// stored on a failed transaction record. Unknown codes become internal errors.
func FromCode(code Code, message string) *Error {
	base, ok := byCode[code]
	if !ok {
		return &Error{Code: code, Kind: KindInternal, Message: message}
	}
	if message == "" {
		return base
	}
	return base.WithDetail("%s", message)
}

// KindOf reports the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err; unclassified errors map to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf reports the message of err without its code, so that it can be
// stored next to the code and fed back to FromCode.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}
