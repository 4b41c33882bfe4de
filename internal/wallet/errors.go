package wallet

import "errors"

var (
	// ErrWalletNotFound is returned for unknown or malformed wallet identifiers.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance at the
	// moment it is applied.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidOperationType is returned for operation types other than DEPOSIT and WITHDRAW.
	ErrInvalidOperationType = errors.New("invalid operation type")
	// ErrInvalidAmount is returned for zero or negative operation amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInvalidBalance is returned when a wallet would be created with a negative balance.
	ErrInvalidBalance = errors.New("balance must not be negative")
	// ErrInvalidRequest wraps every shape validation failure surfaced by Service.Apply.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInternal reports an unexpected fault recovered inside the service.
	ErrInternal = errors.New("internal wallet error")
	// ErrLockLost is returned by the redis store when the wallet lock expired before
	// the balance could be written.
	ErrLockLost = errors.New("wallet lock lost")
)

// FieldError ties a validation failure to the request field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }
