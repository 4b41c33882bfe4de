package wallet

import (
	"strings"

	"github.com/congo-pay/wallet_api/internal/money"
)

const (
	fieldOperationType = "operation_type"
	fieldAmount        = "amount"
)

// Validator checks the shape of an operation request. It never reads wallet
// state, so it runs before any lock is taken.
type Validator struct {
	allowNonPositive bool
}

// NewValidator builds a validator. When requirePositive is false, zero and
// negative amounts pass shape validation and are left to the balance rules.
func NewValidator(requirePositive bool) Validator {
	return Validator{allowNonPositive: !requirePositive}
}

// ValidateShape checks the operation type and amount and returns the parsed operation.
// Failures are *FieldError values naming the offending field.
func (v Validator) ValidateShape(req OperationRequest) (Operation, error) {
	opType := OperationType(strings.TrimSpace(req.OperationType))
	if !opType.Valid() {
		return Operation{}, &FieldError{Field: fieldOperationType, Err: ErrInvalidOperationType}
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return Operation{}, &FieldError{Field: fieldAmount, Err: err}
	}
	if !v.allowNonPositive && !amount.IsPositive() {
		return Operation{}, &FieldError{Field: fieldAmount, Err: ErrInvalidAmount}
	}

	return Operation{Type: opType, Amount: amount}, nil
}
