package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_api/internal/money"
)

func TestValidateShape(t *testing.T) {
	v := NewValidator(true)
	tests := []struct {
		name      string
		req       OperationRequest
		wantField string
		wantErr   error
	}{
		{name: "deposit", req: OperationRequest{OperationType: "DEPOSIT", Amount: "1000.00"}},
		{name: "withdraw with spaces", req: OperationRequest{OperationType: " WITHDRAW ", Amount: " 0.01 "}},
		{name: "lowercase type", req: OperationRequest{OperationType: "deposit", Amount: "1.00"}, wantField: "operation_type", wantErr: ErrInvalidOperationType},
		{name: "unknown type", req: OperationRequest{OperationType: "TRANSFER", Amount: "1.00"}, wantField: "operation_type", wantErr: ErrInvalidOperationType},
		{name: "three decimals", req: OperationRequest{OperationType: "DEPOSIT", Amount: "10.005"}, wantField: "amount", wantErr: money.ErrInvalidFormat},
		{name: "not a number", req: OperationRequest{OperationType: "DEPOSIT", Amount: "ten"}, wantField: "amount", wantErr: money.ErrInvalidFormat},
		{name: "zero", req: OperationRequest{OperationType: "DEPOSIT", Amount: "0.00"}, wantField: "amount", wantErr: ErrInvalidAmount},
		{name: "negative", req: OperationRequest{OperationType: "WITHDRAW", Amount: "-5.00"}, wantField: "amount", wantErr: ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op, err := v.ValidateShape(tc.req)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, op.Type.Valid())
				assert.True(t, op.Amount.IsPositive())
				return
			}
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected *FieldError, got %v", err)
			assert.Equal(t, tc.wantField, fe.Field)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateShapeAllowsNonPositiveWhenConfigured(t *testing.T) {
	v := NewValidator(false)
	op, err := v.ValidateShape(OperationRequest{OperationType: "DEPOSIT", Amount: "0.00"})
	require.NoError(t, err)
	assert.True(t, op.Amount.IsZero())
}
