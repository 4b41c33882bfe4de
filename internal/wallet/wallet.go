package wallet

import (
	"fmt"

	"github.com/congo-pay/wallet_api/internal/money"
)

// ApplyLocked applies op to the balance and returns the new balance. The caller
// must hold the wallet's exclusive lock (see Store.WithLock): the funds check and
// the write below read and update the same balance value.
//
// On any error the balance is left untouched.
func (w *Wallet) ApplyLocked(op OperationType, amount money.Money) (money.Money, error) {
	var (
		next money.Money
		err  error
	)
	switch op {
	case Deposit:
		next, err = w.Balance.Add(amount)
	case Withdraw:
		if amount.Cmp(w.Balance) > 0 {
			return w.Balance, ErrInsufficientFunds
		}
		next, err = w.Balance.Sub(amount)
	default:
		return w.Balance, fmt.Errorf("%w: %q", ErrInvalidOperationType, op)
	}
	if err != nil {
		return w.Balance, err
	}
	if next.IsNegative() {
		return w.Balance, money.ErrUnderflow
	}
	w.Balance = next
	return next, nil
}
