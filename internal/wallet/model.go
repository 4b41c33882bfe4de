package wallet

import (
	"time"

	"github.com/congo-pay/wallet_api/internal/money"
)

// OperationType names a balance mutation.
type OperationType string

const (
	Deposit  OperationType = "DEPOSIT"
	Withdraw OperationType = "WITHDRAW"
)

// Valid reports whether t is a recognised operation type.
func (t OperationType) Valid() bool {
	return t == Deposit || t == Withdraw
}

// Wallet is the canonical, mutable wallet state owned by a Store. Callers outside
// the store only ever see Snapshots.
type Wallet struct {
	ID        string
	Balance   money.Money
	CreatedAt time.Time
}

// Snapshot is an immutable copy of wallet state taken at one instant.
type Snapshot struct {
	ID        string
	Balance   money.Money
	CreatedAt time.Time
}

// Snapshot copies the current state.
func (w *Wallet) Snapshot() Snapshot {
	return Snapshot{ID: w.ID, Balance: w.Balance, CreatedAt: w.CreatedAt}
}

// OperationRequest is the raw, unvalidated operation as received from a caller.
type OperationRequest struct {
	OperationType string
	Amount        string
}

// Operation is an OperationRequest that passed shape validation.
type Operation struct {
	Type   OperationType
	Amount money.Money
}
