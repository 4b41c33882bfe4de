package wallet

import (
	"context"

	"github.com/congo-pay/wallet_api/internal/money"
)

// Store owns the canonical set of wallets and serialises mutations per wallet.
//
// WithLock is the only path through which Wallet.ApplyLocked may run. It resolves
// the wallet, takes that wallet's exclusive lock, calls fn synchronously, persists
// the wallet if fn returned nil and releases the lock on every exit path. Locks
// are scoped to one wallet: operations on different wallets never wait on each other.
type Store interface {
	Create(ctx context.Context, initial money.Money) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	WithLock(ctx context.Context, id string, fn func(w *Wallet) error) error
}

// Locked runs fn under the wallet lock and returns its result.
func Locked[T any](ctx context.Context, s Store, id string, fn func(w *Wallet) (T, error)) (T, error) {
	var out T
	err := s.WithLock(ctx, id, func(w *Wallet) error {
		res, err := fn(w)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}
