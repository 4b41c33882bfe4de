package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_api/internal/money"
)

func TestMemoryStoreCreateGetList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var ids []string
	for _, b := range []string{"0.00", "10.00", "0.50"} {
		snap, err := store.Create(ctx, money.MustParse(b))
		require.NoError(t, err)
		assert.Equal(t, b, snap.Balance.String())
		assert.False(t, snap.CreatedAt.IsZero())
		ids = append(ids, snap.ID)
	}

	got, err := store.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.Balance.String())

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, s := range list {
		assert.Equal(t, ids[i], s.ID)
	}
}

func TestMemoryStoreRejectsNegativeBalance(t *testing.T) {
	_, err := NewMemoryStore().Create(context.Background(), money.MustParse("-1.00"))
	assert.ErrorIs(t, err, ErrInvalidBalance)
}

func TestMemoryStoreUnknownWallet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrWalletNotFound)

	called := false
	err = store.WithLock(ctx, "missing", func(*Wallet) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrWalletNotFound)
	assert.False(t, called)
}

func TestMemoryStoreWithLockDiscardsFailedMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snap, err := store.Create(ctx, money.MustParse("5.00"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithLock(ctx, snap.ID, func(w *Wallet) error {
		w.Balance = money.MustParse("999.00")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", got.Balance.String())
}

func TestMemoryStoreReleasesLockAfterPanic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snap, err := store.Create(ctx, money.Zero)
	require.NoError(t, err)

	func() {
		defer func() { _ = recover() }()
		_ = store.WithLock(ctx, snap.ID, func(*Wallet) error { panic("boom") })
	}()

	done := make(chan error, 1)
	go func() {
		done <- store.WithLock(ctx, snap.ID, func(w *Wallet) error {
			_, err := w.ApplyLocked(Deposit, money.MustParse("1.00"))
			return err
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wallet lock was not released after panic")
	}
}

func TestMemoryStoreConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snap, err := store.Create(ctx, money.Zero)
	require.NoError(t, err)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := Locked(ctx, store, snap.ID, func(w *Wallet) (money.Money, error) {
				return w.ApplyLocked(Deposit, money.MustParse("0.01"))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.00", got.Balance.String())
}

func TestMemoryStoreWalletsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, err := store.Create(ctx, money.Zero)
	require.NoError(t, err)
	b, err := store.Create(ctx, money.MustParse("3.00"))
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.WithLock(ctx, a.ID, func(*Wallet) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	done := make(chan error, 1)
	go func() {
		done <- store.WithLock(ctx, b.ID, func(w *Wallet) error {
			_, err := w.ApplyLocked(Withdraw, money.MustParse("1.00"))
			return err
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("operation on wallet B waited for wallet A")
	}

	// Creation and reads must not wait on a held wallet lock either.
	_, err = store.Create(ctx, money.Zero)
	require.NoError(t, err)
	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.00", got.Balance.String())
}

func TestMemoryStoreCreateSnapshotWhileOthersMutate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	initial := money.MustParse("1.00")
	one := money.MustParse("1.00")

	done := make(chan struct{})
	var mutators sync.WaitGroup
	for i := 0; i < 4; i++ {
		mutators.Add(1)
		go func() {
			defer mutators.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				wallets, err := store.List(ctx)
				if err != nil {
					return
				}
				for _, w := range wallets {
					_ = store.WithLock(ctx, w.ID, func(w *Wallet) error {
						_, err := w.ApplyLocked(Deposit, one)
						return err
					})
				}
			}
		}()
	}

	var creators sync.WaitGroup
	snaps := make(chan Snapshot, 200)
	for i := 0; i < 200; i++ {
		creators.Add(1)
		go func() {
			defer creators.Done()
			snap, err := store.Create(ctx, initial)
			if err == nil {
				snaps <- snap
			}
		}()
	}
	creators.Wait()
	close(done)
	mutators.Wait()
	close(snaps)

	count := 0
	for snap := range snaps {
		count++
		assert.Equal(t, initial, snap.Balance, snap.ID)
	}
	assert.Equal(t, 200, count)
}
