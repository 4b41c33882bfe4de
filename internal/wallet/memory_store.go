package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/wallet_api/internal/money"
)

// MemoryStore keeps wallets in process memory.
//
// The registry lock guards only the map and the insertion order and is never
// held while a wallet lock is being acquired. Each wallet carries its own lock:
// WithLock takes it exclusively, snapshots take it shared.
type MemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]*memoryEntry
	order   []string
	now     func() time.Time
}

type memoryEntry struct {
	mu     sync.RWMutex
	wallet Wallet
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets: make(map[string]*memoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, initial money.Money) (Snapshot, error) {
	if initial.IsNegative() {
		return Snapshot{}, ErrInvalidBalance
	}
	entry := &memoryEntry{wallet: Wallet{
		ID:        uuid.NewString(),
		Balance:   initial,
		CreatedAt: s.now(),
	}}
	// Taken before publishing: once in the map the entry belongs to its lock.
	snap := entry.wallet.Snapshot()

	s.mu.Lock()
	s.wallets[snap.ID] = entry
	s.order = append(s.order, snap.ID)
	s.mu.Unlock()

	return snap, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Snapshot, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return Snapshot{}, ErrWalletNotFound
	}
	return entry.snapshot(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]Snapshot, error) {
	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.wallets[id])
	}
	s.mu.RUnlock()

	out := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.snapshot())
	}
	return out, nil
}

func (s *MemoryStore) WithLock(_ context.Context, id string, fn func(w *Wallet) error) error {
	entry, ok := s.lookup(id)
	if !ok {
		return ErrWalletNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// fn works on a copy so a failed callback cannot leave a partial update behind.
	working := entry.wallet
	if err := fn(&working); err != nil {
		return err
	}
	entry.wallet.Balance = working.Balance
	return nil
}

func (s *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.wallets[id]
	return entry, ok
}

func (e *memoryEntry) snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wallet.Snapshot()
}
