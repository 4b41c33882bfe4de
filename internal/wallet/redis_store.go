package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_api/internal/money"
)

const (
	redisIndexKey       = "wallets"
	redisFieldBalance   = "balance"
	redisFieldCreatedAt = "created_at"

	defaultRedisLockTTL    = 5 * time.Second
	defaultRedisRetryDelay = 5 * time.Millisecond
)

// Only the holder of the token may delete the lock.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// The balance is written only while the caller still owns the lock.
var writeBalanceScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[2], "balance", ARGV[2])
return 1
`)

// RedisOptions tunes the wallet lock used by RedisStore.
type RedisOptions struct {
	// LockTTL bounds how long a crashed holder can keep a wallet locked.
	LockTTL time.Duration
	// RetryDelay is the pause between lock acquisition attempts.
	RetryDelay time.Duration
}

// RedisStore keeps wallets in Redis hashes. Each wallet is guarded by a lock key
// set with SET NX PX and a random token, so several API instances can share one
// Redis and still serialise operations per wallet.
type RedisStore struct {
	client redis.UniversalClient
	opts   RedisOptions
	now    func() time.Time
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultRedisLockTTL
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRedisRetryDelay
	}
	return &RedisStore{client: client, opts: opts, now: func() time.Time { return time.Now().UTC() }}
}

func walletKey(id string) string { return "wallet:" + id }

func walletLockKey(id string) string { return "wallet:" + id + ":lock" }

func (s *RedisStore) Create(ctx context.Context, initial money.Money) (Snapshot, error) {
	if initial.IsNegative() {
		return Snapshot{}, ErrInvalidBalance
	}
	id := uuid.NewString()
	createdAt := s.now()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, walletKey(id),
			redisFieldBalance, initial.String(),
			redisFieldCreatedAt, createdAt.Format(time.RFC3339Nano),
		)
		pipe.RPush(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("create wallet: %w", err)
	}
	return Snapshot{ID: id, Balance: initial, CreatedAt: createdAt}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Snapshot{}, ErrWalletNotFound
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return w.Snapshot(), nil
}

func (s *RedisStore) List(ctx context.Context) ([]Snapshot, error) {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, walletKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	out := make([]Snapshot, 0, len(ids))
	for i, id := range ids {
		w, err := decodeWallet(id, cmds[i].Val())
		if err != nil {
			return nil, err
		}
		out = append(out, w.Snapshot())
	}
	return out, nil
}

func (s *RedisStore) WithLock(ctx context.Context, id string, fn func(w *Wallet) error) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrWalletNotFound
	}
	n, err := s.client.Exists(ctx, walletKey(id)).Result()
	if err != nil {
		return fmt.Errorf("lookup wallet: %w", err)
	}
	if n == 0 {
		return ErrWalletNotFound
	}

	token := uuid.NewString()
	if err := s.acquire(ctx, id, token); err != nil {
		return err
	}
	defer s.release(context.WithoutCancel(ctx), id, token)

	w, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	before := w.Balance

	if err := fn(&w); err != nil {
		return err
	}
	if w.Balance.Cmp(before) == 0 {
		return nil
	}

	written, err := writeBalanceScript.Run(ctx, s.client,
		[]string{walletLockKey(id), walletKey(id)}, token, w.Balance.String()).Int()
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	if written == 0 {
		return ErrLockLost
	}
	return nil
}

func (s *RedisStore) acquire(ctx context.Context, id, token string) error {
	for {
		ok, err := s.client.SetNX(ctx, walletLockKey(id), token, s.opts.LockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire wallet lock: %w", err)
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(s.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *RedisStore) release(ctx context.Context, id, token string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = releaseLockScript.Run(ctx, s.client, []string{walletLockKey(id)}, token).Err()
}

func (s *RedisStore) load(ctx context.Context, id string) (Wallet, error) {
	fields, err := s.client.HGetAll(ctx, walletKey(id)).Result()
	if err != nil {
		return Wallet{}, fmt.Errorf("load wallet: %w", err)
	}
	return decodeWallet(id, fields)
}

func decodeWallet(id string, fields map[string]string) (Wallet, error) {
	if len(fields) == 0 {
		return Wallet{}, ErrWalletNotFound
	}
	balance, err := money.Parse(fields[redisFieldBalance])
	if err != nil {
		return Wallet{}, fmt.Errorf("decode wallet %s balance: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[redisFieldCreatedAt])
	if err != nil {
		return Wallet{}, fmt.Errorf("decode wallet %s created_at: %w", id, err)
	}
	return Wallet{ID: id, Balance: balance, CreatedAt: createdAt.UTC()}, nil
}
