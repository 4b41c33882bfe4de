package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/congo-pay/wallet_api/internal/money"
)

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	insertWalletSQL    = `INSERT INTO wallets (id, balance, created_at) VALUES ($1, $2, $3)`
	selectWalletSQL    = `SELECT id::text, balance::text, created_at FROM wallets WHERE id = $1`
	selectForUpdateSQL = selectWalletSQL + ` FOR UPDATE`
	listWalletsSQL     = `SELECT id::text, balance::text, created_at FROM wallets ORDER BY seq`
	updateBalanceSQL   = `UPDATE wallets SET balance = $1 WHERE id = $2`
)

// PostgresStore keeps wallets in PostgreSQL. The per-wallet lock is the row lock
// taken by SELECT ... FOR UPDATE inside a transaction.
type PostgresStore struct {
	db  PgxPool
	now func() time.Time
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db PgxPool) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PostgresStore) Create(ctx context.Context, initial money.Money) (Snapshot, error) {
	if initial.IsNegative() {
		return Snapshot{}, ErrInvalidBalance
	}
	id := uuid.New()
	createdAt := s.now()
	if _, err := s.db.Exec(ctx, insertWalletSQL, id, initial.String(), createdAt); err != nil {
		return Snapshot{}, fmt.Errorf("insert wallet: %w", err)
	}
	return Snapshot{ID: id.String(), Balance: initial, CreatedAt: createdAt}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Snapshot, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Snapshot{}, ErrWalletNotFound
	}
	w, err := scanWallet(s.db.QueryRow(ctx, selectWalletSQL, walletID))
	if err != nil {
		return Snapshot{}, err
	}
	return w.Snapshot(), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.Query(ctx, listWalletsSQL)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w.Snapshot())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) WithLock(ctx context.Context, id string, fn func(w *Wallet) error) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrWalletNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin wallet tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	w, err := scanWallet(tx.QueryRow(ctx, selectForUpdateSQL, walletID))
	if err != nil {
		return err
	}
	before := w.Balance

	if err := fn(&w); err != nil {
		return err
	}

	if w.Balance.Cmp(before) != 0 {
		if _, err := tx.Exec(ctx, updateBalanceSQL, w.Balance.String(), walletID); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit wallet tx: %w", err)
	}
	committed = true
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		balance   string
		createdAt time.Time
	)
	if err := row.Scan(&w.ID, &balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	amount, err := money.Parse(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("scan wallet %s balance: %w", w.ID, err)
	}
	w.Balance = amount
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
