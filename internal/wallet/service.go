package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/congo-pay/wallet_api/internal/metrics"
	"github.com/congo-pay/wallet_api/internal/money"
)

// Service exposes wallet operations backed by a Store.
type Service struct {
	store     Store
	validator Validator
	logger    *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(store Store, validator Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, validator: validator, logger: logger}
}

// Apply validates req and applies it to the wallet under that wallet's lock.
//
// Shape failures are returned as ErrInvalidRequest wrapping a *FieldError. A
// withdrawal larger than the balance is a *FieldError on the amount field
// wrapping ErrInsufficientFunds. Panics raised while applying are reported as
// ErrInternal.
func (s *Service) Apply(ctx context.Context, walletID string, req OperationRequest) (snap Snapshot, err error) {
	start := time.Now()
	label := operationLabel(req.OperationType)
	defer func() {
		metrics.RecordOperation(label, resultLabel(err), time.Since(start).Seconds())
	}()
	defer s.recoverInternal("apply", &err, "wallet_id", walletID, "operation", label)

	op, err := s.validator.ValidateShape(req)
	if err != nil {
		s.logger.Debug("wallet operation rejected", "wallet_id", walletID, "operation", label, "error", err)
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	snap, err = Locked(ctx, s.store, walletID, func(w *Wallet) (Snapshot, error) {
		if _, err := w.ApplyLocked(op.Type, op.Amount); err != nil {
			return Snapshot{}, err
		}
		return w.Snapshot(), nil
	})
	if err != nil {
		return Snapshot{}, s.operationError(walletID, op, err)
	}

	s.logger.Info("wallet operation applied",
		"wallet_id", walletID,
		"operation", string(op.Type),
		"amount", op.Amount.String(),
		"balance", snap.Balance.String(),
	)
	return snap, nil
}

// recoverInternal turns a panic in the calling method into ErrInternal.
func (s *Service) recoverInternal(method string, err *error, attrs ...any) {
	r := recover()
	if r == nil {
		return
	}
	s.logger.Error("wallet service panicked", append([]any{"method", method, "panic", r}, attrs...)...)
	*err = ErrInternal
}

func (s *Service) operationError(walletID string, op Operation, err error) error {
	attrs := []any{"wallet_id", walletID, "operation", string(op.Type), "amount", op.Amount.String(), "error", err}
	switch {
	case errors.Is(err, ErrWalletNotFound):
		s.logger.Debug("wallet operation on unknown wallet", attrs...)
		return ErrWalletNotFound
	case errors.Is(err, ErrInsufficientFunds):
		s.logger.Info("wallet operation declined", attrs...)
		return &FieldError{Field: fieldAmount, Err: ErrInsufficientFunds}
	case errors.Is(err, money.ErrOverflow), errors.Is(err, money.ErrUnderflow):
		s.logger.Warn("wallet operation out of range", attrs...)
		return &FieldError{Field: fieldAmount, Err: err}
	default:
		s.logger.Error("wallet operation failed", attrs...)
		return err
	}
}

// GetBalance returns the current balance of a wallet.
func (s *Service) GetBalance(ctx context.Context, walletID string) (money.Money, error) {
	snap, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return money.Money{}, err
	}
	return snap.Balance, nil
}

// GetWallet returns a consistent snapshot of a wallet.
func (s *Service) GetWallet(ctx context.Context, walletID string) (snap Snapshot, err error) {
	defer s.recoverInternal("get", &err, "wallet_id", walletID)
	snap, err = s.store.Get(ctx, walletID)
	if err != nil {
		if !errors.Is(err, ErrWalletNotFound) {
			s.logger.Error("get wallet", "wallet_id", walletID, "error", err)
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// CreateWallet provisions a wallet with the given opening balance.
func (s *Service) CreateWallet(ctx context.Context, initial money.Money) (snap Snapshot, err error) {
	defer s.recoverInternal("create", &err)
	snap, err = s.store.Create(ctx, initial)
	if err != nil {
		if !errors.Is(err, ErrInvalidBalance) {
			s.logger.Error("create wallet", "error", err)
		}
		return Snapshot{}, err
	}
	metrics.RecordWalletCreated()
	s.logger.Info("wallet created", "wallet_id", snap.ID, "balance", snap.Balance.String())
	return snap, nil
}

// ListWallets returns every wallet in creation order.
func (s *Service) ListWallets(ctx context.Context) (wallets []Snapshot, err error) {
	defer s.recoverInternal("list", &err)
	wallets, err = s.store.List(ctx)
	if err != nil {
		s.logger.Error("list wallets", "error", err)
		return nil, err
	}
	return wallets, nil
}

// operationLabel keeps metric label values bounded to the known types.
func operationLabel(raw string) string {
	t := OperationType(strings.TrimSpace(raw))
	if t.Valid() {
		return string(t)
	}
	return "invalid"
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrWalletNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return metrics.ResultFailure
	}
}
