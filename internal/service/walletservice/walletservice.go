package walletservice

import (
	"context"
	"errors"
	"time"

	"github.com/lumeva/creditcore/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=walletservice.go -destination=walletservice_mock.go -package=walletservice

type WalletRepo interface {
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	EnsureWallet(ctx context.Context, userID int64) error
	IncrementCredits(ctx context.Context, userID int64, delta int64) (bool, error)
	IncrementEarnings(ctx context.Context, userID int64, deltaCents int64) (bool, error)
	CompareAndSwapCredits(ctx context.Context, userID int64, expected, target int64) (bool, error)
	CompareAndSwapEarnings(ctx context.Context, userID int64, expectedCents, targetCents int64) (bool, error)
	FindEligibleForPayout(ctx context.Context, minCents int64, limit uint32) ([]domain.Wallet, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByExternalRef(ctx context.Context, externalRef string, txType domain.TransactionType) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus) error
	FindByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error)
}

type LedgerRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	FindByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error)
}

// BalanceField selects which of the two wallet balances an increment
// targets.
type BalanceField string

const (
	FieldCredits  BalanceField = "credits"
	FieldEarnings BalanceField = "earnings"
)

const (
	casMaxAttempts   = 3
	casRetryInterval = 50 * time.Millisecond
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrContention          = errors.New("balance update lost the race, retry")
	ErrUnknownField        = errors.New("unknown balance field")
)

type Service struct {
	walletRepo      WalletRepo
	transactionRepo TransactionRepo
}

func New(walletRepo WalletRepo, transactionRepo TransactionRepo) *Service {
	return &Service{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *Service) EnsureWallet(ctx context.Context, userID int64) error {
	return s.walletRepo.EnsureWallet(ctx, userID)
}

func (s *Service) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWallet(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// Increment applies delta to one of the wallet balances using the
// server-side atomic increment. A debit that would overdraw returns
// ErrInsufficientBalance and applies nothing. A credit to a missing wallet
// lazily creates it and retries once.
func (s *Service) Increment(ctx context.Context, userID int64, field BalanceField, delta int64) error {
	applied, err := s.increment(ctx, userID, field, delta)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	wallet, err := s.walletRepo.GetWallet(ctx, userID)
	if err != nil {
		return err
	}
	if wallet != nil {
		// Wallet exists, so the non-negative guard rejected the debit.
		return ErrInsufficientBalance
	}
	if delta < 0 {
		return ErrWalletNotFound
	}

	if err := s.walletRepo.EnsureWallet(ctx, userID); err != nil {
		return err
	}
	applied, err = s.increment(ctx, userID, field, delta)
	if err != nil {
		return err
	}
	if !applied {
		return ErrContention
	}
	return nil
}

func (s *Service) increment(ctx context.Context, userID int64, field BalanceField, delta int64) (bool, error) {
	switch field {
	case FieldCredits:
		return s.walletRepo.IncrementCredits(ctx, userID, delta)
	case FieldEarnings:
		return s.walletRepo.IncrementEarnings(ctx, userID, delta)
	default:
		return false, ErrUnknownField
	}
}

// IncrementWithCAS is the optimistic-concurrency rendition of Increment
// for stores without a server-side atomic increment: read the balance,
// write the target conditioned on the read value, retry a bounded number
// of times on conflict. Exhausting the retries surfaces ErrContention
// rather than dropping the delta.
func (s *Service) IncrementWithCAS(ctx context.Context, userID int64, field BalanceField, delta int64) error {
	for attempt := 1; attempt <= casMaxAttempts; attempt++ {
		wallet, err := s.walletRepo.GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return ErrWalletNotFound
		}

		var current int64
		switch field {
		case FieldCredits:
			current = wallet.CreditBalance
		case FieldEarnings:
			current = wallet.EarningsCents
		default:
			return ErrUnknownField
		}

		target := current + delta
		if target < 0 {
			return ErrInsufficientBalance
		}

		swapped, err := s.compareAndSwap(ctx, userID, field, current, target)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}

		zap.L().Warn("balance CAS conflict, retrying",
			zap.Int64("userID", userID),
			zap.String("field", string(field)),
			zap.Int("attempt", attempt),
		)
		if attempt < casMaxAttempts {
			time.Sleep(casRetryInterval * time.Duration(attempt))
		}
	}
	return ErrContention
}

// CompareAndSwap exposes a single conditional write for callers that must
// fail closed when the balance drifted from a previously observed value.
func (s *Service) CompareAndSwap(ctx context.Context, userID int64, field BalanceField, expected, target int64) (bool, error) {
	return s.compareAndSwap(ctx, userID, field, expected, target)
}

func (s *Service) compareAndSwap(ctx context.Context, userID int64, field BalanceField, expected, target int64) (bool, error) {
	switch field {
	case FieldCredits:
		return s.walletRepo.CompareAndSwapCredits(ctx, userID, expected, target)
	case FieldEarnings:
		return s.walletRepo.CompareAndSwapEarnings(ctx, userID, expected, target)
	default:
		return false, ErrUnknownField
	}
}

func (s *Service) EligibleForPayout(ctx context.Context, minCents int64, limit uint32) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.FindEligibleForPayout(ctx, minCents, limit)
	if err != nil {
		zap.L().Error("failed to list wallets eligible for payout", zap.Error(err))
		return nil, err
	}
	return wallets, nil
}

func (s *Service) Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	transactions, err := s.transactionRepo.FindByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	return transactions, nil
}
