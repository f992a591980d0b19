package payoutservice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/payments"
	payoutrepo "github.com/lumeva/creditcore/internal/repo/payout-repo"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=payoutservice.go -destination=payoutservice_mock.go -package=payoutservice

type PayoutRepo interface {
	Create(ctx context.Context, record *domain.PayoutRecord) error
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.PayoutRecord, error)
	UpdateStatus(ctx context.Context, id int64, status domain.PayoutStatus, externalTransferID string) error
	FindByRunID(ctx context.Context, runID string) ([]domain.PayoutRecord, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) error
}

type LedgerRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
}

type WalletLedger interface {
	EligibleForPayout(ctx context.Context, minCents int64, limit uint32) ([]domain.Wallet, error)
	CompareAndSwap(ctx context.Context, userID int64, field walletservice.BalanceField, expected, target int64) (bool, error)
	Increment(ctx context.Context, userID int64, field walletservice.BalanceField, delta int64) error
}

type TransferProvider interface {
	CreateTransfer(ctx context.Context, accountID string, amountCents int64, idempotencyKey string) (*payments.Transfer, error)
}

const (
	selectionLimit = 1000
	workerPoolSize = 10
)

// processingUsers guards against two overlapping runs paying the same
// wallet at once.
var processingUsers sync.Map

// RunSummary reports what a single batch run did.
type RunSummary struct {
	RunID       string `json:"run_id"`
	Eligible    int    `json:"eligible"`
	Transferred int    `json:"transferred"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

type Service struct {
	payoutRepo      PayoutRepo
	transactionRepo TransactionRepo
	ledgerRepo      LedgerRepo
	wallets         WalletLedger
	transfers       TransferProvider
	workerPool      WorkerPoolI
	minPayoutCents  int64
}

func New(
	payoutRepo PayoutRepo,
	transactionRepo TransactionRepo,
	ledgerRepo LedgerRepo,
	wallets WalletLedger,
	transfers TransferProvider,
	minPayoutCents int64,
) *Service {
	return &Service{
		payoutRepo:      payoutRepo,
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		wallets:         wallets,
		transfers:       transfers,
		workerPool:      NewWorkerPool(workerPoolSize),
		minPayoutCents:  minPayoutCents,
	}
}

// Run pays out every wallet at or above the minimum. The run id keys every
// record and transfer, so retrying a run resumes it instead of paying twice.
func (s *Service) Run(ctx context.Context, runID string) (*RunSummary, error) {
	wallets, err := s.wallets.EligibleForPayout(ctx, s.minPayoutCents, selectionLimit)
	if err != nil {
		zap.L().Error("failed to select wallets for payout", zap.String("runID", runID), zap.Error(err))
		return nil, err
	}

	summary := &RunSummary{RunID: runID, Eligible: len(wallets)}
	var mu sync.Mutex
	var g errgroup.Group

	for _, wallet := range wallets {
		wallet := wallet

		if _, loaded := processingUsers.LoadOrStore(wallet.UserID, struct{}{}); loaded {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			err := s.workerPool.Do(ctx, func() error {
				defer processingUsers.Delete(wallet.UserID)

				err := s.payoutOne(ctx, runID, wallet)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					summary.Transferred++
				case errors.Is(err, errSkipped):
					summary.Skipped++
				default:
					summary.Failed++
					zap.L().Error("payout failed",
						zap.String("runID", runID),
						zap.Int64("userID", wallet.UserID),
						zap.Error(err),
					)
				}
				return nil
			})
			if err != nil {
				processingUsers.Delete(wallet.UserID)
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	zap.L().Info("payout run finished",
		zap.String("runID", runID),
		zap.Int("eligible", summary.Eligible),
		zap.Int("transferred", summary.Transferred),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// errSkipped marks a wallet intentionally left alone by this run.
var errSkipped = errors.New("payout skipped")

func (s *Service) payoutOne(ctx context.Context, runID string, wallet domain.Wallet) error {
	if wallet.PayoutAccountID == nil || *wallet.PayoutAccountID == "" {
		zap.L().Info("skipping payout, no payout account", zap.Int64("userID", wallet.UserID))
		return errSkipped
	}
	if !wallet.PayoutEnabled {
		zap.L().Info("skipping payout, transfers not enabled", zap.Int64("userID", wallet.UserID))
		return errSkipped
	}

	key := fmt.Sprintf("%s:%d", runID, wallet.UserID)
	existing, err := s.payoutRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		// Any prior record pins the account for this run id, failed
		// ones included: their refund restored the earnings and a run
		// with a fresh id picks the account up again.
		zap.L().Info("skipping payout, record already exists",
			zap.Int64("userID", wallet.UserID),
			zap.String("status", string(existing.Status)),
		)
		return errSkipped
	}

	record := &domain.PayoutRecord{
		RunID:          runID,
		UserID:         wallet.UserID,
		AmountCents:    wallet.EarningsCents,
		Status:         domain.PayoutPending,
		IdempotencyKey: key,
	}
	if err := s.payoutRepo.Create(ctx, record); err != nil {
		if errors.Is(err, payoutrepo.ErrDuplicateKey) {
			return errSkipped
		}
		return err
	}
	if err := s.payoutRepo.UpdateStatus(ctx, record.ID, domain.PayoutProcessing, ""); err != nil {
		return err
	}

	// Fail closed on drift: pay out only the amount read at selection.
	debited, err := s.wallets.CompareAndSwap(ctx, wallet.UserID, walletservice.FieldEarnings, wallet.EarningsCents, 0)
	if err != nil {
		if markErr := s.payoutRepo.UpdateStatus(ctx, record.ID, domain.PayoutFailed, ""); markErr != nil {
			zap.L().Error("failed to mark payout record failed", zap.Int64("recordID", record.ID), zap.Error(markErr))
		}
		return err
	}
	if !debited {
		zap.L().Warn("skipping payout, earnings changed since selection",
			zap.Int64("userID", wallet.UserID),
			zap.Int64("expectedCents", wallet.EarningsCents),
		)
		if err := s.payoutRepo.UpdateStatus(ctx, record.ID, domain.PayoutFailed, ""); err != nil {
			return err
		}
		return errSkipped
	}

	transfer, err := s.transfers.CreateTransfer(ctx, *wallet.PayoutAccountID, wallet.EarningsCents, key)
	if err != nil {
		s.refund(ctx, wallet.UserID, wallet.EarningsCents, key)
		if markErr := s.payoutRepo.UpdateStatus(ctx, record.ID, domain.PayoutFailed, ""); markErr != nil {
			zap.L().Error("failed to mark payout record failed", zap.Int64("recordID", record.ID), zap.Error(markErr))
		}
		return err
	}

	if err := s.payoutRepo.UpdateStatus(ctx, record.ID, domain.PayoutCompleted, transfer.ID); err != nil {
		return err
	}

	if err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:        wallet.UserID,
		Type:          domain.TxPayout,
		USDCentsDelta: -wallet.EarningsCents,
		ExternalRef:   transfer.ID,
		Status:        domain.TxStatusCompleted,
		Description:   "earnings payout",
	}); err != nil {
		zap.L().Error("failed to record payout transaction", zap.Int64("userID", wallet.UserID), zap.Error(err))
		return err
	}
	if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
		UserID:        wallet.UserID,
		USDCentsDelta: -wallet.EarningsCents,
		Reference:     transfer.ID,
		Description:   "earnings payout",
	}); err != nil {
		zap.L().Error("failed to record payout ledger entry", zap.Int64("userID", wallet.UserID), zap.Error(err))
		return err
	}

	zap.L().Info("payout completed",
		zap.Int64("userID", wallet.UserID),
		zap.Int64("amountCents", wallet.EarningsCents),
		zap.String("transferID", transfer.ID),
	)
	return nil
}

// refund returns debited earnings after a failed transfer. A refund
// failure leaves money stuck rather than duplicated, so it is logged for
// manual intervention instead of retried blindly.
func (s *Service) refund(ctx context.Context, userID, amountCents int64, key string) {
	if err := s.wallets.Increment(ctx, userID, walletservice.FieldEarnings, amountCents); err != nil {
		zap.L().Error("manual reconciliation required: transfer failed and refund did not apply",
			zap.Int64("userID", userID),
			zap.Int64("amountCents", amountCents),
			zap.String("idempotencyKey", key),
			zap.Error(err),
		)
	}
}

// RunRecords lists the payout records of one run.
func (s *Service) RunRecords(ctx context.Context, runID string) ([]domain.PayoutRecord, error) {
	return s.payoutRepo.FindByRunID(ctx, runID)
}
