package volleyservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pricing"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"go.uber.org/zap"
)

//go:generate mockgen -source=volleyservice.go -destination=volleyservice_mock.go -package=volleyservice

type MessageRepo interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindLatestUnbilled(ctx context.Context, senderID, recipientID int64, since time.Time) (*domain.Message, error)
	MarkBilled(ctx context.Context, messageID int64) (bool, error)
	FindByUserID(ctx context.Context, userID int64) ([]domain.Message, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) error
}

type LedgerRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
}

type WalletLedger interface {
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	Increment(ctx context.Context, userID int64, field walletservice.BalanceField, delta int64) error
	CompareAndSwap(ctx context.Context, userID int64, field walletservice.BalanceField, expected, target int64) (bool, error)
}

// Credit cost of a billed message by kind.
const (
	TextMessageCredits  = 1
	MediaMessageCredits = 3
)

var (
	ErrInvalidKind  = errors.New("unknown message kind")
	ErrSelfMessage  = errors.New("sender and recipient are the same account")
	ErrInconsistent = errors.New("volley billing left balances inconsistent, manual reconciliation required")
)

type Service struct {
	messageRepo     MessageRepo
	transactionRepo TransactionRepo
	ledgerRepo      LedgerRepo
	wallets         WalletLedger
	calc            *pricing.Calculator
	window          time.Duration
}

func New(
	messageRepo MessageRepo,
	transactionRepo TransactionRepo,
	ledgerRepo LedgerRepo,
	wallets WalletLedger,
	calc *pricing.Calculator,
	window time.Duration,
) *Service {
	return &Service{
		messageRepo:     messageRepo,
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		wallets:         wallets,
		calc:            calc,
		window:          window,
	}
}

// RecordMessage stores the message and, when it qualifies as a reply,
// bills the most recent unbilled message of the counterparty. Returns the
// credits charged to the counterparty, zero when the reply is free.
func (s *Service) RecordMessage(ctx context.Context, senderID, recipientID int64, kind domain.MessageKind) (*domain.Message, int64, error) {
	if senderID == recipientID {
		return nil, 0, ErrSelfMessage
	}
	if kind != domain.MessageText && kind != domain.MessageMedia {
		return nil, 0, ErrInvalidKind
	}

	msg := &domain.Message{
		SenderID:      senderID,
		RecipientID:   recipientID,
		Kind:          kind,
		BillingStatus: domain.BillingPending,
		SentAt:        time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, 0, err
	}

	// A reply bills the counterparty's initiating message: the payer is
	// the original sender, the payee is the one replying now.
	cutoff := msg.SentAt.Add(-s.window)
	initiating, err := s.messageRepo.FindLatestUnbilled(ctx, recipientID, senderID, cutoff)
	if err != nil {
		return nil, 0, err
	}
	if initiating == nil {
		// No prior unbilled message in the window: the reply is free.
		return msg, 0, nil
	}

	charged, err := s.billVolley(ctx, initiating, recipientID, senderID)
	if err != nil {
		return nil, 0, err
	}
	return msg, charged, nil
}

func (s *Service) billVolley(ctx context.Context, initiating *domain.Message, payerID, payeeID int64) (int64, error) {
	cost := messageCredits(initiating.Kind)
	_, payeeCents, _, err := s.calc.CreditSplit(float64(cost))
	if err != nil {
		return 0, err
	}

	if err := s.wallets.Increment(ctx, payerID, walletservice.FieldCredits, -cost); err != nil {
		if errors.Is(err, walletservice.ErrInsufficientBalance) || errors.Is(err, walletservice.ErrWalletNotFound) {
			zap.L().Info("volley charge skipped, payer cannot cover it",
				zap.Int64("payerID", payerID),
				zap.Int64("messageID", initiating.ID),
			)
			return 0, nil
		}
		return 0, err
	}

	// Snapshot the post-debit balance: the compensating credit-back is
	// conditioned on it being unchanged.
	postDebit, err := s.wallets.GetWallet(ctx, payerID)
	if err != nil {
		return 0, err
	}

	billed, err := s.messageRepo.MarkBilled(ctx, initiating.ID)
	if err != nil {
		return 0, err
	}
	if !billed {
		// A concurrent reply billed this message first; undo our debit.
		return 0, s.compensate(ctx, payerID, initiating.ID, postDebit, cost, nil)
	}

	if err := s.wallets.Increment(ctx, payeeID, walletservice.FieldEarnings, payeeCents); err != nil {
		return 0, s.compensate(ctx, payerID, initiating.ID, postDebit, cost, err)
	}

	ref := fmt.Sprintf("message:%d", initiating.ID)
	if err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:       payerID,
		Type:         domain.TxVolleyCharge,
		CreditsDelta: -cost,
		ExternalRef:  ref,
		Status:       domain.TxStatusCompleted,
		Description:  "message billed on reply",
	}); err != nil {
		zap.L().Error("failed to record volley charge transaction", zap.Int64("messageID", initiating.ID), zap.Error(err))
		return 0, err
	}
	if err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:        payeeID,
		Type:          domain.TxEarning,
		CreditsDelta:  cost,
		USDCentsDelta: payeeCents,
		ExternalRef:   ref,
		Status:        domain.TxStatusCompleted,
		Description:   "message earnings",
	}); err != nil {
		zap.L().Error("failed to record volley earning transaction", zap.Int64("messageID", initiating.ID), zap.Error(err))
		return 0, err
	}
	if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
		UserID:       payerID,
		CreditsDelta: -cost,
		Reference:    ref,
		Description:  "volley charge",
	}); err != nil {
		zap.L().Error("failed to record volley ledger entry", zap.Int64("messageID", initiating.ID), zap.Error(err))
		return 0, err
	}
	if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
		UserID:        payeeID,
		CreditsDelta:  cost,
		USDCentsDelta: payeeCents,
		Reference:     ref,
		Description:   "volley earnings",
	}); err != nil {
		zap.L().Error("failed to record volley ledger entry", zap.Int64("messageID", initiating.ID), zap.Error(err))
		return 0, err
	}

	return cost, nil
}

// compensate returns the debited credits to the payer, conditioned on the
// balance being unchanged since the debit. A failed compensation is the
// one case that loses funds silently, so it is never swallowed.
func (s *Service) compensate(ctx context.Context, payerID, messageID int64, postDebit *domain.Wallet, cost int64, cause error) error {
	if postDebit == nil {
		zap.L().Error("manual reconciliation required: payer debited but wallet unreadable",
			zap.Int64("payerID", payerID),
			zap.Int64("messageID", messageID),
			zap.Int64("credits", cost),
			zap.Error(cause),
		)
		return ErrInconsistent
	}

	swapped, err := s.wallets.CompareAndSwap(ctx, payerID, walletservice.FieldCredits, postDebit.CreditBalance, postDebit.CreditBalance+cost)
	if err != nil || !swapped {
		zap.L().Error("manual reconciliation required: payer debited, payee credit failed and compensation did not apply",
			zap.Int64("payerID", payerID),
			zap.Int64("messageID", messageID),
			zap.Int64("credits", cost),
			zap.Int64("expectedBalance", postDebit.CreditBalance),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return ErrInconsistent
	}
	return cause
}

func (s *Service) Messages(ctx context.Context, userID int64) ([]domain.Message, error) {
	messages, err := s.messageRepo.FindByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch messages", zap.Error(err))
		return nil, err
	}
	return messages, nil
}

func messageCredits(kind domain.MessageKind) int64 {
	if kind == domain.MessageMedia {
		return MediaMessageCredits
	}
	return TextMessageCredits
}
