package webhookservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/payments"
	"github.com/lumeva/creditcore/internal/pg"
	"github.com/lumeva/creditcore/internal/pricing"
	transactionrepo "github.com/lumeva/creditcore/internal/repo/transaction-repo"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"go.uber.org/zap"
)

//go:generate mockgen -source=webhookservice.go -destination=webhookservice_mock.go -package=webhookservice

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByExternalRef(ctx context.Context, externalRef string, txType domain.TransactionType) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus) error
}

type LedgerRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
}

type WalletLedger interface {
	EnsureWallet(ctx context.Context, userID int64) error
	Increment(ctx context.Context, userID int64, field walletservice.BalanceField, delta int64) error
}

type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
}

type Verifier interface {
	Verify(body []byte, signature string) bool
}

const eventCheckoutCompleted = "checkout.session.completed"

var (
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrInvalidPayload = errors.New("malformed webhook payload")
)

// Event is the processor's payment notification envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentID   string `json:"payment_id"`
		AmountCents int64  `json:"amount_cents"`
		Metadata    struct {
			UserID    int64  `json:"user_id"`
			ProductID string `json:"product_id"`
			Credits   int64  `json:"credits"`
		} `json:"metadata"`
	} `json:"data"`
}

type Service struct {
	transactionRepo TransactionRepo
	ledgerRepo      LedgerRepo
	wallets         WalletLedger
	checkout        CheckoutProvider
	verifier        Verifier
	calc            *pricing.Calculator
	txManager       pg.TXManager
}

func New(
	transactionRepo TransactionRepo,
	ledgerRepo LedgerRepo,
	wallets WalletLedger,
	checkout CheckoutProvider,
	verifier Verifier,
	calc *pricing.Calculator,
	txManager pg.TXManager,
) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		wallets:         wallets,
		checkout:        checkout,
		verifier:        verifier,
		calc:            calc,
		txManager:       txManager,
	}
}

// CreateCheckout opens a purchase session for a credit pack priced through
// the calculator. The session's metadata round-trips back on the webhook.
func (s *Service) CreateCheckout(ctx context.Context, userID int64, productID string, credits int64) (*payments.CheckoutSession, error) {
	if productID == "" || credits <= 0 {
		return nil, ErrInvalidPayload
	}

	amountCents, err := s.calc.GrossCents(float64(credits))
	if err != nil {
		return nil, err
	}

	session, err := s.checkout.CreateCheckout(ctx, payments.CheckoutRequest{
		UserID:      userID,
		ProductID:   productID,
		Credits:     credits,
		AmountCents: amountCents,
	})
	if err != nil {
		zap.L().Error("failed to create checkout session", zap.Int64("userID", userID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// HandleCheckoutCompleted fulfills a credit purchase exactly once despite
// at-least-once webhook delivery. The processing transaction keyed on the
// payment id is the dedup claim: a second delivery either finds it or
// collides on insert, and both count as success.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, body []byte, signature string) error {
	if !s.verifier.Verify(body, signature) {
		return ErrBadSignature
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := validate(&event); err != nil {
		return err
	}

	meta := event.Data.Metadata
	existing, err := s.transactionRepo.FindByExternalRef(ctx, event.Data.PaymentID, domain.TxPurchase)
	if err != nil {
		return err
	}
	if existing != nil {
		zap.L().Info("payment already fulfilled, skipping redelivery",
			zap.String("paymentID", event.Data.PaymentID),
			zap.String("status", string(existing.Status)),
		)
		return nil
	}

	claim := &domain.Transaction{
		UserID:        meta.UserID,
		Type:          domain.TxPurchase,
		CreditsDelta:  meta.Credits,
		USDCentsDelta: event.Data.AmountCents,
		ExternalRef:   event.Data.PaymentID,
		Status:        domain.TxStatusProcessing,
		Description:   "credit pack purchase",
	}
	if err := s.transactionRepo.Create(ctx, claim); err != nil {
		if errors.Is(err, transactionrepo.ErrDuplicateRef) {
			zap.L().Info("concurrent delivery claimed the payment first", zap.String("paymentID", event.Data.PaymentID))
			return nil
		}
		return err
	}

	if err := s.fulfill(ctx, claim, &event); err != nil {
		// The claim must not stay processing forever, or redeliveries
		// would be treated as already fulfilled.
		if markErr := s.transactionRepo.UpdateStatus(ctx, claim.ID, domain.TxStatusFailed); markErr != nil {
			zap.L().Error("failed to mark fulfillment claim failed",
				zap.Int64("transactionID", claim.ID),
				zap.String("paymentID", event.Data.PaymentID),
				zap.Error(markErr),
			)
		}
		return err
	}

	return nil
}

// fulfill writes the credit, the audit entry and the completed mark in one
// transaction, so a partial fulfillment never becomes visible.
func (s *Service) fulfill(ctx context.Context, claim *domain.Transaction, event *Event) error {
	meta := event.Data.Metadata

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.wallets.EnsureWallet(ctx, meta.UserID); err != nil {
			return err
		}
		if err := s.wallets.Increment(ctx, meta.UserID, walletservice.FieldCredits, meta.Credits); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
			UserID:        meta.UserID,
			CreditsDelta:  meta.Credits,
			USDCentsDelta: event.Data.AmountCents,
			Reference:     event.Data.PaymentID,
			Description:   "credit pack purchase",
		}); err != nil {
			return err
		}
		return s.transactionRepo.UpdateStatus(ctx, claim.ID, domain.TxStatusCompleted)
	})
	if err != nil {
		return err
	}

	zap.L().Info("credit purchase fulfilled",
		zap.Int64("userID", meta.UserID),
		zap.Int64("credits", meta.Credits),
		zap.String("paymentID", event.Data.PaymentID),
	)
	return nil
}

func validate(event *Event) error {
	meta := event.Data.Metadata
	switch {
	case event.Type != eventCheckoutCompleted:
		return fmt.Errorf("%w: unexpected event type %q", ErrInvalidPayload, event.Type)
	case event.Data.PaymentID == "":
		return fmt.Errorf("%w: missing payment id", ErrInvalidPayload)
	case meta.UserID <= 0:
		return fmt.Errorf("%w: missing user id", ErrInvalidPayload)
	case meta.ProductID == "":
		return fmt.Errorf("%w: missing product id", ErrInvalidPayload)
	case meta.Credits <= 0:
		return fmt.Errorf("%w: credit quantity must be positive", ErrInvalidPayload)
	}
	return nil
}
