package reservationservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pg"
	"github.com/lumeva/creditcore/internal/pricing"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"go.uber.org/zap"
)

//go:generate mockgen -source=reservationservice.go -destination=reservationservice_mock.go -package=reservationservice

type ReservationRepo interface {
	Create(ctx context.Context, reservation *domain.CreditReservation) error
	FindBySessionID(ctx context.Context, sessionID int64) (*domain.CreditReservation, error)
	Resolve(ctx context.Context, sessionID int64, status domain.ReservationStatus, chargedCredits, refundedCredits int64) (*domain.CreditReservation, bool, error)
}

type SessionRepo interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, sessionID int64) (*domain.Session, error)
	ClaimRoom(ctx context.Context, sessionID int64, sentinel string) (bool, error)
	SetRoomURL(ctx context.Context, sessionID int64, roomURL string) error
	ReleaseRoomClaim(ctx context.Context, sessionID int64, sentinel string) error
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) error
}

type LedgerRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
}

type WalletLedger interface {
	Increment(ctx context.Context, userID int64, field walletservice.BalanceField, delta int64) error
}

type RoomProvider interface {
	CreateRoom(ctx context.Context, sessionID int64) (string, error)
	DeleteRoom(ctx context.Context, roomURL string) error
	IssueToken(ctx context.Context, roomURL string, userID int64) (string, error)
}

const (
	MinPerMinuteRate = 1
	MaxPerMinuteRate = 100
	MinMinutes       = 5
	MaxMinutes       = 480

	// roomClaimSentinel marks a room as being created by another caller.
	roomClaimSentinel = "pending"

	roomPollAttempts = 10
	roomPollInterval = 200 * time.Millisecond
)

var (
	ErrInvalidRate         = errors.New("per-minute rate out of range")
	ErrInvalidDuration     = errors.New("session duration out of range")
	ErrSessionNotFound     = errors.New("session not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomUnavailable     = errors.New("session room is not available yet")
)

type Service struct {
	reservationRepo ReservationRepo
	sessionRepo     SessionRepo
	transactionRepo TransactionRepo
	ledgerRepo      LedgerRepo
	wallets         WalletLedger
	rooms           RoomProvider
	calc            *pricing.Calculator
	txManager       pg.TXManager
}

func New(
	reservationRepo ReservationRepo,
	sessionRepo SessionRepo,
	transactionRepo TransactionRepo,
	ledgerRepo LedgerRepo,
	wallets WalletLedger,
	rooms RoomProvider,
	calc *pricing.Calculator,
	txManager pg.TXManager,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		sessionRepo:     sessionRepo,
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		wallets:         wallets,
		rooms:           rooms,
		calc:            calc,
		txManager:       txManager,
	}
}

// Schedule prices the session, escrows the payer's credits and creates an
// active reservation. The debit happens first; if the records can't be
// written afterwards the escrowed credits are returned.
func (s *Service) Schedule(ctx context.Context, payerID, payeeID, minutes, perMinuteRate int64) (*domain.Session, *domain.CreditReservation, error) {
	if perMinuteRate < MinPerMinuteRate || perMinuteRate > MaxPerMinuteRate {
		return nil, nil, ErrInvalidRate
	}
	if minutes < MinMinutes || minutes > MaxMinutes {
		return nil, nil, ErrInvalidDuration
	}

	cost := pricing.SessionCredits(minutes, perMinuteRate)

	if err := s.wallets.Increment(ctx, payerID, walletservice.FieldCredits, -cost); err != nil {
		return nil, nil, err
	}

	session := &domain.Session{
		PayerID:          payerID,
		PayeeID:          payeeID,
		ScheduledMinutes: minutes,
		PerMinuteRate:    perMinuteRate,
	}
	reservation := &domain.CreditReservation{
		UserID: payerID,
		Amount: cost,
		Status: domain.ReservationActive,
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return err
		}
		reservation.SessionID = session.ID
		if err := s.reservationRepo.Create(ctx, reservation); err != nil {
			return err
		}
		return s.transactionRepo.Create(ctx, &domain.Transaction{
			UserID:       payerID,
			Type:         domain.TxSpend,
			CreditsDelta: -cost,
			ExternalRef:  fmt.Sprintf("session:%d", session.ID),
			Status:       domain.TxStatusCompleted,
			Description:  "credits reserved for scheduled session",
		})
	})
	if err != nil {
		zap.L().Error("failed to record reservation, returning escrowed credits",
			zap.Int64("payerID", payerID),
			zap.Int64("credits", cost),
			zap.Error(err),
		)
		if rerr := s.wallets.Increment(ctx, payerID, walletservice.FieldCredits, cost); rerr != nil {
			zap.L().Error("manual reconciliation required: failed to return escrowed credits",
				zap.Int64("payerID", payerID),
				zap.Int64("credits", cost),
				zap.Error(rerr),
			)
		}
		return nil, nil, err
	}

	return session, reservation, nil
}

// EnsureRoom creates the external session room exactly once across
// concurrent callers. The winner of the claim creates the room; losers
// wait for the winner's result instead of creating a duplicate.
func (s *Service) EnsureRoom(ctx context.Context, sessionID int64) (string, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrSessionNotFound
	}
	if session.RoomURL != nil && *session.RoomURL != roomClaimSentinel {
		return *session.RoomURL, nil
	}

	if session.RoomURL == nil {
		claimed, err := s.sessionRepo.ClaimRoom(ctx, sessionID, roomClaimSentinel)
		if err != nil {
			return "", err
		}
		if claimed {
			roomURL, err := s.rooms.CreateRoom(ctx, sessionID)
			if err != nil {
				// Give the claim back so a retry can create the room.
				if rerr := s.sessionRepo.ReleaseRoomClaim(ctx, sessionID, roomClaimSentinel); rerr != nil {
					zap.L().Error("failed to release room claim", zap.Int64("sessionID", sessionID), zap.Error(rerr))
				}
				return "", err
			}
			if err := s.sessionRepo.SetRoomURL(ctx, sessionID, roomURL); err != nil {
				// Give the claim back so a retry can create the room,
				// and drop the room nothing will ever point at.
				if rerr := s.sessionRepo.ReleaseRoomClaim(ctx, sessionID, roomClaimSentinel); rerr != nil {
					zap.L().Error("failed to release room claim", zap.Int64("sessionID", sessionID), zap.Error(rerr))
				}
				if derr := s.rooms.DeleteRoom(ctx, roomURL); derr != nil {
					zap.L().Error("failed to delete orphaned room", zap.Int64("sessionID", sessionID), zap.String("roomURL", roomURL), zap.Error(derr))
				}
				return "", err
			}
			return roomURL, nil
		}
	}

	// Another caller holds the claim: wait and read back the result.
	for attempt := 0; attempt < roomPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(roomPollInterval):
		}
		session, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			return "", err
		}
		if session != nil && session.RoomURL != nil && *session.RoomURL != roomClaimSentinel {
			return *session.RoomURL, nil
		}
	}
	return "", ErrRoomUnavailable
}

// RoomToken issues a participant access token for the session room.
func (s *Service) RoomToken(ctx context.Context, sessionID, userID int64) (string, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrSessionNotFound
	}
	if session.RoomURL == nil || *session.RoomURL == roomClaimSentinel {
		return "", ErrRoomUnavailable
	}
	return s.rooms.IssueToken(ctx, *session.RoomURL, userID)
}

// Complete resolves the reservation into a charge for the time actually
// used, refunds the remainder to the payer and credits the payee's share.
// Resolving an already-terminal reservation returns the prior outcome.
func (s *Service) Complete(ctx context.Context, sessionID, actualMinutes int64) (*domain.CreditReservation, error) {
	if actualMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	reservation, err := s.reservationRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != domain.ReservationActive {
		return reservation, nil
	}

	billable := actualMinutes
	if billable > session.ScheduledMinutes {
		billable = session.ScheduledMinutes
	}
	owed := pricing.SessionCredits(billable, session.PerMinuteRate)
	if owed > reservation.Amount {
		owed = reservation.Amount
	}
	refund := reservation.Amount - owed

	resolved, won, err := s.reservationRepo.Resolve(ctx, sessionID, domain.ReservationCharged, owed, refund)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent resolution reached the active reservation first.
		return s.readTerminal(ctx, sessionID)
	}

	if refund > 0 {
		if err := s.refundPayer(ctx, reservation.UserID, sessionID, refund, domain.TxPartialRefund, "unused session minutes returned"); err != nil {
			return nil, err
		}
	}

	_, payeeCents, _, err := s.calc.CreditSplit(float64(owed))
	if err != nil {
		return nil, err
	}
	if payeeCents > 0 {
		if err := s.creditPayee(ctx, session.PayeeID, sessionID, owed, payeeCents); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}

// Cancel releases the full reservation back to the payer. Safe to race
// with Complete: the loser observes the terminal state and returns it.
func (s *Service) Cancel(ctx context.Context, sessionID int64) (*domain.CreditReservation, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	reservation, err := s.reservationRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != domain.ReservationActive {
		return reservation, nil
	}

	resolved, won, err := s.reservationRepo.Resolve(ctx, sessionID, domain.ReservationReleased, 0, reservation.Amount)
	if err != nil {
		return nil, err
	}
	if !won {
		return s.readTerminal(ctx, sessionID)
	}

	if err := s.refundPayer(ctx, reservation.UserID, sessionID, reservation.Amount, domain.TxRefund, "reservation released"); err != nil {
		return nil, err
	}

	if session.RoomURL != nil && *session.RoomURL != roomClaimSentinel {
		if err := s.rooms.DeleteRoom(ctx, *session.RoomURL); err != nil {
			zap.L().Warn("failed to delete session room", zap.Int64("sessionID", sessionID), zap.Error(err))
		}
	}

	return resolved, nil
}

func (s *Service) readTerminal(ctx context.Context, sessionID int64) (*domain.CreditReservation, error) {
	reservation, err := s.reservationRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

func (s *Service) refundPayer(ctx context.Context, payerID, sessionID, credits int64, txType domain.TransactionType, description string) error {
	if err := s.wallets.Increment(ctx, payerID, walletservice.FieldCredits, credits); err != nil {
		zap.L().Error("manual reconciliation required: reservation resolved but refund failed",
			zap.Int64("payerID", payerID),
			zap.Int64("sessionID", sessionID),
			zap.Int64("credits", credits),
			zap.Error(err),
		)
		return err
	}
	ref := fmt.Sprintf("session:%d", sessionID)
	if err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:       payerID,
		Type:         txType,
		CreditsDelta: credits,
		ExternalRef:  ref,
		Status:       domain.TxStatusCompleted,
		Description:  description,
	}); err != nil {
		zap.L().Error("failed to record refund transaction", zap.Int64("sessionID", sessionID), zap.Error(err))
		return err
	}
	if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
		UserID:       payerID,
		CreditsDelta: credits,
		Reference:    ref,
		Description:  description,
	}); err != nil {
		zap.L().Error("failed to record refund ledger entry", zap.Int64("sessionID", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) creditPayee(ctx context.Context, payeeID, sessionID, owedCredits, payeeCents int64) error {
	if err := s.wallets.Increment(ctx, payeeID, walletservice.FieldEarnings, payeeCents); err != nil {
		zap.L().Error("manual reconciliation required: reservation charged but payee credit failed",
			zap.Int64("payeeID", payeeID),
			zap.Int64("sessionID", sessionID),
			zap.Int64("cents", payeeCents),
			zap.Error(err),
		)
		return err
	}
	ref := fmt.Sprintf("session:%d", sessionID)
	if err := s.transactionRepo.Create(ctx, &domain.Transaction{
		UserID:        payeeID,
		Type:          domain.TxEarning,
		CreditsDelta:  owedCredits,
		USDCentsDelta: payeeCents,
		ExternalRef:   ref,
		Status:        domain.TxStatusCompleted,
		Description:   "session earnings",
	}); err != nil {
		zap.L().Error("failed to record earning transaction", zap.Int64("sessionID", sessionID), zap.Error(err))
		return err
	}
	if err := s.ledgerRepo.Create(ctx, &domain.LedgerEntry{
		UserID:        payeeID,
		CreditsDelta:  owedCredits,
		USDCentsDelta: payeeCents,
		Reference:     ref,
		Description:   "session earnings",
	}); err != nil {
		zap.L().Error("failed to record earning ledger entry", zap.Int64("sessionID", sessionID), zap.Error(err))
		return err
	}
	return nil
}
