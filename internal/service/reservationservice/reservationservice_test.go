package reservationservice

import (
	"context"
	"errors"
	"testing"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pg"
	"github.com/lumeva/creditcore/internal/pricing"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

type mocks struct {
	reservationRepo *MockReservationRepo
	sessionRepo     *MockSessionRepo
	transactionRepo *MockTransactionRepo
	ledgerRepo      *MockLedgerRepo
	wallets         *MockWalletLedger
	rooms           *MockRoomProvider
	txManager       *pg.MockTXManager
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		reservationRepo: NewMockReservationRepo(ctrl),
		sessionRepo:     NewMockSessionRepo(ctrl),
		transactionRepo: NewMockTransactionRepo(ctrl),
		ledgerRepo:      NewMockLedgerRepo(ctrl),
		wallets:         NewMockWalletLedger(ctrl),
		rooms:           NewMockRoomProvider(ctrl),
		txManager:       pg.NewMockTXManager(ctrl),
	}
	calc := pricing.New(10, 0.65, 0.35)
	service := New(m.reservationRepo, m.sessionRepo, m.transactionRepo, m.ledgerRepo, m.wallets, m.rooms, calc, m.txManager)
	return service, m
}

func passthroughTx(m *mocks) {
	m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
}

func TestSchedule(t *testing.T) {
	t.Run("Successful reservation", func(t *testing.T) {
		service, m := NewMock(t)
		passthroughTx(m)

		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(-30)).Return(nil)
		m.sessionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, s *domain.Session) error {
				s.ID = 42
				return nil
			})
		m.reservationRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r *domain.CreditReservation) error {
				assert.Equal(t, int64(42), r.SessionID)
				assert.Equal(t, int64(30), r.Amount)
				assert.Equal(t, domain.ReservationActive, r.Status)
				return nil
			})
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx *domain.Transaction) error {
				assert.Equal(t, domain.TxSpend, tx.Type)
				assert.Equal(t, int64(-30), tx.CreditsDelta)
				return nil
			})

		session, reservation, err := service.Schedule(context.Background(), 1, 2, 30, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), session.ID)
		assert.Equal(t, int64(30), reservation.Amount)
	})

	t.Run("Insufficient funds", func(t *testing.T) {
		service, m := NewMock(t)

		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(-30)).
			Return(walletservice.ErrInsufficientBalance)

		_, _, err := service.Schedule(context.Background(), 1, 2, 30, 1)
		assert.ErrorIs(t, err, walletservice.ErrInsufficientBalance)
	})

	t.Run("Rate out of range", func(t *testing.T) {
		service, _ := NewMock(t)
		_, _, err := service.Schedule(context.Background(), 1, 2, 30, 0)
		assert.ErrorIs(t, err, ErrInvalidRate)

		_, _, err = service.Schedule(context.Background(), 1, 2, 30, 101)
		assert.ErrorIs(t, err, ErrInvalidRate)
	})

	t.Run("Duration out of range", func(t *testing.T) {
		service, _ := NewMock(t)
		_, _, err := service.Schedule(context.Background(), 1, 2, 3, 1)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("Record failure returns escrowed credits", func(t *testing.T) {
		service, m := NewMock(t)

		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(-30)).Return(nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(30)).Return(nil)

		_, _, err := service.Schedule(context.Background(), 1, 2, 30, 1)
		assert.Error(t, err)
	})
}

func TestComplete(t *testing.T) {
	session := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2, ScheduledMinutes: 30, PerMinuteRate: 1}

	t.Run("Partial use refunds the difference", func(t *testing.T) {
		service, m := NewMock(t)

		active := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationActive}
		charged := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationCharged, ChargedCredits: 10, RefundedCredits: 20}

		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(active, nil)
		m.reservationRepo.EXPECT().Resolve(gomock.Any(), int64(42), domain.ReservationCharged, int64(10), int64(20)).Return(charged, true, nil)

		// 20 unused credits go back to the payer.
		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(20)).Return(nil)
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx *domain.Transaction) error {
				assert.Equal(t, domain.TxPartialRefund, tx.Type)
				assert.Equal(t, int64(20), tx.CreditsDelta)
				return nil
			})
		m.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		// 10 charged credits -> 100 gross cents -> 65 payee cents.
		m.wallets.EXPECT().Increment(gomock.Any(), int64(2), walletservice.FieldEarnings, int64(65)).Return(nil)
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx *domain.Transaction) error {
				assert.Equal(t, domain.TxEarning, tx.Type)
				assert.Equal(t, int64(65), tx.USDCentsDelta)
				return nil
			})
		m.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		result, err := service.Complete(context.Background(), 42, 10)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationCharged, result.Status)
		assert.Equal(t, int64(10), result.ChargedCredits)
		assert.Equal(t, int64(20), result.RefundedCredits)
	})

	t.Run("Elapsed time capped at scheduled duration", func(t *testing.T) {
		service, m := NewMock(t)

		active := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationActive}
		charged := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationCharged, ChargedCredits: 30}

		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(active, nil)
		m.reservationRepo.EXPECT().Resolve(gomock.Any(), int64(42), domain.ReservationCharged, int64(30), int64(0)).Return(charged, true, nil)

		// Full charge, no refund: only the payee credit happens.
		m.wallets.EXPECT().Increment(gomock.Any(), int64(2), walletservice.FieldEarnings, int64(195)).Return(nil)
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		result, err := service.Complete(context.Background(), 42, 90)
		assert.NoError(t, err)
		assert.Equal(t, int64(30), result.ChargedCredits)
	})

	t.Run("Already terminal returns prior outcome", func(t *testing.T) {
		service, m := NewMock(t)

		charged := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationCharged, ChargedCredits: 10, RefundedCredits: 20}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(charged, nil)

		result, err := service.Complete(context.Background(), 42, 10)
		assert.NoError(t, err)
		assert.Equal(t, charged, result)
	})

	t.Run("Lost the resolution race", func(t *testing.T) {
		service, m := NewMock(t)

		active := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationActive}
		released := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationReleased, RefundedCredits: 30}

		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(active, nil)
		m.reservationRepo.EXPECT().Resolve(gomock.Any(), int64(42), domain.ReservationCharged, int64(10), int64(20)).Return(nil, false, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(released, nil)

		result, err := service.Complete(context.Background(), 42, 10)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationReleased, result.Status)
	})

	t.Run("Unknown session", func(t *testing.T) {
		service, m := NewMock(t)
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(99)).Return(nil, nil)

		_, err := service.Complete(context.Background(), 99, 10)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestCancel(t *testing.T) {
	session := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2, ScheduledMinutes: 30, PerMinuteRate: 1}

	t.Run("Full release", func(t *testing.T) {
		service, m := NewMock(t)

		active := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationActive}
		released := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationReleased, RefundedCredits: 30}

		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(active, nil)
		m.reservationRepo.EXPECT().Resolve(gomock.Any(), int64(42), domain.ReservationReleased, int64(0), int64(30)).Return(released, true, nil)
		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(30)).Return(nil)
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tx *domain.Transaction) error {
				assert.Equal(t, domain.TxRefund, tx.Type)
				return nil
			})
		m.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		result, err := service.Cancel(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationReleased, result.Status)
	})

	t.Run("Cancel after charge is a no-op returning the charge", func(t *testing.T) {
		service, m := NewMock(t)

		charged := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationCharged, ChargedCredits: 10, RefundedCredits: 20}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(charged, nil)

		result, err := service.Cancel(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationCharged, result.Status)
	})

	t.Run("Existing room is deleted on release", func(t *testing.T) {
		service, m := NewMock(t)

		roomURL := "https://rooms.example/r/abc"
		withRoom := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2, ScheduledMinutes: 30, PerMinuteRate: 1, RoomURL: &roomURL}
		active := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationActive}
		released := &domain.CreditReservation{ID: 7, SessionID: 42, UserID: 1, Amount: 30, Status: domain.ReservationReleased, RefundedCredits: 30}

		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(withRoom, nil)
		m.reservationRepo.EXPECT().FindBySessionID(gomock.Any(), int64(42)).Return(active, nil)
		m.reservationRepo.EXPECT().Resolve(gomock.Any(), int64(42), domain.ReservationReleased, int64(0), int64(30)).Return(released, true, nil)
		m.wallets.EXPECT().Increment(gomock.Any(), int64(1), walletservice.FieldCredits, int64(30)).Return(nil)
		m.transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.rooms.EXPECT().DeleteRoom(gomock.Any(), roomURL).Return(nil)

		_, err := service.Cancel(context.Background(), 42)
		assert.NoError(t, err)
	})
}

func TestEnsureRoom(t *testing.T) {
	t.Run("Winner creates the room", func(t *testing.T) {
		service, m := NewMock(t)

		session := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.sessionRepo.EXPECT().ClaimRoom(gomock.Any(), int64(42), "pending").Return(true, nil)
		m.rooms.EXPECT().CreateRoom(gomock.Any(), int64(42)).Return("https://rooms.example/r/abc", nil)
		m.sessionRepo.EXPECT().SetRoomURL(gomock.Any(), int64(42), "https://rooms.example/r/abc").Return(nil)

		roomURL, err := service.EnsureRoom(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, "https://rooms.example/r/abc", roomURL)
	})

	t.Run("Loser reads back the winner's room", func(t *testing.T) {
		service, m := NewMock(t)

		session := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.sessionRepo.EXPECT().ClaimRoom(gomock.Any(), int64(42), "pending").Return(false, nil)

		roomURL := "https://rooms.example/r/abc"
		withRoom := &domain.Session{ID: 42, PayerID: 1, PayeeID: 2, RoomURL: &roomURL}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(withRoom, nil)

		result, err := service.EnsureRoom(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, roomURL, result)
	})

	t.Run("Room already exists", func(t *testing.T) {
		service, m := NewMock(t)

		roomURL := "https://rooms.example/r/abc"
		session := &domain.Session{ID: 42, RoomURL: &roomURL}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)

		result, err := service.EnsureRoom(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, roomURL, result)
	})

	t.Run("Provider failure releases the claim", func(t *testing.T) {
		service, m := NewMock(t)

		session := &domain.Session{ID: 42}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.sessionRepo.EXPECT().ClaimRoom(gomock.Any(), int64(42), "pending").Return(true, nil)
		m.rooms.EXPECT().CreateRoom(gomock.Any(), int64(42)).Return("", errors.New("provider down"))
		m.sessionRepo.EXPECT().ReleaseRoomClaim(gomock.Any(), int64(42), "pending").Return(nil)

		_, err := service.EnsureRoom(context.Background(), 42)
		assert.Error(t, err)
	})

	t.Run("Write-back failure releases the claim and drops the room", func(t *testing.T) {
		service, m := NewMock(t)

		session := &domain.Session{ID: 42}
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.sessionRepo.EXPECT().ClaimRoom(gomock.Any(), int64(42), "pending").Return(true, nil)
		m.rooms.EXPECT().CreateRoom(gomock.Any(), int64(42)).Return("https://rooms.example/r/abc", nil)
		m.sessionRepo.EXPECT().SetRoomURL(gomock.Any(), int64(42), "https://rooms.example/r/abc").Return(errors.New("connection reset"))
		m.sessionRepo.EXPECT().ReleaseRoomClaim(gomock.Any(), int64(42), "pending").Return(nil)
		m.rooms.EXPECT().DeleteRoom(gomock.Any(), "https://rooms.example/r/abc").Return(nil)

		_, err := service.EnsureRoom(context.Background(), 42)
		assert.ErrorContains(t, err, "connection reset")

		// A retry must be able to win the claim again.
		m.sessionRepo.EXPECT().FindByID(gomock.Any(), int64(42)).Return(session, nil)
		m.sessionRepo.EXPECT().ClaimRoom(gomock.Any(), int64(42), "pending").Return(true, nil)
		m.rooms.EXPECT().CreateRoom(gomock.Any(), int64(42)).Return("https://rooms.example/r/def", nil)
		m.sessionRepo.EXPECT().SetRoomURL(gomock.Any(), int64(42), "https://rooms.example/r/def").Return(nil)

		roomURL, err := service.EnsureRoom(context.Background(), 42)
		assert.NoError(t, err)
		assert.Equal(t, "https://rooms.example/r/def", roomURL)
	})
}
