package volleyservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pricing"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

type mocks struct {
	messageRepo     *MockMessageRepo
	transactionRepo *MockTransactionRepo
	ledgerRepo      *MockLedgerRepo
	wallets         *MockWalletLedger
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		messageRepo:     NewMockMessageRepo(ctrl),
		transactionRepo: NewMockTransactionRepo(ctrl),
		ledgerRepo:      NewMockLedgerRepo(ctrl),
		wallets:         NewMockWalletLedger(ctrl),
	}
	calc := pricing.New(10, 0.65, 0.35)
	service := New(m.messageRepo, m.transactionRepo, m.ledgerRepo, m.wallets, calc, 72*time.Hour)
	return service, m
}

func TestRecordMessage(t *testing.T) {
	ctx := context.Background()

	initiatingText := &domain.Message{ID: 7, SenderID: 2, RecipientID: 1, Kind: domain.MessageText, BillingStatus: domain.BillingPending}
	initiatingMedia := &domain.Message{ID: 8, SenderID: 2, RecipientID: 1, Kind: domain.MessageMedia, BillingStatus: domain.BillingPending}

	tests := []struct {
		name        string
		senderID    int64
		recipientID int64
		kind        domain.MessageKind
		prepareMock func(m *mocks)
		wantCharged int64
		wantErr     error
	}{
		{
			name:        "self message rejected",
			senderID:    1,
			recipientID: 1,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {},
			wantErr:     ErrSelfMessage,
		},
		{
			name:        "unknown kind rejected",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageKind("sticker"),
			prepareMock: func(m *mocks) {},
			wantErr:     ErrInvalidKind,
		},
		{
			name:        "message store failure",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))
			},
			wantErr: errors.New("db down"),
		},
		{
			name:        "no prior unbilled message, reply is free",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(nil, nil)
			},
			wantCharged: 0,
		},
		{
			name:        "text reply bills one credit",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiatingText, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(&domain.Wallet{UserID: 2, CreditBalance: 99}, nil)
				m.messageRepo.EXPECT().MarkBilled(ctx, int64(7)).Return(true, nil)
				m.wallets.EXPECT().Increment(ctx, int64(1), walletservice.FieldEarnings, int64(7)).Return(nil)
				m.transactionRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, tx *domain.Transaction) error {
					assert.Equal(t, domain.TxVolleyCharge, tx.Type)
					assert.Equal(t, int64(-1), tx.CreditsDelta)
					assert.Equal(t, "message:7", tx.ExternalRef)
					return nil
				})
				m.transactionRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, tx *domain.Transaction) error {
					assert.Equal(t, domain.TxEarning, tx.Type)
					assert.Equal(t, int64(7), tx.USDCentsDelta)
					return nil
				})
				m.ledgerRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(2)
			},
			wantCharged: 1,
		},
		{
			name:        "media message bills three credits",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiatingMedia, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-3)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(&domain.Wallet{UserID: 2, CreditBalance: 97}, nil)
				m.messageRepo.EXPECT().MarkBilled(ctx, int64(8)).Return(true, nil)
				m.wallets.EXPECT().Increment(ctx, int64(1), walletservice.FieldEarnings, int64(20)).Return(nil)
				m.transactionRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(2)
				m.ledgerRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(2)
			},
			wantCharged: 3,
		},
		{
			name:        "payer cannot cover the charge, reply stays free",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiatingText, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(walletservice.ErrInsufficientBalance)
			},
			wantCharged: 0,
		},
		{
			name:        "lookup failure",
			senderID:    1,
			recipientID: 2,
			kind:        domain.MessageText,
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			msg, charged, err := service.RecordMessage(ctx, tt.senderID, tt.recipientID, tt.kind)
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Nil(t, msg)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, msg)
			assert.Equal(t, tt.wantCharged, charged)
		})
	}
}

func TestRecordMessageCompensation(t *testing.T) {
	ctx := context.Background()

	initiating := &domain.Message{ID: 7, SenderID: 2, RecipientID: 1, Kind: domain.MessageText, BillingStatus: domain.BillingPending}
	creditErr := errors.New("earnings update failed")

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		wantCharged int64
		wantErr     error
	}{
		{
			name: "concurrent reply billed first, debit is returned",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiating, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(&domain.Wallet{UserID: 2, CreditBalance: 99}, nil)
				m.messageRepo.EXPECT().MarkBilled(ctx, int64(7)).Return(false, nil)
				m.wallets.EXPECT().CompareAndSwap(ctx, int64(2), walletservice.FieldCredits, int64(99), int64(100)).Return(true, nil)
			},
			wantCharged: 0,
		},
		{
			name: "payee credit fails, debit is returned",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiating, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(&domain.Wallet{UserID: 2, CreditBalance: 99}, nil)
				m.messageRepo.EXPECT().MarkBilled(ctx, int64(7)).Return(true, nil)
				m.wallets.EXPECT().Increment(ctx, int64(1), walletservice.FieldEarnings, int64(7)).Return(creditErr)
				m.wallets.EXPECT().CompareAndSwap(ctx, int64(2), walletservice.FieldCredits, int64(99), int64(100)).Return(true, nil)
			},
			wantErr: creditErr,
		},
		{
			name: "payee credit fails and compensation does not apply",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiating, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(&domain.Wallet{UserID: 2, CreditBalance: 99}, nil)
				m.messageRepo.EXPECT().MarkBilled(ctx, int64(7)).Return(true, nil)
				m.wallets.EXPECT().Increment(ctx, int64(1), walletservice.FieldEarnings, int64(7)).Return(creditErr)
				m.wallets.EXPECT().CompareAndSwap(ctx, int64(2), walletservice.FieldCredits, int64(99), int64(100)).Return(false, nil)
			},
			wantErr: ErrInconsistent,
		},
		{
			name: "wallet unreadable after debit",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
				m.messageRepo.EXPECT().FindLatestUnbilled(ctx, int64(2), int64(1), gomock.Any()).Return(initiating, nil)
				m.wallets.EXPECT().Increment(ctx, int64(2), walletservice.FieldCredits, int64(-1)).Return(nil)
				m.wallets.EXPECT().GetWallet(ctx, int64(2)).Return(nil, errors.New("db down"))
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			msg, charged, err := service.RecordMessage(ctx, 1, 2, domain.MessageText)
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.wantErr.Error())
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, msg)
			assert.Equal(t, tt.wantCharged, charged)
		})
	}
}

func TestMessages(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		want        []domain.Message
		wantErr     bool
	}{
		{
			name: "returns user messages",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().FindByUserID(ctx, int64(1)).Return([]domain.Message{
					{ID: 1, SenderID: 1, RecipientID: 2, Kind: domain.MessageText},
					{ID: 2, SenderID: 2, RecipientID: 1, Kind: domain.MessageMedia},
				}, nil)
			},
			want: []domain.Message{
				{ID: 1, SenderID: 1, RecipientID: 2, Kind: domain.MessageText},
				{ID: 2, SenderID: 2, RecipientID: 1, Kind: domain.MessageMedia},
			},
		},
		{
			name: "lookup failure",
			prepareMock: func(m *mocks) {
				m.messageRepo.EXPECT().FindByUserID(ctx, int64(1)).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			got, err := service.Messages(ctx, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
