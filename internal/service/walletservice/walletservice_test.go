package walletservice

import (
	"context"
	"errors"
	"testing"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockWalletRepo, *MockTransactionRepo) {
	ctrl := gomock.NewController(t)
	walletRepo := NewMockWalletRepo(ctrl)
	transactionRepo := NewMockTransactionRepo(ctrl)
	service := New(walletRepo, transactionRepo)
	defer ctrl.Finish()
	return service, walletRepo, transactionRepo
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		name          string
		field         BalanceField
		delta         int64
		prepareMock   func(walletRepo *MockWalletRepo)
		expectedError error
	}{
		{
			name:  "Credit applied atomically",
			field: FieldCredits,
			delta: 100,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(100)).Return(true, nil)
			},
		},
		{
			name:  "Earnings credit applied atomically",
			field: FieldEarnings,
			delta: 650,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementEarnings(gomock.Any(), int64(1), int64(650)).Return(true, nil)
			},
		},
		{
			name:  "Debit rejected by non-negative guard",
			field: FieldCredits,
			delta: -50,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(-50)).Return(false, nil)
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 10}, nil)
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name:  "Debit against missing wallet",
			field: FieldCredits,
			delta: -50,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(-50)).Return(false, nil)
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(nil, nil)
			},
			expectedError: ErrWalletNotFound,
		},
		{
			name:  "Credit lazily creates the wallet",
			field: FieldCredits,
			delta: 100,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(100)).Return(false, nil)
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(nil, nil)
				walletRepo.EXPECT().EnsureWallet(gomock.Any(), int64(1)).Return(nil)
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(100)).Return(true, nil)
			},
		},
		{
			name:  "Repo error surfaces",
			field: FieldCredits,
			delta: 100,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().IncrementCredits(gomock.Any(), int64(1), int64(100)).Return(false, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
		{
			name:          "Unknown field rejected",
			field:         BalanceField("bogus"),
			delta:         1,
			prepareMock:   func(walletRepo *MockWalletRepo) {},
			expectedError: ErrUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, walletRepo, _ := NewMock(t)
			tt.prepareMock(walletRepo)

			err := service.Increment(context.Background(), 1, tt.field, tt.delta)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIncrementWithCAS(t *testing.T) {
	tests := []struct {
		name          string
		delta         int64
		prepareMock   func(walletRepo *MockWalletRepo)
		expectedError error
	}{
		{
			name:  "First attempt wins",
			delta: 5,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 10}, nil)
				walletRepo.EXPECT().CompareAndSwapCredits(gomock.Any(), int64(1), int64(10), int64(15)).Return(true, nil)
			},
		},
		{
			name:  "Conflict then converge against the new state",
			delta: 5,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 10}, nil)
				walletRepo.EXPECT().CompareAndSwapCredits(gomock.Any(), int64(1), int64(10), int64(15)).Return(false, nil)
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 12}, nil)
				walletRepo.EXPECT().CompareAndSwapCredits(gomock.Any(), int64(1), int64(12), int64(17)).Return(true, nil)
			},
		},
		{
			name:  "Retries exhausted",
			delta: 5,
			prepareMock: func(walletRepo *MockWalletRepo) {
				for i := 0; i < casMaxAttempts; i++ {
					walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 10}, nil)
					walletRepo.EXPECT().CompareAndSwapCredits(gomock.Any(), int64(1), int64(10), int64(15)).Return(false, nil)
				}
			},
			expectedError: ErrContention,
		},
		{
			name:  "Overdraw rejected before writing",
			delta: -20,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(&domain.Wallet{UserID: 1, CreditBalance: 10}, nil)
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name:  "Missing wallet",
			delta: 5,
			prepareMock: func(walletRepo *MockWalletRepo) {
				walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(nil, nil)
			},
			expectedError: ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, walletRepo, _ := NewMock(t)
			tt.prepareMock(walletRepo)

			err := service.IncrementWithCAS(context.Background(), 1, FieldCredits, tt.delta)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompareAndSwap(t *testing.T) {
	service, walletRepo, _ := NewMock(t)

	walletRepo.EXPECT().CompareAndSwapEarnings(gomock.Any(), int64(7), int64(1500), int64(0)).Return(true, nil)
	swapped, err := service.CompareAndSwap(context.Background(), 7, FieldEarnings, 1500, 0)
	assert.NoError(t, err)
	assert.True(t, swapped)

	walletRepo.EXPECT().CompareAndSwapEarnings(gomock.Any(), int64(7), int64(1500), int64(0)).Return(false, nil)
	swapped, err = service.CompareAndSwap(context.Background(), 7, FieldEarnings, 1500, 0)
	assert.NoError(t, err)
	assert.False(t, swapped)
}

func TestGetWallet(t *testing.T) {
	service, walletRepo, _ := NewMock(t)

	expected := &domain.Wallet{UserID: 1, CreditBalance: 100, EarningsCents: 650}
	walletRepo.EXPECT().GetWallet(gomock.Any(), int64(1)).Return(expected, nil)

	wallet, err := service.GetWallet(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, expected, wallet)
}

func TestTransactions(t *testing.T) {
	service, _, transactionRepo := NewMock(t)

	expected := []domain.Transaction{
		{ID: 1, UserID: 1, Type: domain.TxPurchase, CreditsDelta: 100, Status: domain.TxStatusCompleted},
	}
	transactionRepo.EXPECT().FindByUserID(gomock.Any(), int64(1)).Return(expected, nil)

	transactions, err := service.Transactions(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, expected, transactions)
}

func TestEligibleForPayout(t *testing.T) {
	service, walletRepo, _ := NewMock(t)

	expected := []domain.Wallet{{UserID: 2, EarningsCents: 5000}}
	walletRepo.EXPECT().FindEligibleForPayout(gomock.Any(), int64(2000), uint32(100)).Return(expected, nil)

	wallets, err := service.EligibleForPayout(context.Background(), 2000, 100)
	assert.NoError(t, err)
	assert.Equal(t, expected, wallets)
}
