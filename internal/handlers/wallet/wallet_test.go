package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/payments"
	"github.com/lumeva/creditcore/internal/service/webhookservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*WalletHandler, *MockService, *MockCheckoutService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	checkout := NewMockCheckoutService(ctrl)
	handler := New(service, checkout)
	return handler, service, checkout
}

func authCtx(userID int64) context.Context {
	return context.WithValue(context.Background(), auth.UserIDKey, userID)
}

func TestGetWalletHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedBody dto.WalletResponseDTO
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				service.EXPECT().
					GetWallet(authCtx(1), int64(1)).
					Return(&domain.Wallet{UserID: 1, CreditBalance: 150, EarningsCents: 6500}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.WalletResponseDTO{CreditBalance: 150, EarningsCents: 6500},
		},
		{
			name: "No wallet yet reads as zero balances",
			prepareMock: func() {
				service.EXPECT().
					GetWallet(authCtx(1), int64(1)).
					Return(nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.WalletResponseDTO{},
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().
					GetWallet(authCtx(1), int64(1)).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, "/wallet", nil)
			r = r.WithContext(authCtx(1))
			w := httptest.NewRecorder()
			handler.GetWallet(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.WalletResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestGetTransactionsHandler(t *testing.T) {
	handler, service, _ := NewMock(t)
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedLen  int
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				service.EXPECT().
					Transactions(authCtx(1), int64(1)).
					Return([]domain.Transaction{
						{ID: 1, Type: domain.TxPurchase, CreditsDelta: 100, Status: domain.TxStatusCompleted, CreatedAt: now},
						{ID: 2, Type: domain.TxSpend, CreditsDelta: -30, Status: domain.TxStatusCompleted, CreatedAt: now},
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name: "No transactions",
			prepareMock: func() {
				service.EXPECT().
					Transactions(authCtx(1), int64(1)).
					Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().
					Transactions(authCtx(1), int64(1)).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, "/transactions", nil)
			r = r.WithContext(authCtx(1))
			w := httptest.NewRecorder()
			handler.GetTransactions(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body []dto.TransactionResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Len(t, body, tt.expectedLen)
			}
		})
	}
}

func TestCheckoutHandler(t *testing.T) {
	handler, _, checkout := NewMock(t)

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Successful checkout",
			body: `{"product_id":"pack_100","credits":100}`,
			prepareMock: func() {
				checkout.EXPECT().
					CreateCheckout(authCtx(1), int64(1), "pack_100", int64(100)).
					Return(&payments.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid request body",
			body:         `{"credits":invalid}`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Invalid product",
			body: `{"product_id":"","credits":100}`,
			prepareMock: func() {
				checkout.EXPECT().
					CreateCheckout(authCtx(1), int64(1), "", int64(100)).
					Return(nil, webhookservice.ErrInvalidPayload)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Processor failure",
			body: `{"product_id":"pack_100","credits":100}`,
			prepareMock: func() {
				checkout.EXPECT().
					CreateCheckout(authCtx(1), int64(1), "pack_100", int64(100)).
					Return(nil, errors.New("processor down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(tt.body))
			r = r.WithContext(authCtx(1))
			w := httptest.NewRecorder()
			handler.Checkout(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.CheckoutResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "cs_1", body.SessionID)
			}
		})
	}
}
