package transactionrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lumeva/creditcore/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func()
		wantErr   error
		expectErr bool
	}{
		{
			name: "Creates transaction and backfills generated fields",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
					AddRow(int64(42), now, now)
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WithArgs(int64(5), domain.TxPurchase, int64(100), int64(1000), "pay_42", domain.TxStatusProcessing, "credit pack purchase").
					WillReturnRows(rows)
			},
		},
		{
			name: "Unique violation maps to ErrDuplicateRef",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WithArgs(int64(5), domain.TxPurchase, int64(100), int64(1000), "pay_42", domain.TxStatusProcessing, "credit pack purchase").
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr:   ErrDuplicateRef,
			expectErr: true,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WithArgs(int64(5), domain.TxPurchase, int64(100), int64(1000), "pay_42", domain.TxStatusProcessing, "credit pack purchase").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			tx := &domain.Transaction{
				UserID:        5,
				Type:          domain.TxPurchase,
				CreditsDelta:  100,
				USDCentsDelta: 1000,
				ExternalRef:   "pay_42",
				Status:        domain.TxStatusProcessing,
				Description:   "credit pack purchase",
			}
			err := repo.Create(context.Background(), tx)
			if tt.expectErr {
				assert.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, int64(42), tx.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByExternalRef(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	columns := []string{"id", "user_id", "type", "credits_delta", "usd_cents_delta", "external_ref", "status", "description", "created_at", "updated_at"}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		found     bool
	}{
		{
			name: "Existing reference",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(int64(42), int64(5), domain.TxPurchase, int64(100), int64(1000), "pay_42", domain.TxStatusCompleted, "credit pack purchase", now, now)
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE external_ref = $1 AND type = $2`)).
					WithArgs("pay_42", domain.TxPurchase).
					WillReturnRows(rows)
			},
			found: true,
		},
		{
			name: "Unknown reference returns nil",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE external_ref = $1 AND type = $2`)).
					WithArgs("pay_404", domain.TxPurchase).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE external_ref = $1 AND type = $2`)).
					WithArgs("pay_42", domain.TxPurchase).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			ref := "pay_42"
			if tt.name == "Unknown reference returns nil" {
				ref = "pay_404"
			}
			tx, err := repo.FindByExternalRef(context.Background(), ref, domain.TxPurchase)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.found {
					assert.Equal(t, int64(42), tx.ID)
				} else {
					assert.Nil(t, tx)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions`)).
		WithArgs(domain.TxStatusCompleted, pgxmock.AnyArg(), int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), 42, domain.TxStatusCompleted)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByUserID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	columns := []string{"id", "user_id", "type", "credits_delta", "usd_cents_delta", "external_ref", "status", "description", "created_at", "updated_at"}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		count     int
	}{
		{
			name: "Returns history newest first",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(int64(2), int64(5), domain.TxSpend, int64(-30), int64(0), "session:11", domain.TxStatusCompleted, "credits reserved for scheduled session", now, now).
					AddRow(int64(1), int64(5), domain.TxPurchase, int64(100), int64(1000), "pay_42", domain.TxStatusCompleted, "credit pack purchase", now, now)
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
					WithArgs(int64(5)).
					WillReturnRows(rows)
			},
			count: 2,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
					WithArgs(int64(5)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			transactions, err := repo.FindByUserID(context.Background(), 5)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, transactions, tt.count)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
