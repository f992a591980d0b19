package ledgerrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

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
		expectErr bool
	}{
		{
			name: "Creates ledger entry",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), now)
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ledger_entries`)).
					WithArgs(int64(5), int64(100), int64(1000), "pay_42", "credit pack purchase").
					WillReturnRows(rows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ledger_entries`)).
					WithArgs(int64(5), int64(100), int64(1000), "pay_42", "credit pack purchase").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			entry := &domain.LedgerEntry{
				UserID:        5,
				CreditsDelta:  100,
				USDCentsDelta: 1000,
				Reference:     "pay_42",
				Description:   "credit pack purchase",
			}
			err := repo.Create(context.Background(), entry)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, int64(77), entry.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByUserID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	columns := []string{"id", "user_id", "credits_delta", "usd_cents_delta", "reference", "description", "created_at"}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		count     int
	}{
		{
			name: "Returns entries newest first",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(int64(78), int64(5), int64(-30), int64(0), "session:11", "credits reserved for scheduled session", now).
					AddRow(int64(77), int64(5), int64(100), int64(1000), "pay_42", "credit pack purchase", now)
				mock.ExpectQuery(regexp.QuoteMeta(`FROM ledger_entries`)).
					WithArgs(int64(5)).
					WillReturnRows(rows)
			},
			count: 2,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM ledger_entries`)).
					WithArgs(int64(5)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			entries, err := repo.FindByUserID(context.Background(), 5)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, entries, tt.count)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
