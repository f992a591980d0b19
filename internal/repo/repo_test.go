package repo

import (
	"testing"

	ledgerrepo "github.com/lumeva/creditcore/internal/repo/ledger-repo"
	messagerepo "github.com/lumeva/creditcore/internal/repo/message-repo"
	payoutrepo "github.com/lumeva/creditcore/internal/repo/payout-repo"
	reservationrepo "github.com/lumeva/creditcore/internal/repo/reservation-repo"
	sessionrepo "github.com/lumeva/creditcore/internal/repo/session-repo"
	transactionrepo "github.com/lumeva/creditcore/internal/repo/transaction-repo"
	walletrepo "github.com/lumeva/creditcore/internal/repo/wallet-repo"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.NotNil(t, repo.WalletRepo)
	assert.NotNil(t, repo.TransactionRepo)
	assert.NotNil(t, repo.ReservationRepo)
	assert.NotNil(t, repo.SessionRepo)
	assert.NotNil(t, repo.MessageRepo)
	assert.NotNil(t, repo.PayoutRepo)
	assert.NotNil(t, repo.LedgerRepo)

	assert.IsType(t, &walletrepo.Repository{}, repo.WalletRepo)
	assert.IsType(t, &transactionrepo.Repository{}, repo.TransactionRepo)
	assert.IsType(t, &reservationrepo.Repository{}, repo.ReservationRepo)
	assert.IsType(t, &sessionrepo.Repository{}, repo.SessionRepo)
	assert.IsType(t, &messagerepo.Repository{}, repo.MessageRepo)
	assert.IsType(t, &payoutrepo.Repository{}, repo.PayoutRepo)
	assert.IsType(t, &ledgerrepo.Repository{}, repo.LedgerRepo)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
