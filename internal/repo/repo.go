package repo

import (
	"github.com/lumeva/creditcore/internal/pg"
	ledgerrepo "github.com/lumeva/creditcore/internal/repo/ledger-repo"
	messagerepo "github.com/lumeva/creditcore/internal/repo/message-repo"
	payoutrepo "github.com/lumeva/creditcore/internal/repo/payout-repo"
	reservationrepo "github.com/lumeva/creditcore/internal/repo/reservation-repo"
	sessionrepo "github.com/lumeva/creditcore/internal/repo/session-repo"
	transactionrepo "github.com/lumeva/creditcore/internal/repo/transaction-repo"
	walletrepo "github.com/lumeva/creditcore/internal/repo/wallet-repo"
	"github.com/lumeva/creditcore/internal/service/payoutservice"
	"github.com/lumeva/creditcore/internal/service/reservationservice"
	"github.com/lumeva/creditcore/internal/service/volleyservice"
	"github.com/lumeva/creditcore/internal/service/walletservice"
)

type Repositories struct {
	WalletRepo      walletservice.WalletRepo
	TransactionRepo walletservice.TransactionRepo
	ReservationRepo reservationservice.ReservationRepo
	SessionRepo     reservationservice.SessionRepo
	MessageRepo     volleyservice.MessageRepo
	PayoutRepo      payoutservice.PayoutRepo
	LedgerRepo      walletservice.LedgerRepo
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		WalletRepo:      walletrepo.New(conn),
		TransactionRepo: transactionrepo.New(conn),
		ReservationRepo: reservationrepo.New(conn),
		SessionRepo:     sessionrepo.New(conn),
		MessageRepo:     messagerepo.New(conn),
		PayoutRepo:      payoutrepo.New(conn),
		LedgerRepo:      ledgerrepo.New(conn),
	}
}
