package service

import (
	"github.com/lumeva/creditcore/internal/handlers/messages"
	payoutshandlers "github.com/lumeva/creditcore/internal/handlers/payouts"
	"github.com/lumeva/creditcore/internal/handlers/sessions"
	"github.com/lumeva/creditcore/internal/handlers/wallet"
	"github.com/lumeva/creditcore/internal/handlers/webhook"

	"github.com/lumeva/creditcore/internal/config"
	"github.com/lumeva/creditcore/internal/payments"
	"github.com/lumeva/creditcore/internal/pg"
	"github.com/lumeva/creditcore/internal/pricing"
	"github.com/lumeva/creditcore/internal/repo"
	"github.com/lumeva/creditcore/internal/rooms"
	"github.com/lumeva/creditcore/internal/service/payoutservice"
	"github.com/lumeva/creditcore/internal/service/reservationservice"
	"github.com/lumeva/creditcore/internal/service/volleyservice"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"github.com/lumeva/creditcore/internal/service/webhookservice"
	"github.com/lumeva/creditcore/pkg/clients"
)

type Services struct {
	WalletService   wallet.Service
	CheckoutService wallet.CheckoutService
	SessionService  sessions.Service
	MessageService  messages.Service
	WebhookService  webhook.Service
	PayoutService   payoutshandlers.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, cfg *config.Config) *Services {
	calc := pricing.New(cfg.CentsPerCredit, cfg.PayeeShare, cfg.PlatformShare)
	paymentsClient := payments.NewClient(cfg.PaymentAddress, clients.NewHTTPClient())
	roomsClient := rooms.NewClient(cfg.RoomsAddress, cfg.RoomsAPIKey, clients.NewHTTPClient())

	walletService := walletservice.New(repo.WalletRepo, repo.TransactionRepo)
	reservationService := reservationservice.New(
		repo.ReservationRepo,
		repo.SessionRepo,
		repo.TransactionRepo,
		repo.LedgerRepo,
		walletService,
		roomsClient,
		calc,
		txManager,
	)
	volleyService := volleyservice.New(
		repo.MessageRepo,
		repo.TransactionRepo,
		repo.LedgerRepo,
		walletService,
		calc,
		cfg.VolleyWindow,
	)
	webhookService := webhookservice.New(
		repo.TransactionRepo,
		repo.LedgerRepo,
		walletService,
		paymentsClient,
		payments.NewSigner(cfg.WebhookSecret),
		calc,
		txManager,
	)
	payoutService := payoutservice.New(
		repo.PayoutRepo,
		repo.TransactionRepo,
		repo.LedgerRepo,
		walletService,
		paymentsClient,
		cfg.MinPayoutCents,
	)

	return &Services{
		WalletService:   walletService,
		CheckoutService: webhookService,
		SessionService:  reservationService,
		MessageService:  volleyService,
		WebhookService:  webhookService,
		PayoutService:   payoutService,
	}
}
