package handlers

import (
	"net/http"

	_ "github.com/lumeva/creditcore/docs"
	messageshandlers "github.com/lumeva/creditcore/internal/handlers/messages"
	payoutshandlers "github.com/lumeva/creditcore/internal/handlers/payouts"
	sessionshandlers "github.com/lumeva/creditcore/internal/handlers/sessions"
	wallethandlers "github.com/lumeva/creditcore/internal/handlers/wallet"
	webhookhandlers "github.com/lumeva/creditcore/internal/handlers/webhook"
	"github.com/lumeva/creditcore/internal/metrics"
	"github.com/lumeva/creditcore/internal/service"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=handlers_mock.go -package=handlers

type WalletHandler interface {
	GetWallet(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	Checkout(w http.ResponseWriter, r *http.Request)
}

type SessionHandler interface {
	Schedule(w http.ResponseWriter, r *http.Request)
	Room(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type MessageHandler interface {
	SendMessage(w http.ResponseWriter, r *http.Request)
	GetMessages(w http.ResponseWriter, r *http.Request)
}

type WebhookHandler interface {
	HandleEvent(w http.ResponseWriter, r *http.Request)
}

type PayoutHandler interface {
	Run(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	WalletHandler  WalletHandler
	SessionHandler SessionHandler
	MessageHandler MessageHandler
	WebhookHandler WebhookHandler
	PayoutHandler  PayoutHandler
}

func New(s *service.Services, payoutSecretHash string) *Handlers {
	return &Handlers{
		WalletHandler:  wallethandlers.New(s.WalletService, s.CheckoutService),
		SessionHandler: sessionshandlers.New(s.SessionService),
		MessageHandler: messageshandlers.New(s.MessageService),
		WebhookHandler: webhookhandlers.New(s.WebhookService),
		PayoutHandler:  payoutshandlers.New(s.PayoutService, &auth.HashService{}, payoutSecretHash),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		metrics.Middleware,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Use(auth.AuthMiddleware)
		r.Get("/wallet", h.WalletHandler.GetWallet)
		r.Get("/transactions", h.WalletHandler.GetTransactions)
		r.Post("/checkout", h.WalletHandler.Checkout)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.SessionHandler.Schedule)
			r.Post("/{sessionID}/room", h.SessionHandler.Room)
			r.Post("/{sessionID}/complete", h.SessionHandler.Complete)
			r.Post("/{sessionID}/cancel", h.SessionHandler.Cancel)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", h.MessageHandler.SendMessage)
			r.Get("/", h.MessageHandler.GetMessages)
		})
	})

	r.Post("/webhooks/payments", h.WebhookHandler.HandleEvent)
	r.Post("/internal/payouts/run", h.PayoutHandler.Run)

	return r
}
