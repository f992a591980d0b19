package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/payments"
	"github.com/lumeva/creditcore/internal/service/webhookservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/lumeva/creditcore/pkg/utils"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock.go -package=wallet

type Service interface {
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error)
}

type CheckoutService interface {
	CreateCheckout(ctx context.Context, userID int64, productID string, credits int64) (*payments.CheckoutSession, error)
}

type WalletHandler struct {
	walletService   Service
	checkoutService CheckoutService
}

func New(walletService Service, checkoutService CheckoutService) *WalletHandler {
	return &WalletHandler{
		walletService:   walletService,
		checkoutService: checkoutService,
	}
}

// GetWallet godoc
//
//	@Summary		Get current user wallet
//	@Description	Retrieve the spendable credit balance and accrued earnings for the authenticated user.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.WalletResponseDTO	"Current balances"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/wallet [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	wallet, err := h.walletService.GetWallet(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := dto.WalletResponseDTO{}
	if wallet != nil {
		resp.CreditBalance = wallet.CreditBalance
		resp.EarningsCents = wallet.EarningsCents
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GetTransactions godoc
//
//	@Summary		Get transaction history
//	@Description	List the authenticated user's ledger-affecting events, newest first.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TransactionResponseDTO	"Transaction history"
//	@Success		204	{object}	utils.Response				"No transactions yet"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/user/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	transactions, err := h.walletService.Transactions(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	if len(transactions) == 0 {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	resp := make([]dto.TransactionResponseDTO, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, dto.TransactionResponseDTO{
			ID:            tx.ID,
			Type:          string(tx.Type),
			CreditsDelta:  tx.CreditsDelta,
			USDCentsDelta: tx.USDCentsDelta,
			ExternalRef:   tx.ExternalRef,
			Status:        string(tx.Status),
			Description:   tx.Description,
			CreatedAt:     tx.CreatedAt,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Checkout godoc
//
//	@Summary		Create a credit purchase session
//	@Description	Open a checkout session with the payment processor for a credit pack. Fulfillment happens asynchronously via webhook.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CheckoutRequestDTO	true	"Credit pack to purchase"
//	@Success		200		{object}	dto.CheckoutResponseDTO	"Checkout session"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		422		{object}	utils.Response			"Invalid product or quantity"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/checkout [post]
func (h *WalletHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.checkoutService.CreateCheckout(r.Context(), userID, req.ProductID, req.Credits)
	if err != nil {
		switch {
		case errors.Is(err, webhookservice.ErrInvalidPayload):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid product or quantity")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.CheckoutResponseDTO{
		SessionID: session.ID,
		URL:       session.URL,
	})
}
