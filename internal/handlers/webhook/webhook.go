package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/lumeva/creditcore/internal/metrics"
	"github.com/lumeva/creditcore/internal/service/webhookservice"
	"github.com/lumeva/creditcore/pkg/utils"
)

//go:generate mockgen -source=webhook.go -destination=webhook_mock.go -package=webhook

// SignatureHeader carries the payment processor's HMAC over the raw body.
const SignatureHeader = "X-Signature"

type Service interface {
	HandleCheckoutCompleted(ctx context.Context, body []byte, signature string) error
}

type WebhookHandler struct {
	service Service
}

func New(service Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandleEvent godoc
//
//	@Summary		Payment processor webhook
//	@Description	Receive checkout completion events from the payment processor and fulfill the purchased credits. Redeliveries of an already fulfilled event are acknowledged without applying again.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Signature	header		string			true	"HMAC-SHA256 of the raw body, hex encoded"
//	@Success		200			{object}	utils.Response	"Event processed"
//	@Failure		400			{object}	utils.Response	"Malformed event payload"
//	@Failure		401			{object}	utils.Response	"Signature verification failed"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/webhooks/payments [post]
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	err = h.service.HandleCheckoutCompleted(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, webhookservice.ErrBadSignature):
			metrics.RecordWebhookEvent("rejected")
			utils.RespondWithError(w, http.StatusUnauthorized, "Signature verification failed")
		case errors.Is(err, webhookservice.ErrInvalidPayload):
			metrics.RecordWebhookEvent("invalid")
			utils.RespondWithError(w, http.StatusBadRequest, "Malformed event payload")
		default:
			// Non-2xx makes the processor redeliver, which is safe here.
			metrics.RecordWebhookEvent("failed")
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	metrics.RecordWebhookEvent("processed")
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "event processed"})
}
