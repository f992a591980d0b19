package messages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/metrics"
	"github.com/lumeva/creditcore/internal/service/volleyservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/lumeva/creditcore/pkg/utils"
)

//go:generate mockgen -source=messages.go -destination=messages_mock.go -package=messages

type Service interface {
	RecordMessage(ctx context.Context, senderID, recipientID int64, kind domain.MessageKind) (*domain.Message, int64, error)
	Messages(ctx context.Context, userID int64) ([]domain.Message, error)
}

type MessageHandler struct {
	service Service
}

func New(service Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// SendMessage godoc
//
//	@Summary		Send a message
//	@Description	Record a message from the authenticated user. The first reply inside the conversation window bills the original sender.
//	@Tags			Messages
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SendMessageRequestDTO	true	"Message to send"
//	@Success		200		{object}	dto.MessageResponseDTO		"Recorded message"
//	@Failure		400		{object}	utils.Response				"Invalid request body"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		422		{object}	utils.Response				"Invalid recipient or kind"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/user/messages [post]
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	var req dto.SendMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, charged, err := h.service.RecordMessage(r.Context(), userID, req.RecipientID, domain.MessageKind(req.Kind))
	if err != nil {
		switch {
		case errors.Is(err, volleyservice.ErrInvalidKind), errors.Is(err, volleyservice.ErrSelfMessage):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if charged > 0 {
		metrics.RecordVolleyCharge("billed")
	} else {
		metrics.RecordVolleyCharge("free")
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.MessageResponseDTO{
		ID:             msg.ID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		Kind:           string(msg.Kind),
		BillingStatus:  string(msg.BillingStatus),
		SentAt:         msg.SentAt,
		ChargedCredits: charged,
	})
}

// GetMessages godoc
//
//	@Summary		Get message history
//	@Description	List messages sent or received by the authenticated user, newest first.
//	@Tags			Messages
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.MessageResponseDTO	"Message history"
//	@Success		204	{object}	utils.Response			"No messages yet"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/messages [get]
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	msgs, err := h.service.Messages(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if len(msgs) == 0 {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	resp := make([]dto.MessageResponseDTO, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, dto.MessageResponseDTO{
			ID:            msg.ID,
			SenderID:      msg.SenderID,
			RecipientID:   msg.RecipientID,
			Kind:          string(msg.Kind),
			BillingStatus: string(msg.BillingStatus),
			SentAt:        msg.SentAt,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
