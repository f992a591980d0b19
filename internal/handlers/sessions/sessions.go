package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/metrics"
	"github.com/lumeva/creditcore/internal/service/reservationservice"
	"github.com/lumeva/creditcore/internal/service/walletservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/lumeva/creditcore/pkg/utils"
)

//go:generate mockgen -source=sessions.go -destination=sessions_mock.go -package=sessions

type Service interface {
	Schedule(ctx context.Context, payerID, payeeID, minutes, perMinuteRate int64) (*domain.Session, *domain.CreditReservation, error)
	EnsureRoom(ctx context.Context, sessionID int64) (string, error)
	RoomToken(ctx context.Context, sessionID, userID int64) (string, error)
	Complete(ctx context.Context, sessionID, actualMinutes int64) (*domain.CreditReservation, error)
	Cancel(ctx context.Context, sessionID int64) (*domain.CreditReservation, error)
}

type SessionHandler struct {
	service Service
}

func New(service Service) *SessionHandler {
	return &SessionHandler{service: service}
}

// Schedule godoc
//
//	@Summary		Schedule a session
//	@Description	Reserve credits from the authenticated payer for a session with the given payee.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ScheduleSessionRequestDTO	true	"Session to schedule"
//	@Success		200		{object}	dto.SessionResponseDTO			"Scheduled session"
//	@Failure		400		{object}	utils.Response					"Invalid request body"
//	@Failure		401		{object}	utils.Response					"User not authorized"
//	@Failure		402		{object}	utils.Response					"Insufficient credit balance"
//	@Failure		409		{object}	utils.Response					"Balance changed concurrently, retry"
//	@Failure		422		{object}	utils.Response					"Rate or duration out of range"
//	@Failure		500		{object}	utils.Response					"Internal server error"
//	@Router			/api/user/sessions [post]
func (h *SessionHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	var req dto.ScheduleSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, reservation, err := h.service.Schedule(r.Context(), userID, req.PayeeID, req.ScheduledMinutes, req.PerMinuteRate)
	if err != nil {
		switch {
		case errors.Is(err, reservationservice.ErrInvalidRate), errors.Is(err, reservationservice.ErrInvalidDuration):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, walletservice.ErrInsufficientBalance):
			utils.RespondWithError(w, http.StatusPaymentRequired, "Insufficient credit balance")
		case errors.Is(err, walletservice.ErrContention):
			utils.RespondWithError(w, http.StatusConflict, "Balance changed concurrently, retry")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	metrics.RecordReservation("scheduled")
	utils.RespondWithJSON(w, http.StatusOK, dto.SessionResponseDTO{
		ID:               session.ID,
		PayerID:          session.PayerID,
		PayeeID:          session.PayeeID,
		ScheduledMinutes: session.ScheduledMinutes,
		PerMinuteRate:    session.PerMinuteRate,
		ReservedCredits:  reservation.Amount,
	})
}

// Room godoc
//
//	@Summary		Get the session room
//	@Description	Ensure the external room exists for the session and issue a join token for the caller.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		json
//	@Param			sessionID	path		int						true	"Session ID"
//	@Success		200			{object}	dto.RoomResponseDTO		"Room URL and join token"
//	@Failure		400			{object}	utils.Response			"Invalid session ID"
//	@Failure		401			{object}	utils.Response			"User not authorized"
//	@Failure		404			{object}	utils.Response			"Session not found"
//	@Failure		502			{object}	utils.Response			"Room provider unavailable"
//	@Router			/api/user/sessions/{sessionID}/room [post]
func (h *SessionHandler) Room(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int64)

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	roomURL, err := h.service.EnsureRoom(r.Context(), sessionID)
	if err != nil {
		h.respondRoomError(w, err)
		return
	}

	token, err := h.service.RoomToken(r.Context(), sessionID, userID)
	if err != nil {
		h.respondRoomError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.RoomResponseDTO{
		RoomURL: roomURL,
		Token:   token,
	})
}

func (h *SessionHandler) respondRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservationservice.ErrSessionNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, reservationservice.ErrRoomUnavailable):
		utils.RespondWithError(w, http.StatusBadGateway, "Room provider unavailable")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Complete godoc
//
//	@Summary		Complete a session
//	@Description	Charge the reservation for the minutes actually used and refund the remainder.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			sessionID	path		int								true	"Session ID"
//	@Param			request		body		dto.CompleteSessionRequestDTO	true	"Actual session usage"
//	@Success		200			{object}	dto.ReservationResponseDTO		"Resolved reservation"
//	@Failure		400			{object}	utils.Response					"Invalid request"
//	@Failure		401			{object}	utils.Response					"User not authorized"
//	@Failure		404			{object}	utils.Response					"Session or reservation not found"
//	@Failure		422			{object}	utils.Response					"Invalid actual minutes"
//	@Failure		500			{object}	utils.Response					"Internal server error"
//	@Router			/api/user/sessions/{sessionID}/complete [post]
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	var req dto.CompleteSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reservation, err := h.service.Complete(r.Context(), sessionID, req.ActualMinutes)
	if err != nil {
		h.respondResolveError(w, err)
		return
	}

	metrics.RecordReservation(string(reservation.Status))
	utils.RespondWithJSON(w, http.StatusOK, reservationDTO(reservation))
}

// Cancel godoc
//
//	@Summary		Cancel a session
//	@Description	Release the full reservation back to the payer and tear down the session room.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		json
//	@Param			sessionID	path		int							true	"Session ID"
//	@Success		200			{object}	dto.ReservationResponseDTO	"Resolved reservation"
//	@Failure		400			{object}	utils.Response				"Invalid session ID"
//	@Failure		401			{object}	utils.Response				"User not authorized"
//	@Failure		404			{object}	utils.Response				"Session or reservation not found"
//	@Failure		500			{object}	utils.Response				"Internal server error"
//	@Router			/api/user/sessions/{sessionID}/cancel [post]
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	reservation, err := h.service.Cancel(r.Context(), sessionID)
	if err != nil {
		h.respondResolveError(w, err)
		return
	}

	metrics.RecordReservation(string(reservation.Status))
	utils.RespondWithJSON(w, http.StatusOK, reservationDTO(reservation))
}

func (h *SessionHandler) respondResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservationservice.ErrInvalidDuration):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, reservationservice.ErrSessionNotFound), errors.Is(err, reservationservice.ErrReservationNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func reservationDTO(r *domain.CreditReservation) dto.ReservationResponseDTO {
	return dto.ReservationResponseDTO{
		SessionID:       r.SessionID,
		Amount:          r.Amount,
		Status:          string(r.Status),
		ChargedCredits:  r.ChargedCredits,
		RefundedCredits: r.RefundedCredits,
		ResolvedAt:      r.ResolvedAt,
	}
}
