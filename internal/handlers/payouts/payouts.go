package payouts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/metrics"
	"github.com/lumeva/creditcore/internal/service/payoutservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/lumeva/creditcore/pkg/utils"
)

//go:generate mockgen -source=payouts.go -destination=payouts_mock.go -package=payouts

// SecretHeader carries the shared secret for the internal payout trigger.
const SecretHeader = "X-Payout-Secret"

type Service interface {
	Run(ctx context.Context, runID string) (*payoutservice.RunSummary, error)
}

type PayoutHandler struct {
	service    Service
	hasher     auth.HashServiceInterface
	secretHash string
}

// New wires the payout trigger. secretHash is a bcrypt hash of the shared
// secret; when it is empty the endpoint is never authorized.
func New(service Service, hasher auth.HashServiceInterface, secretHash string) *PayoutHandler {
	return &PayoutHandler{
		service:    service,
		hasher:     hasher,
		secretHash: secretHash,
	}
}

// Run godoc
//
//	@Summary		Trigger a payout batch
//	@Description	Select wallets above the payout minimum and transfer their accrued earnings. Intended for schedulers and operators, gated by a shared secret.
//	@Tags			Payouts
//	@Accept			json
//	@Produce		json
//	@Param			X-Payout-Secret	header		string					true	"Shared payout secret"
//	@Param			request			body		dto.PayoutRunRequestDTO	false	"Optional run ID for idempotent retries"
//	@Success		200				{object}	dto.PayoutRunResponseDTO	"Run summary"
//	@Failure		400				{object}	utils.Response				"Invalid request body"
//	@Failure		401				{object}	utils.Response				"Missing or wrong payout secret"
//	@Failure		500				{object}	utils.Response				"Internal server error"
//	@Router			/internal/payouts/run [post]
func (h *PayoutHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.PayoutRunRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	summary, err := h.service.Run(r.Context(), runID)
	if err != nil {
		metrics.RecordPayout("run_failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.RecordPayout("run_completed")
	utils.RespondWithJSON(w, http.StatusOK, dto.PayoutRunResponseDTO{
		RunID:       summary.RunID,
		Eligible:    summary.Eligible,
		Transferred: summary.Transferred,
		Skipped:     summary.Skipped,
		Failed:      summary.Failed,
	})
}

func (h *PayoutHandler) authorized(r *http.Request) bool {
	if h.secretHash == "" {
		return false
	}
	secret := r.Header.Get(SecretHeader)
	if secret == "" {
		return false
	}
	return h.hasher.CompareSecret(h.secretHash, secret)
}
