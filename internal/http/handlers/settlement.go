package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
)

// SettlementHandler serves the customer confirmation and payout endpoints.
type SettlementHandler struct {
	usecase settlementUsecase
	logger  logx.Logger
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(logger logx.Logger, uc settlementUsecase) *SettlementHandler {
	return &SettlementHandler{usecase: uc, logger: logger}
}

type rateDriverRequest struct {
	Rating int `json:"rating"`
}

type settlementResponse struct {
	RequestID     string    `json:"request_id"`
	OrderID       string    `json:"order_id"`
	Gross         int64     `json:"gross"`
	DriverShare   int64     `json:"driver_share"`
	PlatformShare int64     `json:"platform_share"`
	CreatedAt     time.Time `json:"created_at"`
}

func settlementToResponse(rec *domain.SettlementRecord) settlementResponse {
	return settlementResponse{
		RequestID:     rec.RequestID,
		OrderID:       rec.OrderID,
		Gross:         rec.Gross,
		DriverShare:   rec.DriverShare,
		PlatformShare: rec.PlatformShare,
		CreatedAt:     rec.CreatedAt,
	}
}

// Confirm handles POST /deliveries/{id}/confirm. The customer acknowledges
// receipt; if the driver already confirmed, the payout settles.
func (h *SettlementHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !actor.Is(domain.RoleBuyer) {
		writeError(h.logger, w, r, http.StatusForbidden, "buyer token required")
		return
	}

	err := h.usecase.ConfirmByCustomer(r.Context(), chi.URLParam(r, "id"), actor.ID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "confirmed"})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, apperr.ErrNotAuthorized):
		writeError(h.logger, w, r, http.StatusForbidden, "not your order")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "nothing to confirm yet")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetSettlement handles GET /deliveries/{id}/settlement.
func (h *SettlementHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(r); !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	rec, err := h.usecase.GetSettlement(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, settlementToResponse(rec))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, apperr.ErrSettlementNotReady):
		writeError(h.logger, w, r, http.StatusConflict, "not settled yet")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// RateDriver handles POST /deliveries/{id}/rating.
func (h *SettlementHandler) RateDriver(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !actor.Is(domain.RoleBuyer) {
		writeError(h.logger, w, r, http.StatusForbidden, "buyer token required")
		return
	}

	var req rateDriverRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.RateDriver(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Rating)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "rating must be between 1 and 5")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, apperr.ErrNotAuthorized):
		writeError(h.logger, w, r, http.StatusForbidden, "not your order")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "confirm receipt first")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
