package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
)

// DispatchHandler serves the driver-facing delivery endpoints.
type DispatchHandler struct {
	usecase dispatchUsecase
	logger  logx.Logger
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(logger logx.Logger, uc dispatchUsecase) *DispatchHandler {
	return &DispatchHandler{usecase: uc, logger: logger}
}

// ListOpen handles GET /deliveries/open.
func (h *DispatchHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	driverID, ok := driverFrom(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusForbidden, "driver token required")
		return
	}

	list, err := h.usecase.ListOpen(r.Context(), driverID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, deliveriesToResponse(list))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "driver not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Claim handles POST /deliveries/{id}/claim.
func (h *DispatchHandler) Claim(w http.ResponseWriter, r *http.Request) {
	driverID, ok := driverFrom(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusForbidden, "driver token required")
		return
	}

	d, err := h.usecase.Claim(r.Context(), chi.URLParam(r, "id"), driverID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, apperr.ErrAlreadyClaimed):
		writeError(h.logger, w, r, http.StatusConflict, "already claimed")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "driver offline")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Advance handles POST /deliveries/{id}/status.
func (h *DispatchHandler) Advance(w http.ResponseWriter, r *http.Request) {
	driverID, ok := driverFrom(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusForbidden, "driver token required")
		return
	}

	var req advanceDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	d, err := h.usecase.Advance(r.Context(), chi.URLParam(r, "id"), driverID, domain.DeliveryStatus(req.Status))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, apperr.ErrNotAuthorized):
		writeError(h.logger, w, r, http.StatusForbidden, "not your delivery")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "invalid transition")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
