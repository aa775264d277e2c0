package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
)

// OrderHandler serves HTTP endpoints for order resources.
type OrderHandler struct {
	usecase orderUsecase
	logger  logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, uc orderUsecase) *OrderHandler {
	return &OrderHandler{usecase: uc, logger: logger}
}

// Create handles POST /orders. Reserved for trusted internal callers; normal
// intake arrives through the payment events topic.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok || !actor.Is(domain.RoleService) {
		writeError(h.logger, w, r, http.StatusForbidden, "forbidden")
		return
	}

	var req createOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.usecase.Create(r.Context(), createOrderToInput(req))
	switch {
	case err == nil:
		w.Header().Set("Location", "/orders/"+o.ID)
		writeJSON(h.logger, w, r, http.StatusCreated, orderToResponse(o))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "order already exists")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Advance handles POST /orders/{id}/status.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req advanceOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.usecase.Advance(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status), actor)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, apperr.ErrNotAuthorized):
		writeError(h.logger, w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "invalid transition")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "delivery already underway")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetByID handles GET /orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	o, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		if !actor.Owns(o.BuyerID) && !actor.Owns(o.SellerID) {
			writeError(h.logger, w, r, http.StatusForbidden, "forbidden")
			return
		}
		writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "order not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
