package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drquandary/COC/internal/auth"
	"github.com/drquandary/COC/internal/service"
	"github.com/drquandary/COC/pkg/engine"
)

// OrderHandler handles order submission endpoints.
type OrderHandler struct {
	turnSvc *service.TurnService
	hub     *Hub
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(turnSvc *service.TurnService, hub *Hub) *OrderHandler {
	return &OrderHandler{turnSvc: turnSvc, hub: hub}
}

// SubmitOrders handles POST /api/v1/games/{id}/orders
//
// The batch replaces any orders the player submitted earlier this turn.
// An empty batch is a valid submission and counts the player as done.
func (h *OrderHandler) SubmitOrders(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Orders []engine.OrderInput `json:"orders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.turnSvc.SubmitOrders(r.Context(), gameID, userID, req.Orders)
	if err != nil {
		var orderErr *engine.OrderError
		if errors.As(err, &orderErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": orderErr.Message,
				"code":  string(orderErr.Code),
			})
			return
		}
		httpStatus := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			httpStatus = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameNotActive) || errors.Is(err, service.ErrNotInGame) ||
			errors.Is(err, service.ErrNoCurrentTurn) {
			httpStatus = http.StatusBadRequest
		}
		writeError(w, httpStatus, err.Error())
		return
	}

	h.hub.BroadcastToGame(gameID, WSEvent{
		Type:   EventOrdersIn,
		GameID: gameID,
		Data: map[string]any{
			"submitted": status.Submitted,
			"total":     status.Total,
		},
	})

	// If everyone has submitted, trigger early resolution.
	// Use a detached context since the request context is cancelled on handler return.
	if status.AllSubmitted {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.turnSvc.ResolveTurnEarly(ctx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Early resolution failed")
			}
		}()
	}

	writeJSON(w, http.StatusOK, status)
}
