package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/engine"
	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.engine.CreateOrder(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderId := mux.Vars(r)["id"]

	order, err := s.engine.GetOrder(r.Context(), orderId)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCheckBalance(w http.ResponseWriter, r *http.Request) {
	orderId := mux.Vars(r)["id"]

	resp, err := s.engine.CheckBalance(r.Context(), orderId)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	orderId := mux.Vars(r)["id"]

	resp, err := s.engine.Settle(r.Context(), orderId)
	if errors.Is(err, engine.ErrSettlementFailure) {
		// The order survives the failure; return its recorded state so
		// the caller can decide between retrying and canceling.
		s.writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderId := mux.Vars(r)["id"]

	if err := s.engine.Cancel(r.Context(), orderId); err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"order_id": orderId,
		"status":   string(models.OrderStatusCanceled),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrNetworkNotFound),
		errors.Is(err, store.ErrTokenNotFound),
		errors.Is(err, store.ErrAccountNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConcurrentModification),
		errors.Is(err, engine.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrRateUnavailable):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, bridge.ErrNetworkUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, bridge.ErrUnsupportedNetwork),
		errors.Is(err, bridge.ErrInvalidAddress):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Unhandled API error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
