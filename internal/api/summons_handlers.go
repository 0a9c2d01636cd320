package api

import (
	"encoding/json"
	"net/http"

	"unipark/internal/auth"
	"unipark/internal/entities"
	"unipark/internal/service"

	"github.com/gorilla/mux"
)

type SummonsHandler struct {
	Service *service.SummonsService
}

func NewSummonsHandler(svc *service.SummonsService) *SummonsHandler {
	return &SummonsHandler{Service: svc}
}

func (h *SummonsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.IssueSummonsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	summons, err := h.Service.Issue(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"reference": summons.Reference,
		"message":   "Summons issued",
	})
}

func (h *SummonsHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	resp, err := h.Service.ListOwn(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SummonsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	resp, err := h.Service.StartPayment(r.Context(), actor, mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SummonsHandler) Waive(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Service.Waive(r.Context(), actor, mux.Vars(r)["reference"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Summons waived"})
}
