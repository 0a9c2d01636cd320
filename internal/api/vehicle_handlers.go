package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"unipark/internal/auth"
	"unipark/internal/db"
	"unipark/internal/entities"
	"unipark/internal/service"

	"github.com/gorilla/mux"
)

type VehicleHandler struct {
	Service *service.VehicleService
}

func NewVehicleHandler(svc *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{Service: svc}
}

func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.RegisterVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.Register(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicleResponse(vehicle))
}

func (h *VehicleHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	vehicles, err := h.Service.ListOwn(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleResponses(vehicles))
}

func (h *VehicleHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Service.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleResponses(vehicles))
}

func (h *VehicleHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid vehicle ID", http.StatusBadRequest)
		return
	}
	var req entities.VehicleDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.Decide(r.Context(), actor, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleResponse(vehicle))
}

func vehicleResponse(v *db.Vehicle) entities.VehicleResponse {
	return entities.VehicleResponse{
		ID:        v.ID,
		OwnerID:   v.OwnerID,
		Plate:     v.Plate,
		Model:     v.Model,
		Status:    string(v.Status),
		CreatedAt: v.CreatedAt,
	}
}

func vehicleResponses(vehicles []db.Vehicle) []entities.VehicleResponse {
	resp := make([]entities.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		resp = append(resp, vehicleResponse(&vehicles[i]))
	}
	return resp
}
