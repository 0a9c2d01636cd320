package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"unipark/internal/entities"
	"unipark/internal/service"

	"github.com/gorilla/mux"
)

type CatalogHandler struct {
	Service *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

// Availability lists bookable spaces free on a date, optionally filtered by
// area. The booking UI renders its choices from this.
func (h *CatalogHandler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter required", http.StatusBadRequest)
		return
	}
	areaID := 0
	if raw := r.URL.Query().Get("area_id"); raw != "" {
		var err error
		areaID, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid area_id", http.StatusBadRequest)
			return
		}
	}
	resp, err := h.Service.ListAvailable(r.Context(), areaID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	area, err := h.Service.CreateArea(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

func (h *CatalogHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Service.ListAreas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (h *CatalogHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	space, err := h.Service.CreateSpace(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, space)
}

func (h *CatalogHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	areaID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid area ID", http.StatusBadRequest)
		return
	}
	spaces, err := h.Service.ListSpaces(r.Context(), areaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

func (h *CatalogHandler) SetBookable(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid space ID", http.StatusBadRequest)
		return
	}
	var req entities.SetBookableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.Service.SetBookable(r.Context(), id, req.Bookable); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Space updated"})
}
