package api

import (
	"net/http"
	"strconv"
	"time"

	"unipark/internal/auth"
	"unipark/internal/entities"
	"unipark/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Bookings *service.BookingService
	Sessions *service.SessionService
}

func NewAdminHandler(bookings *service.BookingService, sessions *service.SessionService) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Sessions: sessions}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")
	areaID := 0
	if raw := r.URL.Query().Get("area_id"); raw != "" {
		var err error
		areaID, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid area_id", http.StatusBadRequest)
			return
		}
	}
	bookings, err := h.Bookings.AdminList(r.Context(), date, areaID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, entities.NewBookingResponse(&bookings[i], false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) PurgeBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid booking ID", http.StatusBadRequest)
		return
	}
	if err := h.Bookings.Purge(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking purged"})
}

// RunSweep triggers the auto-complete sweep on demand, outside the cron
// schedule.
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := h.Sessions.AutoCompleteExpired(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"completed": swept})
}
