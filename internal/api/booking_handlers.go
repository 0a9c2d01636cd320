package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"unipark/internal/auth"
	"unipark/internal/entities"
	"unipark/internal/service"

	"github.com/gorilla/mux"
)

type BookingHandler struct {
	Bookings *service.BookingService
	Sessions *service.SessionService
}

func NewBookingHandler(bookings *service.BookingService, sessions *service.SessionService) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Sessions: sessions}
}

func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.Reserve(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.NewBookingResponse(booking, true))
}

func (h *BookingHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bookings, err := h.Bookings.ListOwn(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, entities.NewBookingResponse(&bookings[i], true))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
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
	var req entities.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.Reschedule(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, true))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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
	booking, err := h.Sessions.Cancel(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, false))
}

// Activate starts the session for a booking the caller already knows by id.
func (h *BookingHandler) Activate(w http.ResponseWriter, r *http.Request) {
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
	var req entities.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	booking, err := h.Sessions.Activate(r.Context(), actor, id,
		time.Duration(req.DurationMinutes)*time.Minute, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, false))
}

// CheckIn activates a booking from its QR token.
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token := mux.Vars(r)["token"]
	var req entities.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	booking, err := h.Sessions.CheckIn(r.Context(), actor, token,
		time.Duration(req.DurationMinutes)*time.Minute, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, false))
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
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
	booking, err := h.Sessions.Complete(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, false))
}

// ResolveToken is the staff scanner lookup: token in, booking out.
func (h *BookingHandler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	booking, err := h.Bookings.ResolveToken(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewBookingResponse(booking, false))
}
