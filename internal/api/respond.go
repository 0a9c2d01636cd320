package api

import (
	"encoding/json"
	"net/http"

	apperr "unipark/internal/errors"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the mapped status and a user-safe message; internal
// failures keep their detail in the server log only.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	http.Error(w, apperr.UserMessage(err), status)
}
