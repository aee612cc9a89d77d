package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/promptforge/promptforge/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeErr maps the domain error taxonomy onto HTTP statuses. Store and
// decryption failures are logged with full detail and answered with a
// generic message; nothing internal leaks to the client.
func writeErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var status int
	msg := err.Error()

	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindDecryption:
		status = http.StatusInternalServerError
		slog.Error("decryption failure", "error", err)
		msg = "stored configuration could not be decrypted"
	default:
		status = http.StatusInternalServerError
		slog.Error("internal error", "error", err)
		msg = "internal server error"
	}

	writeJSON(w, status, errorBody{Error: msg, Code: string(kind)})
}
