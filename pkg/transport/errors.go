package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/storage"
)

// StatusFromError maps a handler error to an HTTP status code and the
// message shown to the client. Unknown errors become a generic 500 so
// internal details are not leaked.
func StatusFromError(err error) (int, string) {
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, api.MsgConflict
	default:
		return http.StatusInternalServerError, api.MsgInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the {"error": message} body with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, api.ErrorResponse{Error: message})
}
