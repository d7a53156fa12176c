package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/timevault/timevault/pkg/api"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

// ownerFrom extracts the authenticated owner set by the auth
// middleware. An empty owner means the middleware chain is broken.
func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(OwnerKey).(string)
	return owner
}
