package api

import (
	"encoding/json"
	"net/http"

	"github.com/shohag/hsdest/internal/hubspot"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeTransformError maps a transform error to its status by kind.
func writeTransformError(w http.ResponseWriter, err error) {
	kind := hubspot.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), errorResponse{Error: err.Error(), Kind: string(kind)})
}
