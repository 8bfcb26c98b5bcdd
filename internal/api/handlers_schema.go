package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/shohag/hsdest/internal/models"
)

// SchemaInvalidator drops cached property schemas.
type SchemaInvalidator interface {
	Invalidate(ctx context.Context, dest models.Destination) error
	InvalidateAll(ctx context.Context) error
}

type SchemaHandler struct {
	schemas SchemaInvalidator
	log     zerolog.Logger
}

func NewSchemaHandler(schemas SchemaInvalidator, log zerolog.Logger) *SchemaHandler {
	return &SchemaHandler{schemas: schemas, log: log}
}

type invalidateResponse struct {
	Invalidated string `json:"invalidated"`
}

// Invalidate drops the schema of the destination in the body, or every
// cached schema when the body is empty.
func (h *SchemaHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64*1024))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if err := h.schemas.InvalidateAll(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("failed to invalidate schema cache")
			writeError(w, http.StatusInternalServerError, "failed to invalidate schema cache")
			return
		}
		h.log.Info().Msg("schema cache cleared")
		writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: "all"})
		return
	}

	var dest models.Destination
	if err := json.Unmarshal(body, &dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid destination")
		return
	}
	if dest.Config.APIKey == "" {
		writeError(w, http.StatusBadRequest, "destination Config.apiKey is required")
		return
	}

	if err := h.schemas.Invalidate(r.Context(), dest); err != nil {
		h.log.Error().Err(err).Str("destination_id", dest.ID).Msg("failed to invalidate schema")
		writeError(w, http.StatusInternalServerError, "failed to invalidate schema")
		return
	}
	h.log.Info().Str("destination_id", dest.ID).Msg("schema invalidated")
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: dest.ID})
}
