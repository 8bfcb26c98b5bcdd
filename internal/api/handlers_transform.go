package api

import (
	"encoding/json"
	"net/http"

	"github.com/shohag/hsdest/internal/hubspot"
	"github.com/shohag/hsdest/internal/models"
)

// Batches are bounded by the pipeline's batch size; 10MB leaves headroom.
const maxBodySize = 10 << 20

type TransformHandler struct {
	transformer *hubspot.Transformer
}

func NewTransformHandler(transformer *hubspot.Transformer) *TransformHandler {
	return &TransformHandler{transformer: transformer}
}

type processResponse struct {
	Type models.EventType `json:"type"`
}

// Process validates a single envelope without transforming it.
func (h *TransformHandler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var env models.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(env.Message) == 0 {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ev, err := h.transformer.Process(env)
	if err != nil {
		writeTransformError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Type: ev.Type()})
}

func (h *TransformHandler) Batch(w http.ResponseWriter, r *http.Request) {
	envs, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.transformer.Batch(r.Context(), envs))
}

func (h *TransformHandler) BatchResults(w http.ResponseWriter, r *http.Request) {
	envs, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.transformer.BatchResults(r.Context(), envs))
}

func decodeBatch(w http.ResponseWriter, r *http.Request) ([]models.Envelope, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var envs []models.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envs); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON array of envelopes")
		return nil, false
	}
	if envs == nil {
		envs = []models.Envelope{}
	}
	return envs, true
}
