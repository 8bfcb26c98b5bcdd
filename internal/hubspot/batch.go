package hubspot

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/shohag/hsdest/internal/metrics"
	"github.com/shohag/hsdest/internal/models"
)

// Process validates the message of a single envelope.
func (t *Transformer) Process(env models.Envelope) (models.Event, error) {
	msg, err := env.DecodeMessage()
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid message", err)
	}
	return FilterMessage(msg)
}

// BatchResults transforms every envelope and reports one result per input,
// in input order. Envelopes that already carry a request descriptor are
// passed through untouched. A failing item never affects the others.
func (t *Transformer) BatchResults(ctx context.Context, envs []models.Envelope) []models.ItemResult {
	start := time.Now()
	defer func() {
		metrics.BatchesTotal.Inc()
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	indices := make([]int, len(envs))
	for i := range indices {
		indices[i] = i
	}

	mapper := iter.Mapper[int, models.ItemResult]{MaxGoroutines: t.workers}
	return mapper.Map(indices, func(i *int) models.ItemResult {
		return t.processEnvelope(ctx, *i, envs[*i])
	})
}

// Batch transforms the envelopes and returns only the successful results,
// in input order. Failed items are logged and left out.
func (t *Transformer) Batch(ctx context.Context, envs []models.Envelope) []models.BatchResult {
	log := t.log.With().Str("batch_id", models.NewID("bat")).Logger()

	items := t.BatchResults(ctx, envs)
	out := make([]models.BatchResult, 0, len(items))
	for _, it := range items {
		if it.Status == models.ItemOK {
			out = append(out, *it.Result)
			continue
		}
		log.Error().
			Int("index", it.Index).
			Str("kind", it.ErrorKind).
			Str("destination_id", envs[it.Index].Destination.ID).
			Str("error", it.Error).
			Msg("dropping batch item")
	}

	log.Debug().
		Int("received", len(envs)).
		Int("transformed", len(out)).
		Msg("batch transformed")
	return out
}

func (t *Transformer) processEnvelope(ctx context.Context, index int, env models.Envelope) models.ItemResult {
	req, err := t.transformEnvelope(ctx, env)
	if err != nil {
		kind := KindOf(err)
		metrics.ItemsTotal.WithLabelValues("error").Inc()
		metrics.TransformErrors.WithLabelValues(string(kind)).Inc()
		return models.ItemResult{
			Index:     index,
			Status:    models.ItemError,
			ErrorKind: string(kind),
			Error:     err.Error(),
		}
	}

	metrics.ItemsTotal.WithLabelValues("ok").Inc()
	result := models.NewBatchResult(req, env.Metadata, env.Destination)
	return models.ItemResult{
		Index:  index,
		Status: models.ItemOK,
		Result: &result,
	}
}

func (t *Transformer) transformEnvelope(ctx context.Context, env models.Envelope) (*models.BatchedRequest, error) {
	processed, err := env.Processed()
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid message", err)
	}
	if processed {
		return models.RawBatchedRequest(env.Message), nil
	}

	ev, err := t.Process(env)
	if err != nil {
		return nil, err
	}
	req, err := t.ProcessSingleMessage(ctx, ev, env.Destination)
	if err != nil {
		return nil, err
	}
	return models.NewBatchedRequest(req), nil
}
