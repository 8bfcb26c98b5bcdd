package hubspot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shohag/hsdest/internal/models"
)

// Transformer converts analytics events into HubSpot request descriptors.
type Transformer struct {
	mapper  *FieldMapper
	table   *MappingTable
	builder *ResponseBuilder
	workers int
	log     zerolog.Logger
}

// NewTransformer wires the transform stages. workers bounds how many batch
// items are transformed at once; 1 processes a batch strictly in order.
func NewTransformer(mapper *FieldMapper, table *MappingTable, builder *ResponseBuilder, workers int, log zerolog.Logger) *Transformer {
	if workers < 1 {
		workers = 1
	}
	return &Transformer{
		mapper:  mapper,
		table:   table,
		builder: builder,
		workers: workers,
		log:     log,
	}
}

func (t *Transformer) ProcessTrack(ctx context.Context, ev *models.TrackEvent, dest models.Destination) (*models.RequestDescriptor, error) {
	msg := ev.Message
	params := map[string]any{
		"_a": dest.Config.HubID,
		"_n": msg.Event,
	}

	if revenue := msg.Properties["revenue"]; truthy(revenue) {
		params["_m"] = revenue
	} else if value := msg.Properties["value"]; truthy(value) {
		params["_m"] = value
	}

	userProperties, err := t.mapper.GetTransformedJSON(ctx, msg, t.table, dest)
	if err != nil {
		return nil, err
	}
	for k, v := range userProperties {
		params[k] = v
	}

	return t.builder.ResponseBuilderSimple(params, msg, models.EventTrack, dest), nil
}

func (t *Transformer) ProcessIdentify(ctx context.Context, ev *models.IdentifyEvent, dest models.Destination) (*models.RequestDescriptor, error) {
	userProperties, err := t.mapper.GetTransformedJSON(ctx, ev.Message, t.table, dest)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"properties": GetPropertyValueForIdentify(userProperties),
	}
	return t.builder.ResponseBuilderSimple(payload, ev.Message, models.EventIdentify, dest), nil
}

func (t *Transformer) ProcessSingleMessage(ctx context.Context, ev models.Event, dest models.Destination) (*models.RequestDescriptor, error) {
	switch e := ev.(type) {
	case *models.TrackEvent:
		return t.ProcessTrack(ctx, e, dest)
	case *models.IdentifyEvent:
		return t.ProcessIdentify(ctx, e, dest)
	default:
		return nil, newError(KindUnsupportedType, fmt.Sprintf("message type %T is not supported", ev), nil)
	}
}
