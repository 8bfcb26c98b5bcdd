package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shohag/hsdest/internal/models"
)

// staticSchema is a SchemaProvider returning a fixed schema or error.
type staticSchema struct {
	schema PropertySchema
	err    error
	calls  atomic.Int32
}

func (s *staticSchema) GetProperties(ctx context.Context, dest models.Destination) (PropertySchema, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.schema, nil
}

// fakeFetcher is a PropertyFetcher that counts calls per API key.
type fakeFetcher struct {
	props []Property
	err   error
	calls atomic.Int32
	block chan struct{}
}

func (f *fakeFetcher) FetchProperties(ctx context.Context, apiKey string) ([]Property, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.props, nil
}

func testDestination(apiKey, hubID string) models.Destination {
	return models.Destination{
		ID:     "dest-" + hubID,
		Config: models.DestinationConfig{APIKey: apiKey, HubID: hubID},
	}
}

func newTestTransformer(schema SchemaProvider, workers int, log zerolog.Logger) *Transformer {
	return NewTransformer(
		NewFieldMapper(schema),
		DefaultMappingTable(),
		NewResponseBuilder("", ""),
		workers,
		log,
	)
}

func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// decodeMessage builds a Message the way the pipeline delivers it, so
// numbers arrive as float64.
func decodeMessage(t *testing.T, raw string) *models.Message {
	t.Helper()
	var msg models.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}
