package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Envelope wraps one event for batch submission. Message holds either a raw
// analytics event or a RequestDescriptor built by an earlier pass.
type Envelope struct {
	Message     json.RawMessage `json:"message"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Destination Destination     `json:"destination"`
}

// Processed reports whether the envelope already carries a request
// descriptor, that is whether its message has a truthy statusCode.
func (e Envelope) Processed() (bool, error) {
	var probe struct {
		StatusCode any `json:"statusCode"`
	}
	if err := json.Unmarshal(e.Message, &probe); err != nil {
		return false, fmt.Errorf("decode message: %w", err)
	}

	switch v := probe.StatusCode.(type) {
	case nil:
		return false, nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	case string:
		return v != "", nil
	case bool:
		return v, nil
	default:
		return true, nil
	}
}

func (e Envelope) DecodeMessage() (*Message, error) {
	var msg Message
	if err := json.Unmarshal(e.Message, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// BatchedRequest is the request carried by a BatchResult. A request built
// here is encoded from its descriptor; a request that arrived already
// processed is emitted byte for byte as received.
type BatchedRequest struct {
	*RequestDescriptor
	raw json.RawMessage
}

func NewBatchedRequest(req *RequestDescriptor) *BatchedRequest {
	return &BatchedRequest{RequestDescriptor: req}
}

// RawBatchedRequest wraps an already processed message. The descriptor
// fields are filled on a best-effort basis for inspection only.
func RawBatchedRequest(raw json.RawMessage) *BatchedRequest {
	b := &BatchedRequest{}
	b.UnmarshalJSON(raw)
	return b
}

// Raw returns the JSON the request was received as, or nil for a request
// built from a descriptor.
func (b *BatchedRequest) Raw() json.RawMessage {
	return b.raw
}

func (b BatchedRequest) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	return json.Marshal(b.RequestDescriptor)
}

func (b *BatchedRequest) UnmarshalJSON(data []byte) error {
	b.raw = append(json.RawMessage(nil), data...)
	var req RequestDescriptor
	if err := json.Unmarshal(data, &req); err == nil {
		b.RequestDescriptor = &req
	} else {
		b.RequestDescriptor = nil
	}
	return nil
}

type BatchResult struct {
	BatchedRequest *BatchedRequest   `json:"batchedRequest"`
	Metadata       []json.RawMessage `json:"metadata"`
	Destination    Destination       `json:"destination"`
}

func NewBatchResult(req *BatchedRequest, metadata json.RawMessage, dest Destination) BatchResult {
	if metadata == nil {
		metadata = json.RawMessage("null")
	}
	return BatchResult{
		BatchedRequest: req,
		Metadata:       []json.RawMessage{metadata},
		Destination:    dest,
	}
}

type ItemStatus string

const (
	ItemOK    ItemStatus = "ok"
	ItemError ItemStatus = "error"
)

// ItemResult is the outcome of one envelope in a batch. Exactly one of
// Result or Error is set.
type ItemResult struct {
	Index     int          `json:"index"`
	Status    ItemStatus   `json:"status"`
	Result    *BatchResult `json:"result,omitempty"`
	ErrorKind string       `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`
}
