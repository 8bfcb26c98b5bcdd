package models

import (
	"encoding/json"

	"github.com/spf13/cast"
)

type EventType string

const (
	EventIdentify EventType = "identify"
	EventTrack    EventType = "track"
)

// Message is an analytics event as produced by the collection layer.
// Transforms read from it and never modify it.
type Message struct {
	Type        string         `json:"type"`
	AnonymousID string         `json:"anonymousId,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	Event       string         `json:"event,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Traits      map[string]any `json:"traits,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// UnmarshalJSON accepts any scalar for the identifier fields. Collection
// layers send numeric user ids and event names as often as strings.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var raw struct {
		plain
		Type        any `json:"type"`
		AnonymousID any `json:"anonymousId"`
		UserID      any `json:"userId"`
		Event       any `json:"event"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Message(raw.plain)
	m.Type = cast.ToString(raw.Type)
	m.AnonymousID = cast.ToString(raw.AnonymousID)
	m.UserID = cast.ToString(raw.UserID)
	m.Event = cast.ToString(raw.Event)
	return nil
}

// Event is a validated Message. The only implementations are
// *IdentifyEvent and *TrackEvent.
type Event interface {
	Type() EventType
	Source() *Message
	event()
}

type IdentifyEvent struct {
	Message *Message
	Email   string
}

func (e *IdentifyEvent) Type() EventType  { return EventIdentify }
func (e *IdentifyEvent) Source() *Message { return e.Message }
func (*IdentifyEvent) event()             {}

type TrackEvent struct {
	Message *Message
}

func (e *TrackEvent) Type() EventType  { return EventTrack }
func (e *TrackEvent) Source() *Message { return e.Message }
func (*TrackEvent) event()             {}
