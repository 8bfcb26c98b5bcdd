package hubspot

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shohag/hsdest/internal/models"
)

func TestResponseBuilderSimple_Track(t *testing.T) {
	b := NewResponseBuilder("", "")
	msg := decodeMessage(t, `{"type":"track","anonymousId":"anon-1","event":"Signed Up"}`)

	resp := b.ResponseBuilderSimple(map[string]any{"_a": "H1", "_n": "Signed Up", "gone": nil}, msg, models.EventTrack, testDestination("key", "H1"))

	assert.Equal(t, http.MethodGet, resp.Method)
	assert.Equal(t, DefaultTrackURL, resp.Endpoint)
	assert.Equal(t, map[string]any{"_a": "H1", "_n": "Signed Up"}, resp.Params)
	assert.Empty(t, resp.Body.JSON)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "anon-1", resp.UserID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "REST", resp.Type)
}

func TestResponseBuilderSimple_IdentifyByEmail(t *testing.T) {
	b := NewResponseBuilder("", "")
	msg := decodeMessage(t, `{"type":"identify","anonymousId":"anon-2","traits":{"email":"a@b.com"}}`)
	payload := map[string]any{"properties": []PropertyValue{{Property: "email", Value: "a@b.com"}}}

	resp := b.ResponseBuilderSimple(payload, msg, models.EventIdentify, testDestination("secret-key", "H1"))

	assert.Equal(t, http.MethodPost, resp.Method)
	assert.Equal(t, "https://api.hubapi.com/contacts/v1/contact/createOrUpdate/email/a@b.com", resp.Endpoint)
	assert.Equal(t, map[string]any{"hapikey": "secret-key"}, resp.Params)
	assert.Equal(t, payload, resp.Body.JSON)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "anon-2", resp.UserID)
}

func TestResponseBuilderSimple_IdentifyWithoutEmail(t *testing.T) {
	b := NewResponseBuilder("", "https://hubspot.test/")
	msg := decodeMessage(t, `{"type":"identify","traits":{"firstName":"Ada"}}`)

	resp := b.ResponseBuilderSimple(map[string]any{"properties": []PropertyValue{}}, msg, models.EventIdentify, testDestination("key", "H1"))

	assert.Equal(t, http.MethodPost, resp.Method)
	assert.Equal(t, "https://hubspot.test/contacts/v1/contact", resp.Endpoint)
}

func TestResponseBuilderSimple_EscapesEmail(t *testing.T) {
	b := NewResponseBuilder("", "")
	msg := decodeMessage(t, `{"type":"identify","traits":{"email":"a/b@c.com"}}`)

	resp := b.ResponseBuilderSimple(map[string]any{}, msg, models.EventIdentify, testDestination("key", "H1"))
	assert.Equal(t, "https://api.hubapi.com/contacts/v1/contact/createOrUpdate/email/a%2Fb@c.com", resp.Endpoint)
}

func TestGetPropertyValueForIdentify(t *testing.T) {
	got := GetPropertyValueForIdentify(map[string]any{
		"lastname":  "Lovelace",
		"email":     "a@b.com",
		"firstname": "Ada",
		"empty":     nil,
	})

	assert.Equal(t, []PropertyValue{
		{Property: "email", Value: "a@b.com"},
		{Property: "firstname", Value: "Ada"},
		{Property: "lastname", Value: "Lovelace"},
	}, got)

	assert.Empty(t, GetPropertyValueForIdentify(map[string]any{}))
}
