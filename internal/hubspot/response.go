package hubspot

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/shohag/hsdest/internal/models"
)

const (
	DefaultTrackURL   = "https://track.hubspot.com/v1/event"
	DefaultAPIBaseURL = "https://api.hubapi.com"

	contactPath        = "/contacts/v1/contact"
	contactByEmailPath = "/contacts/v1/contact/createOrUpdate/email/"
)

// PropertyValue is one entry of an identify request body.
type PropertyValue struct {
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// ResponseBuilder turns mapped payloads into request descriptors. It only
// describes requests; nothing is sent.
type ResponseBuilder struct {
	trackURL   string
	apiBaseURL string
}

func NewResponseBuilder(trackURL, apiBaseURL string) *ResponseBuilder {
	if trackURL == "" {
		trackURL = DefaultTrackURL
	}
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	return &ResponseBuilder{
		trackURL:   trackURL,
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
	}
}

// ResponseBuilderSimple builds the descriptor for one event. Track events
// become a GET on the event endpoint with the payload as query parameters.
// Identify events become a POST to the contact upsert-by-email endpoint, or
// to the plain create-contact endpoint when the traits carry no email.
func (b *ResponseBuilder) ResponseBuilderSimple(payload map[string]any, msg *models.Message, eventType models.EventType, dest models.Destination) *models.RequestDescriptor {
	resp := models.NewRequestDescriptor()

	if eventType == models.EventTrack {
		resp.Method = http.MethodGet
		resp.Endpoint = b.trackURL
		resp.Params = stripNil(payload)
	} else {
		resp.Method = http.MethodPost
		resp.Params = map[string]any{"hapikey": dest.Config.APIKey}
		if email := traitsOf(msg)["email"]; truthy(email) {
			resp.Endpoint = b.apiBaseURL + contactByEmailPath + url.PathEscape(fmt.Sprint(email))
		} else {
			resp.Endpoint = b.apiBaseURL + contactPath
		}
		resp.Body.JSON = stripNil(payload)
	}

	resp.Headers = map[string]string{
		"Content-Type": "application/json",
	}
	resp.UserID = msg.AnonymousID
	resp.StatusCode = models.StatusProcessed

	return resp
}

// GetPropertyValueForIdentify flattens a property map into the list of
// property/value pairs the contacts API expects, ordered by property name.
// Properties without a value are left out.
func GetPropertyValueForIdentify(propMap map[string]any) []PropertyValue {
	keys := make([]string, 0, len(propMap))
	for k, v := range propMap {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]PropertyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, PropertyValue{Property: k, Value: propMap[k]})
	}
	return out
}
