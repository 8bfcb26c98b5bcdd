package models

import "net/http"

const (
	RequestVersion  = "1"
	RequestTypeREST = "REST"
	StatusProcessed = http.StatusOK
)

type RequestBody struct {
	JSON      map[string]any `json:"JSON"`
	JSONArray map[string]any `json:"JSON_ARRAY"`
	XML       map[string]any `json:"XML"`
	Form      map[string]any `json:"FORM"`
}

// RequestDescriptor describes an HTTP request for the delivery layer to
// execute. A non-zero StatusCode marks it as already transformed.
type RequestDescriptor struct {
	Version    string            `json:"version"`
	Type       string            `json:"type"`
	Method     string            `json:"method"`
	Endpoint   string            `json:"endpoint"`
	Headers    map[string]string `json:"headers"`
	Params     map[string]any    `json:"params"`
	Body       RequestBody       `json:"body"`
	Files      map[string]any    `json:"files"`
	UserID     string            `json:"userId"`
	StatusCode int               `json:"statusCode"`
}

func NewRequestDescriptor() *RequestDescriptor {
	return &RequestDescriptor{
		Version: RequestVersion,
		Type:    RequestTypeREST,
		Method:  http.MethodPost,
		Headers: map[string]string{},
		Params:  map[string]any{},
		Body: RequestBody{
			JSON:      map[string]any{},
			JSONArray: map[string]any{},
			XML:       map[string]any{},
			Form:      map[string]any{},
		},
		Files: map[string]any{},
	}
}
