package hubspot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/hsdest/internal/config"
)

func testHubSpotConfig(baseURL string) config.HubSpotConfig {
	return config.HubSpotConfig{
		APIBaseURL: baseURL,
		TrackURL:   DefaultTrackURL,
		Timeout:    5 * time.Second,
		Breaker: config.BreakerConfig{
			MaxFailures: 2,
			Interval:    time.Minute,
			OpenTimeout: time.Minute,
		},
	}
}

func TestFetchProperties_Success(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("hapikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"plan","type":"string"},{"name":"signup_date","type":"date","label":"Signup"}]`))
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL + "/"))
	props, err := client.FetchProperties(context.Background(), "k&y")
	require.NoError(t, err)

	assert.Equal(t, "/properties/v1/contacts/properties", gotPath)
	assert.Equal(t, "k&y", gotKey)
	assert.Equal(t, []Property{{Name: "plan", Type: "string"}, {Name: "signup_date", Type: "date"}}, props)
}

func TestFetchProperties_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL))
	_, err := client.FetchProperties(context.Background(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamFetchFailure)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchProperties_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL))
	_, err := client.FetchProperties(context.Background(), "key")
	assert.ErrorIs(t, err, ErrUpstreamFetchFailure)
}

func TestFetchProperties_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL))
	for i := 0; i < 4; i++ {
		_, err := client.FetchProperties(context.Background(), "key")
		assert.ErrorIs(t, err, ErrUpstreamFetchFailure)
	}

	assert.Equal(t, int32(2), hits.Load(), "breaker should stop calling after two failures")
}

func TestFetchProperties_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL))
	for i := 0; i < 4; i++ {
		_, _ = client.FetchProperties(context.Background(), "key")
	}
	assert.Equal(t, int32(4), hits.Load())
}

func TestFetchProperties_RedactsKeyFromTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewPropertiesClient(testHubSpotConfig(url))
	_, err := client.FetchProperties(context.Background(), "very-secret")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "very-secret"))
}

func TestFetchProperties_WithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewPropertiesClient(testHubSpotConfig(server.URL), WithHTTPClient(server.Client()))
	props, err := client.FetchProperties(context.Background(), "key")
	require.NoError(t, err)
	assert.Empty(t, props)
}
