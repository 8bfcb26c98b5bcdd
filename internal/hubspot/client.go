package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/shohag/hsdest/internal/config"
	"github.com/shohag/hsdest/internal/metrics"
)

const propertiesPath = "/properties/v1/contacts/properties"

// Property is one entry of HubSpot's contact property definitions.
type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PropertyFetcher loads the contact property definitions for an API key.
type PropertyFetcher interface {
	FetchProperties(ctx context.Context, apiKey string) ([]Property, error)
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// PropertiesClient fetches property definitions through a circuit breaker.
// Failed fetches are not retried.
type PropertiesClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Property]
	baseURL string
}

type ClientOption func(*PropertiesClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(pc *PropertiesClient) {
		pc.client = c
	}
}

func NewPropertiesClient(cfg config.HubSpotConfig, opts ...ClientOption) *PropertiesClient {
	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	pc := &PropertiesClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		breaker: gobreaker.NewCircuitBreaker[[]Property](gobreaker.Settings{
			Name:        "hubspot-properties",
			MaxRequests: 1,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			// A rejected credential says nothing about HubSpot's health.
			IsSuccessful: func(err error) bool {
				var se *statusError
				if errors.As(err, &se) {
					return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
				}
				return err == nil
			},
		}),
	}

	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

func (c *PropertiesClient) FetchProperties(ctx context.Context, apiKey string) ([]Property, error) {
	props, err := c.breaker.Execute(func() ([]Property, error) {
		return c.fetch(ctx, apiKey)
	})
	if err != nil {
		return nil, newError(KindUpstreamFetchFailure, "fetch contact properties", err)
	}
	return props, nil
}

func (c *PropertiesClient) fetch(ctx context.Context, apiKey string) ([]Property, error) {
	endpoint := fmt.Sprintf("%s%s?hapikey=%s", c.baseURL, propertiesPath, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hsdest/1.0")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.SchemaFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SchemaFetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("request failed: %w", redactKey(err, apiKey))
	}
	defer resp.Body.Close()
	metrics.SchemaFetchTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var props []Property
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return props, nil
}

// redactKey keeps the API key out of errors that embed the request URL.
func redactKey(err error, apiKey string) error {
	var ue *url.Error
	if apiKey != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, url.QueryEscape(apiKey), "REDACTED")
	}
	return err
}
