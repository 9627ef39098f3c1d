package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// APIError is a non-2xx provider response. Create-side callers treat it
// as a definitive rejection, not a transient transport error.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// taskAPI is the wire surface of the create+poll provider. The HTTP
// transport implements it; tests script it.
type taskAPI interface {
	PostTask(ctx context.Context, endpoint Endpoint, payload interface{}) (*TaskResponse, error)
	GetTask(ctx context.Context, endpoint Endpoint, taskID string) (*TaskResponse, error)
}

// Transport is the rate-limited HTTP client for the provider API.
type Transport struct {
	baseURL    string
	login      string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// TransportOption configures the Transport.
type TransportOption func(*Transport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) TransportOption {
	return func(t *Transport) {
		t.httpClient = httpClient
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) TransportOption {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewTransport creates the provider HTTP transport with basic auth.
func NewTransport(baseURL, login, password string, logger arbor.ILogger, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL:  baseURL,
		login:    login,
		password: password,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// PostTask submits one task to the endpoint's task_post URL. The provider
// expects an array payload even for a single task.
func (t *Transport) PostTask(ctx context.Context, endpoint Endpoint, payload interface{}) (*TaskResponse, error) {
	body, err := json.Marshal([]interface{}{payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return t.do(ctx, http.MethodPost, endpoint.Post, body)
}

// GetTask fetches the current state of a task.
func (t *Transport) GetTask(ctx context.Context, endpoint Endpoint, taskID string) (*TaskResponse, error) {
	return t.do(ctx, http.MethodGet, endpoint.Get+"/"+taskID, nil)
}

func (t *Transport) do(ctx context.Context, method, path string, body []byte) (*TaskResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(t.login, t.password)
	req.Header.Set("Content-Type", "application/json")

	t.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Provider API request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
			Endpoint:   path,
		}
	}

	var result TaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
