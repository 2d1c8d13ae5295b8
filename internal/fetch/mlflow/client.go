// Package mlflow reads experiments, runs and registered models from an
// MLflow tracking server through its REST API.
package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultTrackingURI is used when neither the configuration nor the
// environment names a tracking server.
const DefaultTrackingURI = "http://localhost:5000"

const apiPrefix = "/api/2.0/mlflow/"

// Config holds the connection settings of a Client.
type Config struct {
	// TrackingURI is the base URL of the tracking server.
	TrackingURI string

	// Token is sent as a bearer token. Takes precedence over basic auth.
	Token string

	// Username and Password enable HTTP basic auth.
	Username string
	Password string

	// HTTPClient is used for all requests. Defaults to a client with a
	// one minute timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ConfigFromEnv reads the MLFLOW_TRACKING_* environment variables. An
// explicit uri takes precedence over MLFLOW_TRACKING_URI.
func ConfigFromEnv(uri string) Config {
	if uri == "" {
		uri = os.Getenv("MLFLOW_TRACKING_URI")
	}
	return Config{
		TrackingURI: uri,
		Token:       os.Getenv("MLFLOW_TRACKING_TOKEN"),
		Username:    os.Getenv("MLFLOW_TRACKING_USERNAME"),
		Password:    os.Getenv("MLFLOW_TRACKING_PASSWORD"),
	}
}

// BaseURL returns the tracking URI requests are sent to: TrackingURI
// without trailing slashes, or DefaultTrackingURI when unset.
func (config Config) BaseURL() string {
	uri := config.TrackingURI
	if uri == "" {
		uri = DefaultTrackingURI
	}
	return strings.TrimRight(uri, "/")
}

// Client is a typed client for the MLflow REST API 2.0.
type Client struct {
	baseURL    string
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client and probes the tracking server. An
// unreachable server is logged as a warning, not returned as an error:
// the first real request reports it.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	baseURL := config.BaseURL()
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("mlflow: invalid tracking uri %q", config.TrackingURI)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := &Client{baseURL: baseURL, config: config, httpClient: httpClient, logger: logger}
	if config.TrackingURI == "" {
		logger.Warn("tracking uri not set, using default", "tracking_uri", baseURL)
	}
	if config.Token == "" && config.Username == "" && config.Password == "" {
		logger.Debug("no tracking server credentials configured")
	}
	client.probe(ctx)
	return client, nil
}

// TrackingURI returns the base URL requests are sent to.
func (client *Client) TrackingURI() string {
	return client.baseURL
}

func (client *Client) probe(ctx context.Context) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL, nil)
	if err != nil {
		return
	}
	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Warn("cannot reach tracking server", "tracking_uri", client.baseURL, "error", err)
		return
	}
	response.Body.Close()
}

// APIError is a non-2xx response of the tracking server.
type APIError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Code       string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mlflow: %s %s: %d %s: %s", e.Method, e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("mlflow: %s %s: %d", e.Method, e.Endpoint, e.StatusCode)
}

// do sends one request to endpoint and decodes the JSON response into result.
func (client *Client) do(ctx context.Context, method, endpoint string, query url.Values, requestBody, result any) error {
	target := client.baseURL + apiPrefix + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("mlflow: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("mlflow: creating request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	switch {
	case client.config.Token != "":
		request.Header.Set("Authorization", "Bearer "+client.config.Token)
	case client.config.Username != "" || client.config.Password != "":
		request.SetBasicAuth(client.config.Username, client.config.Password)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mlflow: %s %s: %w", method, endpoint, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("mlflow: reading %s response: %w", endpoint, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := &APIError{StatusCode: response.StatusCode, Method: method, Endpoint: endpoint}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("mlflow: decoding %s response: %w", endpoint, err)
	}
	return nil
}

func (client *Client) get(ctx context.Context, endpoint string, query url.Values, result any) error {
	return client.do(ctx, http.MethodGet, endpoint, query, nil, result)
}

func (client *Client) post(ctx context.Context, endpoint string, requestBody, result any) error {
	return client.do(ctx, http.MethodPost, endpoint, nil, requestBody, result)
}
