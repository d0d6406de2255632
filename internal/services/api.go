// API service for making raw HTTP requests to the external playlist service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// APIService provides methods for making raw HTTP requests to the external playlist service.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the external playlist service.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Post performs a POST request with the given JSON data and returns the buffered response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	resp, err := a.Open(ctx, path, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// Open performs a POST request with the given JSON data and returns the unread response.
//
// The caller must close the response body.
func (a *APIService) Open(ctx context.Context, path string, data []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// PostJSON marshals payload and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

// failure converts a non-success response into a [*ServiceError].
//
// A body of {"detail": "<non-empty string>"} is structured; anything else is not.
func failure(op string, status int, body []byte) *ServiceError {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
			return &ServiceError{Op: op, Kind: KindStructured, Status: status, Detail: detail}
		}
	}
	return &ServiceError{Op: op, Kind: KindUnstructured, Status: status}
}

func unreachable(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Kind: KindTransport, Err: err}
}
