// Package client is the HTTP client of the mquery API used by the CLI.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mquery-dev/api/internal/api/common"
	"github.com/mquery-dev/api/pkg/archlist"
)

// envelope mirrors the API response shape
type envelope[T any] struct {
	Payload *T     `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

const emptyResponseMessage = "empty response from server"

// APIError is a failed API call
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Failure code from our HTTP request: %d", e.StatusCode)
	}
	return e.Message
}

// Client talks to an mquery server
type Client struct {
	rest *resty.Client
}

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{rest: rest}
}

// Query returns the platform summary of image
func (c *Client) Query(ctx context.Context, image string) (*archlist.CacheEntry, error) {
	var result envelope[archlist.CacheEntry]
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("image", image).
		SetResult(&result).
		SetError(&result).
		Get("/api/v1/archlist")
	if err != nil {
		return nil, fmt.Errorf("failed to query backend: %w", err)
	}
	return unwrap(resp, &result)
}

// QueryCompose returns the platform summaries of every image in a compose file
func (c *Client) QueryCompose(ctx context.Context, composeContent string) (*common.ComposeLookupResponse, error) {
	var result envelope[common.ComposeLookupResponse]
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(common.ComposeLookupRequest{Compose: composeContent}).
		SetResult(&result).
		SetError(&result).
		Post("/api/v1/archlist/compose")
	if err != nil {
		return nil, fmt.Errorf("failed to query backend: %w", err)
	}
	return unwrap(resp, &result)
}

// Health returns the server's instance information
func (c *Client) Health(ctx context.Context) (*common.HealthInfo, error) {
	var info common.HealthInfo
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("info", "true").
		SetResult(&info).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("failed to query backend: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode()}
	}
	return &info, nil
}

func unwrap[T any](resp *resty.Response, result *envelope[T]) (*T, error) {
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: result.Error}
	}
	if result.Error != "" {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: result.Error}
	}
	if result.Payload == nil {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: emptyResponseMessage}
	}
	return result.Payload, nil
}
