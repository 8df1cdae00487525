// Package client performs the HTTP calls for one resource collection:
// list, get, create, update, delete against a conventional REST base path.
// No retries are performed; a failed call surfaces immediately.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"utsavya/internal/item"
)

// NetworkError means the request never produced a server response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError wraps a non-2xx response. Server-side validation rejections are
// not structurally distinguished; they arrive here with the raw body.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status=%d body=%s", e.Status, e.Body)
}

// Payload is an encoded request body. The client sets the Content-Type header
// from it, never the caller.
type Payload struct {
	ContentType string
	Body        []byte
}

// JSONPayload encodes v as an application/json payload.
func JSONPayload(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Payload{}, err
	}
	return Payload{ContentType: "application/json", Body: b}, nil
}

// Collection is a client for one resource endpoint.
type Collection struct {
	BaseURL    string
	Path       string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a collection client with sane defaults. The HTTP client is
// fixed here so concurrent calls never mutate the Collection.
func New(baseURL, path string) *Collection {
	timeout := 10 * time.Second
	return &Collection{
		BaseURL:    baseURL,
		Path:       path,
		Timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// List fetches the full collection.
func (c *Collection) List(ctx context.Context) ([]item.Item, error) {
	var items []item.Item
	if err := c.do(ctx, http.MethodGet, c.endpoint(""), Payload{}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches one record by id.
func (c *Collection) Get(ctx context.Context, id string) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodGet, c.endpoint(id), Payload{}, &it)
	return it, err
}

// Create posts a new record and returns the canonical representation.
func (c *Collection) Create(ctx context.Context, p Payload) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPost, c.endpoint(""), p, &it)
	return it, err
}

// Update replaces a record by id and returns the canonical representation.
func (c *Collection) Update(ctx context.Context, id string, p Payload) (item.Item, error) {
	var it item.Item
	err := c.do(ctx, http.MethodPut, c.endpoint(id), p, &it)
	return it, err
}

// Delete removes a record by id. Any 2xx is success, even with an empty body.
func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(id), Payload{}, nil)
}

func (c *Collection) endpoint(id string) string {
	base := strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.Path, "/")
	if id == "" {
		return base
	}
	return base + "/" + url.PathEscape(id)
}

func (c *Collection) do(ctx context.Context, method, endpoint string, p Payload, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	var body io.Reader
	if p.Body != nil {
		body = bytes.NewReader(p.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if p.ContentType != "" {
		req.Header.Set("Content-Type", p.ContentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &ServerError{Status: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
