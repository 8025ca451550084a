package odata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TokenSource supplies the bearer credential for each request. An empty
// string sends the request unauthenticated.
type TokenSource func() string

// Client talks to the backend's /odata collection endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

// NewClient builds a client for the given backend base URL, e.g.
// "https://localhost:7136". A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) collectionURL(entitySet string) string {
	return c.baseURL + "/odata/" + entitySet
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	return c.httpClient.Do(req)
}

// List fetches one page of an entity set.
func List[T any](ctx context.Context, c *Client, entitySet string, q Query) (Result[T], error) {
	var res Result[T]

	url := c.collectionURL(entitySet)
	if encoded := q.Encode().Encode(); encoded != "" {
		url += "?" + encoded
	}

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, decodeError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, err
	}
	return DecodeCollection[T](body)
}

// Get fetches a single entity by key.
func Get[T any](ctx context.Context, c *Client, entitySet string, key interface{}) (T, error) {
	var entity T

	url := fmt.Sprintf("%s/%v", c.collectionURL(entitySet), key)
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return entity, fmt.Errorf("decoding entity: %w", err)
	}
	return entity, nil
}

// Create POSTs a new entity and returns the backend's created representation.
func Create[T any](ctx context.Context, c *Client, entitySet string, entity T) (T, error) {
	var created T

	resp, err := c.do(ctx, http.MethodPost, c.collectionURL(entitySet), entity)
	if err != nil {
		return created, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return created, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return created, fmt.Errorf("decoding created entity: %w", err)
	}
	return created, nil
}

// Update PUTs an entity by key. The backend may answer 204 No Content, in
// which case the submitted entity is returned unchanged.
func Update[T any](ctx context.Context, c *Client, entitySet string, key interface{}, entity T) (T, error) {
	url := fmt.Sprintf("%s/%v", c.collectionURL(entitySet), key)
	resp, err := c.do(ctx, http.MethodPut, url, entity)
	if err != nil {
		return entity, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return entity, nil
	case http.StatusOK:
		var updated T
		if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
			return entity, fmt.Errorf("decoding updated entity: %w", err)
		}
		return updated, nil
	default:
		return entity, decodeError(resp)
	}
}

// Delete removes an entity by key.
func (c *Client) Delete(ctx context.Context, entitySet string, key interface{}) error {
	url := fmt.Sprintf("%s/%v", c.collectionURL(entitySet), key)
	resp, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

// PostJSON issues a POST against an arbitrary backend path (the /api surface
// rather than /odata) and decodes the response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, payload, out)
}

// PutJSON issues a PUT against an arbitrary backend path.
func (c *Client) PutJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, payload, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	resp, err := c.do(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
