// Package content fetches blog content from the headless CMS GraphQL
// endpoint. Every consumer treats a transport failure, a non-2xx status or
// a populated errors array the same way: empty result, show the fallback.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("content endpoint is not configured")

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an endpoint was provided. Unconfigured clients
// degrade to empty results instead of erroring at call sites.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query posts the query to the single endpoint and decodes data into out.
// All failure modes collapse into one error; callers show the fallback.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	if len(payload.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", payload.Errors[0].Message)
	}

	if out != nil && payload.Data != nil {
		return json.Unmarshal(payload.Data, out)
	}
	return nil
}
