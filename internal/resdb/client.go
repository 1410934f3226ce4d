// Package resdb talks to a ResilientDB node: GraphQL queries and mutations
// against the graph endpoint, and key/value commits against the REST
// endpoint.
package resdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"resdb-mcp/internal/config"
	"resdb-mcp/internal/toolerr"
	"resdb-mcp/internal/util"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const maxErrorBody = 2048

// Client issues single-shot requests against the node. It is safe for
// concurrent use.
type Client struct {
	graphURL   string
	kvURL      string
	credential string
	client     *retryablehttp.Client
}

// New constructs a Client from the process configuration. Retries are
// disabled: every call is attempted exactly once.
func New(cfg config.Config) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	client.CheckRetry = func(context.Context, *http.Response, error) (bool, error) { return false, nil }
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = cfg.RequestTimeout
	return &Client{
		graphURL:   cfg.GraphQLURL,
		kvURL:      cfg.HTTPURL,
		credential: cfg.Credential(),
		client:     client,
	}
}

// UsesREST reports whether key/value calls go to the REST endpoint.
func (c *Client) UsesREST() bool { return c.kvURL != "" }

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.Validation, err, "encode request body")
		}
		body = bytes.NewReader(data)
	}
	request, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.Transport, err, "build request")
	}
	request.Header.Set("Content-Type", "application/json")
	if c.credential != "" {
		request.Header.Set("Authorization", "Bearer "+c.credential)
	}

	resp, err := c.client.Do(request)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.Transport, err, fmt.Sprintf("%s %s", method, url))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.Transport, err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := util.TruncateBytes(string(data), maxErrorBody)
		return nil, toolerr.New(toolerr.Transport, "%s %s returned HTTP %d: %s", method, url, resp.StatusCode, text)
	}
	return data, nil
}
