package resdb

import (
	"context"
	"encoding/json"
	"net/http"

	"resdb-mcp/internal/toolerr"
	"resdb-mcp/internal/util"

	"github.com/tidwall/gjson"
)

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Execute posts a GraphQL document and returns the decoded "data" member.
// A non-empty "errors" member fails the call even when data is present.
func (c *Client) Execute(ctx context.Context, document string, variables map[string]any) (any, error) {
	raw, err := c.execute(ctx, document, variables)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (c *Client) execute(ctx context.Context, document string, variables map[string]any) (gjson.Result, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := c.do(ctx, http.MethodPost, c.graphURL, graphRequest{Query: document, Variables: variables})
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		text, _ := util.TruncateBytes(string(body), maxErrorBody)
		return gjson.Result{}, toolerr.New(toolerr.Transport, "graphql endpoint returned invalid JSON: %s", text)
	}
	if errs := gjson.GetBytes(body, "errors"); hasErrors(errs) {
		return gjson.Result{}, toolerr.New(toolerr.GraphOperation, "GraphQL errors: %s", errs.Raw)
	}
	return gjson.GetBytes(body, "data"), nil
}

func hasErrors(errs gjson.Result) bool {
	if !errs.Exists() || errs.Type == gjson.Null {
		return false
	}
	if errs.IsArray() {
		return len(errs.Array()) > 0
	}
	return true
}

// decode turns a gjson result into plain Go values. A missing or null result
// decodes to an empty object.
func decode(result gjson.Result) (any, error) {
	if !result.Exists() || result.Type == gjson.Null {
		return map[string]any{}, nil
	}
	var out any
	if err := json.Unmarshal([]byte(result.Raw), &out); err != nil {
		return nil, toolerr.Wrap(toolerr.Transport, err, "decode graphql data")
	}
	return out, nil
}
