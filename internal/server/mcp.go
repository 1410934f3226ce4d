// Package server exposes the tool dispatcher over MCP (stdio and streamable
// HTTP) and over a plain JSON HTTP API.
package server

import (
	"context"

	"resdb-mcp/internal/tools"
	"resdb-mcp/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the implementation name announced to MCP clients.
const Name = "resilientdb-mcp"

// NewMCPServer registers every catalog tool on a new MCP server. Each call
// returns one text content item holding the envelope, including calls that
// name a tool outside the catalog.
func NewMCPServer(d *tools.Dispatcher) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version.Version}, nil)
	for _, def := range d.List() {
		s.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, toolHandler(d, def.Name))
	}
	s.AddReceivingMiddleware(unknownToolEnvelope(d))
	return s
}

// unknownToolEnvelope answers tools/call for unregistered names with the
// dispatcher's failure envelope instead of a protocol error.
func unknownToolEnvelope(d *tools.Dispatcher) mcp.Middleware {
	known := make(map[string]bool)
	for _, name := range d.Names() {
		known[name] = true
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			call, ok := req.(*mcp.CallToolRequest)
			if method != "tools/call" || !ok || call.Params == nil || known[call.Params.Name] {
				return next(ctx, method, req)
			}
			return envelopeResult(d.CallJSON(ctx, call.Params.Name, call.Params.Arguments)), nil
		}
	}
}

func toolHandler(d *tools.Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return envelopeResult(d.CallJSON(ctx, name, req.Params.Arguments)), nil
	}
}

func envelopeResult(env tools.Envelope) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: env.Text()}},
		IsError: !env.Success,
	}
}

// ServeStdio runs s over stdin/stdout until the client disconnects or ctx is
// cancelled.
func ServeStdio(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
