package tools

import (
	"context"

	"resdb-mcp/internal/rescontract"
	"resdb-mcp/internal/resdb"

	"github.com/google/jsonschema-go/jsonschema"
)

// Definition is the public description of a tool: what List returns.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Handler routes validated arguments to a client operation.
type Handler func(ctx context.Context, args Args) (any, error)

// Tool pairs a definition with its resolved schema and handler.
type Tool struct {
	Definition
	schema  *jsonschema.Resolved
	handler Handler
}

// Ledger is the node-facing client the dispatcher routes to.
type Ledger interface {
	CreateAccount(ctx context.Context, accountID string) (any, error)
	GetTransaction(ctx context.Context, id string) (any, error)
	PostTransaction(ctx context.Context, data map[string]any) (any, error)
	UpdateTransaction(ctx context.Context, id string, data map[string]any) (any, error)
	Get(ctx context.Context, key string) (resdb.KeyValue, error)
	Set(ctx context.Context, key string, value any) (resdb.KeyValue, error)
}

// Contracts is the CLI-facing client the dispatcher routes to.
type Contracts interface {
	Compile(ctx context.Context, path, outputDir string) (any, error)
	Deploy(ctx context.Context, path, accountID string, constructorArgs []string) (any, error)
	Execute(ctx context.Context, req rescontract.ExecuteRequest) (any, error)
	State(ctx context.Context, address string) (any, error)
	Transaction(ctx context.Context, id string) (any, error)
}

var (
	_ Ledger    = (*resdb.Client)(nil)
	_ Contracts = (*rescontract.Client)(nil)
)
