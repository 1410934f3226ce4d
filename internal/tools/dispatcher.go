package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resdb-mcp/internal/events"
	"resdb-mcp/internal/render"
	"resdb-mcp/internal/rescontract"
	"resdb-mcp/internal/toolerr"
	"resdb-mcp/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	previewLines = 12
	previewBytes = 2000
)

// Dispatcher validates tool calls, routes them to the ledger or contract
// client and shapes every outcome into an Envelope.
type Dispatcher struct {
	registry  *Registry
	ledger    Ledger
	contracts Contracts
	renderer  render.Renderer
	logger    *zap.Logger
}

// NewDispatcher builds the catalog and its routes. renderer may be nil.
func NewDispatcher(ledger Ledger, contracts Contracts, renderer render.Renderer, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = render.Nop{}
	}
	d := &Dispatcher{ledger: ledger, contracts: contracts, renderer: renderer, logger: logger}
	registry, err := NewRegistry(Catalog(), d.routes())
	if err != nil {
		return nil, err
	}
	d.registry = registry
	return d, nil
}

// List returns the full catalog in declaration order.
func (d *Dispatcher) List() []Definition {
	return d.registry.Definitions()
}

// Names returns the catalog tool names in declaration order.
func (d *Dispatcher) Names() []string {
	return d.registry.Names()
}

// CallJSON decodes raw arguments and dispatches. Empty input and JSON null
// mean no arguments; anything other than an object is a validation failure.
func (d *Dispatcher) CallJSON(ctx context.Context, name string, raw json.RawMessage) Envelope {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return d.Call(ctx, name, nil)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return Failed(name, nil, toolerr.Wrap(toolerr.Validation, err, "arguments must be a JSON object"))
	}
	return d.Call(ctx, name, args)
}

// Call runs one invocation. It never returns an error: every failure,
// including a panic inside a client, ends up in the envelope.
func (d *Dispatcher) Call(ctx context.Context, name string, arguments map[string]any) (env Envelope) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	requestID := uuid.NewString()
	start := time.Now()
	d.emit(events.ToolCallStarted, events.ToolCallStartedPayload{
		RequestID: requestID,
		ToolName:  name,
		Input:     sanitizeInput(arguments),
		StartedAt: start,
	})

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", zap.String("tool", name), zap.Any("panic", r))
			env = Failed(name, arguments, fmt.Errorf("internal error: %v", r))
		}
		d.finish(requestID, name, start, env)
	}()

	ctx = withRequestID(ctx, requestID)
	normalized, err := normalize(arguments)
	if err != nil {
		return Failed(name, arguments, err)
	}
	result, err := d.dispatch(ctx, name, normalized)
	if err != nil {
		return Failed(name, arguments, err)
	}
	return Succeeded(name, arguments, result)
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args Args) (any, error) {
	tool, ok := d.registry.Get(name)
	if !ok {
		return nil, toolerr.New(toolerr.UnknownTool, "Unknown tool: %s", name)
	}
	if err := tool.validate(args); err != nil {
		return nil, err
	}
	return tool.handler(ctx, args)
}

// validate checks required arguments first so the message names them, then
// the full schema for types and enums. Null stands for an absent argument
// except on untyped properties, where it is an ordinary JSON value.
func (t *Tool) validate(args Args) error {
	var absent []string
	for _, name := range t.InputSchema.Required {
		if _, ok := args[name]; !ok || (args[name] == nil && !t.acceptsNull(name)) {
			absent = append(absent, name)
		}
	}
	if len(absent) == 1 {
		return missing(absent[0])
	}
	if len(absent) > 1 {
		return toolerr.New(toolerr.Validation, "missing required arguments: %s", strings.Join(absent, ", "))
	}
	if err := t.schema.Validate(args.withoutNulls(t.acceptsNull)); err != nil {
		return toolerr.Wrap(toolerr.Validation, err, "invalid arguments for "+t.Name)
	}
	return nil
}

func (t *Tool) acceptsNull(name string) bool {
	prop := t.InputSchema.Properties[name]
	return prop != nil && prop.Type == "" && len(prop.Types) == 0
}

func (d *Dispatcher) routes() map[string]Handler {
	return map[string]Handler{
		CreateAccount:     d.createAccount,
		CompileContract:   d.compileContract,
		DeployContract:    d.deployContract,
		ExecuteContract:   d.executeContract,
		GetTransaction:    d.getTransaction,
		PostTransaction:   d.postTransaction,
		UpdateTransaction: d.updateTransaction,
		Get:               d.get,
		Set:               d.set,
		GetContractState:  d.getContractState,
	}
}

func (d *Dispatcher) createAccount(ctx context.Context, args Args) (any, error) {
	accountID, err := args.OptionalString("accountId")
	if err != nil {
		return nil, err
	}
	return d.ledger.CreateAccount(ctx, accountID)
}

func (d *Dispatcher) compileContract(ctx context.Context, args Args) (any, error) {
	path, err := args.String("contractPath")
	if err != nil {
		return nil, err
	}
	outputDir, err := args.OptionalString("outputDir")
	if err != nil {
		return nil, err
	}
	return d.contracts.Compile(ctx, path, outputDir)
}

func (d *Dispatcher) deployContract(ctx context.Context, args Args) (any, error) {
	path, err := args.String("contractPath")
	if err != nil {
		return nil, err
	}
	accountID, err := args.OptionalString("accountId")
	if err != nil {
		return nil, err
	}
	constructorArgs, err := args.Strings("constructorArgs")
	if err != nil {
		return nil, err
	}
	return d.contracts.Deploy(ctx, path, accountID, constructorArgs)
}

func (d *Dispatcher) executeContract(ctx context.Context, args Args) (any, error) {
	address, err := args.String("contractAddress")
	if err != nil {
		return nil, err
	}
	method, err := args.String("methodName")
	if err != nil {
		return nil, err
	}
	methodArgs, err := args.Strings("methodArgs")
	if err != nil {
		return nil, err
	}
	accountID, err := args.OptionalString("accountId")
	if err != nil {
		return nil, err
	}
	txType, err := args.OptionalString("transactionType")
	if err != nil {
		return nil, err
	}
	mode, err := rescontract.ParseMode(txType)
	if err != nil {
		return nil, err
	}
	return d.contracts.Execute(ctx, rescontract.ExecuteRequest{
		Address:   address,
		Method:    method,
		Args:      methodArgs,
		AccountID: accountID,
		Mode:      mode,
	})
}

// getTransaction tries GraphQL first and the CLI second. Only the CLI error
// is reported when both fail; the GraphQL error is logged.
func (d *Dispatcher) getTransaction(ctx context.Context, args Args) (any, error) {
	id, err := args.String("transactionId")
	if err != nil {
		return nil, err
	}
	result, err := d.ledger.GetTransaction(ctx, id)
	if err == nil {
		return result, nil
	}
	d.emit(events.FallbackStarted, events.FallbackPayload{
		RequestID: requestIDFrom(ctx),
		ToolName:  GetTransaction,
		From:      "graphql",
		To:        "rescontract",
		Reason:    util.RedactSecrets(err.Error()),
	})
	return d.contracts.Transaction(ctx, id)
}

func (d *Dispatcher) postTransaction(ctx context.Context, args Args) (any, error) {
	data, err := args.Object("data")
	if err != nil {
		return nil, err
	}
	return d.ledger.PostTransaction(ctx, data)
}

func (d *Dispatcher) updateTransaction(ctx context.Context, args Args) (any, error) {
	id, err := args.String("transactionId")
	if err != nil {
		return nil, err
	}
	data, err := args.Object("data")
	if err != nil {
		return nil, err
	}
	return d.ledger.UpdateTransaction(ctx, id, data)
}

func (d *Dispatcher) get(ctx context.Context, args Args) (any, error) {
	key, err := args.String("key")
	if err != nil {
		return nil, err
	}
	return d.ledger.Get(ctx, key)
}

func (d *Dispatcher) set(ctx context.Context, args Args) (any, error) {
	key, err := args.String("key")
	if err != nil {
		return nil, err
	}
	value, err := args.Value("value")
	if err != nil {
		return nil, err
	}
	return d.ledger.Set(ctx, key, value)
}

func (d *Dispatcher) getContractState(ctx context.Context, args Args) (any, error) {
	address, err := args.String("contractAddress")
	if err != nil {
		return nil, err
	}
	return d.contracts.State(ctx, address)
}

func (d *Dispatcher) finish(requestID, name string, start time.Time, env Envelope) {
	text := env.Text()
	payload := events.ToolCallFinishedPayload{
		RequestID:  requestID,
		ToolName:   name,
		Status:     "success",
		ByteCount:  len(text),
		DurationMs: time.Since(start).Milliseconds(),
	}
	eventType := events.ToolCallFinished
	if env.Success {
		payload.Preview = util.Preview(util.RedactSecrets(text), previewLines, previewBytes)
	} else {
		eventType = events.ToolCallFailed
		payload.Status = "error"
		payload.ErrorKind = string(env.Kind)
		payload.Preview = util.RedactSecrets(env.Message)
	}
	d.emit(eventType, payload)
}

func (d *Dispatcher) emit(eventType events.Type, payload any) {
	d.renderer.Emit(events.Event{Type: eventType, Timestamp: time.Now(), Payload: payload})
}

// normalize round-trips arguments through JSON so handlers and schema
// validation only ever see decoded JSON types.
func normalize(arguments map[string]any) (Args, error) {
	data, err := json.Marshal(arguments)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.Validation, err, "arguments are not JSON-compatible")
	}
	var args Args
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, toolerr.Wrap(toolerr.Validation, err, "arguments are not JSON-compatible")
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

func sanitizeInput(args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return util.RedactSecrets(string(data))
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
