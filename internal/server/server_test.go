package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resdb-mcp/internal/rescontract"
	"resdb-mcp/internal/resdb"
	"resdb-mcp/internal/toolerr"
	"resdb-mcp/internal/tools"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubLedger struct{ calls int }

func (s *stubLedger) CreateAccount(ctx context.Context, accountID string) (any, error) {
	s.calls++
	return nil, toolerr.New(toolerr.Policy, "not supported")
}
func (s *stubLedger) GetTransaction(ctx context.Context, id string) (any, error) {
	s.calls++
	return map[string]any{"getTransaction": map[string]any{"id": id}}, nil
}
func (s *stubLedger) PostTransaction(ctx context.Context, data map[string]any) (any, error) {
	s.calls++
	return nil, nil
}
func (s *stubLedger) UpdateTransaction(ctx context.Context, id string, data map[string]any) (any, error) {
	s.calls++
	return nil, toolerr.New(toolerr.Policy, "immutable")
}
func (s *stubLedger) Get(ctx context.Context, key string) (resdb.KeyValue, error) {
	s.calls++
	return resdb.KeyValue{Key: key, Value: "stored"}, nil
}
func (s *stubLedger) Set(ctx context.Context, key string, value any) (resdb.KeyValue, error) {
	s.calls++
	return resdb.KeyValue{Key: key, Value: value}, nil
}

type stubContracts struct{}

func (stubContracts) Compile(ctx context.Context, path, outputDir string) (any, error) { return nil, nil }
func (stubContracts) Deploy(ctx context.Context, path, accountID string, args []string) (any, error) {
	return rescontract.RawOutput{Output: "deployed at 0xabc", Raw: true}, nil
}
func (stubContracts) Execute(ctx context.Context, req rescontract.ExecuteRequest) (any, error) {
	return nil, nil
}
func (stubContracts) State(ctx context.Context, address string) (any, error) { return nil, nil }
func (stubContracts) Transaction(ctx context.Context, id string) (any, error) {
	return nil, nil
}

func newDispatcher(t *testing.T) (*tools.Dispatcher, *stubLedger) {
	t.Helper()
	ledger := &stubLedger{}
	d, err := tools.NewDispatcher(ledger, stubContracts{}, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d, ledger
}

func newHTTP(t *testing.T, token string) (*httptest.Server, *stubLedger) {
	t.Helper()
	d, ledger := newDispatcher(t)
	srv := httptest.NewServer(NewHTTPServer(d, NewMCPServer(d), token, nil).Router())
	t.Cleanup(srv.Close)
	return srv, ledger
}

func TestHealth(t *testing.T) {
	srv, _ := newHTTP(t, "secret")
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestListToolsRequiresToken(t *testing.T) {
	srv, _ := newHTTP(t, "secret")
	resp, err := http.Get(srv.URL + "/mcp/tools")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/mcp/tools", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tools) != 10 || body.Tools[0].Name != "createAccount" || body.Tools[9].Name != "getContractState" {
		t.Fatalf("unexpected catalog %+v", body.Tools)
	}
}

func postCall(t *testing.T, srv *httptest.Server, payload string) map[string]any {
	t.Helper()
	resp, err := http.Post(srv.URL+"/mcp/call", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestCallUnknownToolReturnsEnvelope(t *testing.T) {
	srv, ledger := newHTTP(t, "")
	env := postCall(t, srv, `{"name":"nope","arguments":{"a":1}}`)
	if env["success"] != false || env["error"] != "UnknownToolError" || env["tool"] != "nope" {
		t.Fatalf("unexpected envelope %v", env)
	}
	if ledger.calls != 0 {
		t.Fatalf("expected no ledger calls")
	}
}

func TestCallSuccessEnvelope(t *testing.T) {
	srv, _ := newHTTP(t, "")
	env := postCall(t, srv, `{"name":"get","arguments":{"key":"k"}}`)
	result, ok := env["result"].(map[string]any)
	if env["success"] != true || !ok || result["value"] != "stored" {
		t.Fatalf("unexpected envelope %v", env)
	}
}

func TestCallInvalidBody(t *testing.T) {
	srv, _ := newHTTP(t, "")
	resp, err := http.Post(srv.URL+"/mcp/call", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMCPSession(t *testing.T) {
	ctx := context.Background()
	d, _ := newDispatcher(t)
	server := NewMCPServer(d)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(listed.Tools) != 10 {
		t.Fatalf("expected 10 tools, got %d", len(listed.Tools))
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "deployContract",
		Arguments: map[string]any{"contractPath": "token.json"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError || len(res.Content) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	var env map[string]any
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	result := env["result"].(map[string]any)
	if result["output"] != "deployed at 0xabc" || result["raw"] != true {
		t.Fatalf("unexpected envelope %v", env)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "createAccount", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected policy failure to be flagged as tool error")
	}
	if !strings.Contains(res.Content[0].(*mcp.TextContent).Text, "PolicyError") {
		t.Fatalf("expected PolicyError envelope, got %s", res.Content[0].(*mcp.TextContent).Text)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "noSuchTool", Arguments: map[string]any{"x": 1}})
	if err != nil {
		t.Fatalf("unknown tool should produce an envelope, got error: %v", err)
	}
	if !res.IsError || len(res.Content) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	env = nil
	if err := json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env["success"] != false || env["error"] != "UnknownToolError" || env["tool"] != "noSuchTool" {
		t.Fatalf("unexpected envelope %v", env)
	}
	if args, _ := env["arguments"].(map[string]any); args["x"] != float64(1) {
		t.Fatalf("expected arguments echoed, got %v", env["arguments"])
	}
}
