package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPrintCatalogJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printCatalog(&buf, "json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if len(payload.Tools) != 10 {
		t.Fatalf("expected 10 tools, got %d", len(payload.Tools))
	}
}

func TestPrintCatalogYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printCatalog(&buf, "yaml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload map[string][]map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid yaml output: %v", err)
	}
	first := payload["tools"][0]
	if first["name"] != "createAccount" {
		t.Fatalf("unexpected first tool %v", first)
	}
	if _, ok := first["inputSchema"]; !ok {
		t.Fatalf("expected inputSchema member, got %v", first)
	}
}

func TestPrintCatalogUnknownFormat(t *testing.T) {
	if err := printCatalog(&bytes.Buffer{}, "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestCallCommandGet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RESDB_MCP_CONFIG", "")
	kv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/transactions/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"greeting","value":"hello"}`))
	}))
	defer kv.Close()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"call", "--http-url", kv.URL, "get", `{"key":"greeting"}`})
	if err := root.Execute(); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var env map[string]any
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v (%s)", err, out.String())
	}
	result := env["result"].(map[string]any)
	if env["success"] != true || result["key"] != "greeting" || result["value"] != "hello" {
		t.Fatalf("unexpected envelope %v", env)
	}
}
