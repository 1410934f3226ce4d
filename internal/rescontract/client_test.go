package rescontract

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"resdb-mcp/internal/config"
	"resdb-mcp/internal/toolerr"
)

const fakeCLI = `#!/bin/sh
case "$1" in
  fail) echo "boom: bad contract" >&2; exit 3 ;;
  silent) exit 1 ;;
  raw) echo "deployed at 0xabc" ;;
  *) printf '{"argv":"%s","cwd":"%s"}\n' "$*" "$(pwd)" ;;
esac
`

func newFakeClient(t *testing.T) *Client {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "rescontract")
	if err := os.WriteFile(path, []byte(fakeCLI), 0o755); err != nil {
		t.Fatalf("write fake cli: %v", err)
	}
	return New(config.Config{CLIPath: path})
}

func argvOf(t *testing.T, result any) string {
	t.Helper()
	out, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected JSON object, got %T (%v)", result, result)
	}
	return out["argv"].(string)
}

func TestRunParsesJSON(t *testing.T) {
	client := newFakeClient(t)
	result, err := client.State(context.Background(), "0xfeed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := argvOf(t, result); got != "state 0xfeed" {
		t.Fatalf("unexpected argv %q", got)
	}
}

func TestRunWrapsNonJSONOutput(t *testing.T) {
	client := newFakeClient(t)
	result, err := client.Run(context.Background(), []string{"raw"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RawOutput{Output: "deployed at 0xabc", Raw: true}
	if result != want {
		t.Fatalf("expected %+v, got %+v", want, result)
	}
}

func TestRunNonZeroExitCarriesStderr(t *testing.T) {
	client := newFakeClient(t)
	_, err := client.Run(context.Background(), []string{"fail"}, "")
	if !toolerr.Is(err, toolerr.Command) {
		t.Fatalf("expected command error, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom: bad contract") {
		t.Fatalf("expected stderr in message, got %q", err.Error())
	}
}

func TestRunNonZeroExitWithoutStderr(t *testing.T) {
	client := newFakeClient(t)
	_, err := client.Run(context.Background(), []string{"silent"}, "")
	if !toolerr.Is(err, toolerr.Command) || !strings.Contains(err.Error(), "Unknown error") {
		t.Fatalf("expected placeholder message, got %v", err)
	}
}

func TestRunMissingExecutable(t *testing.T) {
	client := New(config.Config{CLIPath: filepath.Join(t.TempDir(), "does-not-exist")})
	_, err := client.Transaction(context.Background(), "tx1")
	if !toolerr.Is(err, toolerr.ExecutableNotFound) {
		t.Fatalf("expected executable not found, got %v", err)
	}
	if !strings.HasSuffix(client.Path(), "does-not-exist") {
		t.Fatalf("unexpected configured path %q", client.Path())
	}
	if !strings.Contains(err.Error(), client.Path()) || !strings.Contains(err.Error(), "RESCONTRACT_CLI_PATH") {
		t.Fatalf("expected path and hint in message, got %q", err.Error())
	}
}

func TestCompileRequiresFile(t *testing.T) {
	client := newFakeClient(t)
	_, err := client.Compile(context.Background(), filepath.Join(t.TempDir(), "missing.sol"), "")
	if !toolerr.Is(err, toolerr.FileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
}

func TestCompileRunsInContractDirectory(t *testing.T) {
	client := newFakeClient(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "token.sol")
	if err := os.WriteFile(source, []byte("contract Token {}"), 0o644); err != nil {
		t.Fatalf("write contract: %v", err)
	}

	result, err := client.Compile(context.Background(), source, "build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := result.(map[string]any)
	wantDir, _ := filepath.EvalSymlinks(dir)
	gotDir, _ := filepath.EvalSymlinks(out["cwd"].(string))
	if gotDir != wantDir {
		t.Fatalf("expected cwd %q, got %q", wantDir, gotDir)
	}
	if out["argv"] != "compile "+source+" -o build" {
		t.Fatalf("unexpected argv %q", out["argv"])
	}
}

func TestDeployArgv(t *testing.T) {
	client := newFakeClient(t)
	result, err := client.Deploy(context.Background(), "out/token.json", "alice", []string{"100", "TKN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := argvOf(t, result); got != "deploy out/token.json --account alice --args 100 TKN" {
		t.Fatalf("unexpected argv %q", got)
	}

	result, err = client.Deploy(context.Background(), "out/token.json", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := argvOf(t, result); got != "deploy out/token.json" {
		t.Fatalf("unexpected argv %q", got)
	}
}

func TestExecuteModes(t *testing.T) {
	client := newFakeClient(t)
	cases := []struct {
		mode Mode
		want string
	}{
		{"", "call 0xabc balanceOf --args alice"},
		{Call, "call 0xabc balanceOf --args alice"},
		{Send, "send 0xabc balanceOf --args alice"},
	}
	for _, tc := range cases {
		result, err := client.Execute(context.Background(), ExecuteRequest{Address: "0xabc", Method: "balanceOf", Args: []string{"alice"}, Mode: tc.mode})
		if err != nil {
			t.Fatalf("mode %q: unexpected error: %v", tc.mode, err)
		}
		if got := argvOf(t, result); got != tc.want {
			t.Fatalf("mode %q: expected %q, got %q", tc.mode, tc.want, got)
		}
	}
}

func TestExecuteRejectsUnknownMode(t *testing.T) {
	client := newFakeClient(t)
	_, err := client.Execute(context.Background(), ExecuteRequest{Address: "0xabc", Method: "m", Mode: "delete"})
	if !toolerr.Is(err, toolerr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
