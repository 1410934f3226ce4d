// Package rescontract drives the rescontract command-line tool used to
// compile, deploy and invoke smart contracts.
package rescontract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"resdb-mcp/internal/config"
	"resdb-mcp/internal/toolerr"
)

// RawOutput wraps stdout that is not JSON.
type RawOutput struct {
	Output string `json:"output"`
	Raw    bool   `json:"raw"`
}

// Mode selects between a read-only call and a state-changing send.
type Mode string

const (
	Call Mode = "call"
	Send Mode = "send"
)

// ParseMode validates a transaction type. Empty means Call.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", Call:
		return Call, nil
	case Send:
		return Send, nil
	}
	return "", toolerr.New(toolerr.Validation, "transactionType must be %q or %q, got %q", Call, Send, value)
}

// ExecuteRequest describes a contract method invocation.
type ExecuteRequest struct {
	Address   string
	Method    string
	Args      []string
	AccountID string
	Mode      Mode
}

// Client runs the CLI as a subprocess, one process per call.
type Client struct {
	path string
}

// New constructs a Client for the configured executable.
func New(cfg config.Config) *Client {
	return &Client{path: cfg.CLIPath}
}

// Path returns the configured executable.
func (c *Client) Path() string { return c.path }

// Run executes the CLI with argv in dir (the current directory when empty).
// JSON stdout is decoded; anything else is returned as RawOutput.
func (c *Client) Run(ctx context.Context, argv []string, dir string) (any, error) {
	cmd := exec.CommandContext(ctx, c.path, argv...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr := (&exec.ExitError{}); errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = "Unknown error"
			}
			return nil, &toolerr.Error{
				Kind:    toolerr.Command,
				Message: fmt.Sprintf("rescontract exited with status %d: %s", exitErr.ExitCode(), msg),
				Err:     err,
			}
		}
		if ctx.Err() != nil {
			return nil, toolerr.Wrap(toolerr.Command, ctx.Err(), "rescontract interrupted")
		}
		return nil, &toolerr.Error{
			Kind: toolerr.ExecutableNotFound,
			Message: fmt.Sprintf("rescontract CLI not found at %q (%v); install it on PATH or set RESCONTRACT_CLI_PATH to its location",
				c.path, err),
			Err: err,
		}
	}

	return parseOutput(stdout.String()), nil
}

func parseOutput(text string) any {
	output := strings.TrimSpace(text)
	var decoded any
	if err := json.Unmarshal([]byte(output), &decoded); err == nil {
		return decoded
	}
	return RawOutput{Output: output, Raw: true}
}

// Compile compiles the contract at path. The file must exist locally; the
// CLI runs inside the file's directory.
func (c *Client) Compile(ctx context.Context, path, outputDir string) (any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.FileNotFound, err, "resolve contract path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, toolerr.New(toolerr.FileNotFound, "contract file not found: %s", path)
	}
	if info.IsDir() {
		return nil, toolerr.New(toolerr.FileNotFound, "contract path is a directory: %s", path)
	}

	argv := []string{"compile", abs}
	if outputDir != "" {
		argv = append(argv, "-o", outputDir)
	}
	return c.Run(ctx, argv, filepath.Dir(abs))
}

// Deploy deploys a compiled contract.
func (c *Client) Deploy(ctx context.Context, path, accountID string, constructorArgs []string) (any, error) {
	argv := []string{"deploy", path}
	argv = appendAccount(argv, accountID)
	argv = appendArgs(argv, constructorArgs)
	return c.Run(ctx, argv, "")
}

// Execute invokes a contract method. Call and Send differ only in the verb.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (any, error) {
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	argv := []string{string(mode), req.Address, req.Method}
	argv = appendAccount(argv, req.AccountID)
	argv = appendArgs(argv, req.Args)
	return c.Run(ctx, argv, "")
}

// State reads a deployed contract's state.
func (c *Client) State(ctx context.Context, address string) (any, error) {
	return c.Run(ctx, []string{"state", address}, "")
}

// Transaction reads a transaction through the CLI.
func (c *Client) Transaction(ctx context.Context, id string) (any, error) {
	return c.Run(ctx, []string{"transaction", id}, "")
}

func appendAccount(argv []string, accountID string) []string {
	if accountID == "" {
		return argv
	}
	return append(argv, "--account", accountID)
}

func appendArgs(argv []string, args []string) []string {
	if len(args) == 0 {
		return argv
	}
	return append(append(argv, "--args"), args...)
}
