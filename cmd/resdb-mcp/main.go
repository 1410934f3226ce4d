package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"resdb-mcp/internal/config"
	"resdb-mcp/internal/render"
	"resdb-mcp/internal/rescontract"
	"resdb-mcp/internal/resdb"
	"resdb-mcp/internal/server"
	"resdb-mcp/internal/tools"
	"resdb-mcp/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "resdb-mcp",
		Short:         "resdb-mcp - MCP server for ResilientDB and ResContract",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app.logger.Info("serving MCP over stdio")
			return server.ServeStdio(ctx, server.NewMCPServer(app.dispatcher))
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("graphql-url", config.DefaultGraphQLURL, "ResilientDB GraphQL endpoint")
	flags.String("http-url", "", "ResilientDB key/value REST endpoint (GraphQL is used when empty)")
	flags.String("cli-path", config.DefaultCLIPath, "Path to the rescontract executable")
	flags.String("timeout", config.DefaultRequestTimeout.String(), "Per-request HTTP timeout (e.g. 30s)")
	flags.Bool("verbose", false, "Enable verbose logging")

	cmd.AddCommand(newHTTPCmd(), newToolsCmd(), newCallCmd(), newWaitCmd())
	return cmd
}

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP (streamable HTTP) and the JSON tool API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			defer app.close()

			if app.cfg.HTTPToken == "" {
				app.logger.Warn("RESDB_MCP_TOKEN not set; endpoints are open")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := server.NewHTTPServer(app.dispatcher, server.NewMCPServer(app.dispatcher), app.cfg.HTTPToken, app.logger)
			return srv.ListenAndServe(ctx, app.cfg.HTTPAddr)
		},
	}
	cmd.Flags().String("addr", config.DefaultHTTPAddr, "Listen address")
	cmd.Flags().String("token", "", "Bearer token required on /mcp routes")
	return cmd
}

func newToolsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCatalog(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func newCallCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Invoke one tool and print its result envelope",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var renderer render.Renderer
			if trace {
				renderer = render.NewTraceRenderer(cmd.ErrOrStderr(), true)
			}
			app, err := setup(cmd, renderer)
			if err != nil {
				return err
			}
			defer app.close()

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			env := app.dispatcher.CallJSON(cmd.Context(), args[0], raw)
			fmt.Fprint(cmd.OutOrStdout(), env.Text())
			if !env.Success {
				app.close()
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Print tool events to stderr")
	return cmd
}

func newWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait <transactionId>",
		Short: "Poll the node until a transaction is visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger.Debug("waiting for transaction",
				zap.String("transaction_id", args[0]),
				zap.Duration("interval", cfg.PollInterval),
				zap.Int("attempts", cfg.MaxPollAttempts))
			result, err := resdb.New(cfg).WaitTransaction(ctx, args[0], cfg.PollInterval, cfg.MaxPollAttempts)
			if err != nil {
				return err
			}
			env := tools.Succeeded(tools.GetTransaction, map[string]any{"transactionId": args[0]}, result)
			fmt.Fprint(cmd.OutOrStdout(), env.Text())
			return nil
		},
	}
	return cmd
}

type app struct {
	cfg        config.Config
	logger     *zap.Logger
	renderer   render.Renderer
	dispatcher *tools.Dispatcher
}

// setup loads configuration and wires both clients into a dispatcher. Events
// go to renderer when given, to the logger otherwise.
func setup(cmd *cobra.Command, renderer render.Renderer) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	logger := buildLogger(cfg.Verbose)
	if renderer == nil {
		renderer = render.NewLogRenderer(logger)
	}

	ledger := resdb.New(cfg)
	contracts := rescontract.New(cfg)
	dispatcher, err := tools.NewDispatcher(ledger, contracts, renderer, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	kvMode := "graphql"
	if ledger.UsesREST() {
		kvMode = "rest"
	}
	logger.Debug("clients ready",
		zap.String("graphql_url", cfg.GraphQLURL),
		zap.String("kv_mode", kvMode),
		zap.String("cli_path", contracts.Path()),
		zap.Strings("tools", dispatcher.Names()))
	return &app{cfg: cfg, logger: logger, renderer: renderer, dispatcher: dispatcher}, nil
}

func (a *app) close() {
	_ = a.renderer.Close()
	_ = a.logger.Sync()
}

// buildLogger logs to stderr only: stdout carries the MCP stdio stream.
func buildLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printCatalog(w io.Writer, format string) error {
	data, err := json.MarshalIndent(map[string]any{"tools": tools.Catalog()}, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		// Round-trip through JSON so the schema keeps its JSON member names.
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}
