package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultGraphQLURL      = "http://localhost:9000/graphql"
	DefaultCLIPath         = "rescontract"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultPollInterval    = time.Second
	DefaultMaxPollAttempts = 30
	DefaultHTTPAddr        = ":8080"
)

// Config holds process-wide settings. It is built once by Load and never
// mutated afterwards.
type Config struct {
	GraphQLURL      string
	HTTPURL         string
	CLIPath         string
	APIKey          string
	AuthToken       string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPAddr        string
	HTTPToken       string
	Verbose         bool
}

// Credential returns the bearer token attached to node requests: the API key
// when set, the auth token otherwise.
func (c Config) Credential() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.AuthToken
}

type rawConfig struct {
	GraphQLURL      string `mapstructure:"graphql_url"`
	HTTPURL         string `mapstructure:"http_url"`
	CLIPath         string `mapstructure:"cli_path"`
	APIKey          string `mapstructure:"api_key"`
	AuthToken       string `mapstructure:"auth_token"`
	RequestTimeout  string `mapstructure:"request_timeout"`
	PollInterval    string `mapstructure:"poll_interval"`
	MaxPollAttempts int    `mapstructure:"max_poll_attempts"`
	HTTPAddr        string `mapstructure:"http_addr"`
	HTTPToken       string `mapstructure:"http_token"`
	Verbose         bool   `mapstructure:"verbose"`
}

// envNames maps config keys to the environment variables the node tooling
// already uses.
var envNames = map[string]string{
	"graphql_url":       "RESILIENTDB_GRAPHQL_URL",
	"http_url":          "RESILIENTDB_HTTP_URL",
	"cli_path":          "RESCONTRACT_CLI_PATH",
	"api_key":           "RESILIENTDB_API_KEY",
	"auth_token":        "RESILIENTDB_AUTH_TOKEN",
	"max_poll_attempts": "MAX_POLL_ATTEMPTS",
	"http_addr":         "RESDB_MCP_HTTP_ADDR",
	"http_token":        "RESDB_MCP_TOKEN",
	"verbose":           "RESDB_MCP_VERBOSE",
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}

	v.SetDefault("graphql_url", DefaultGraphQLURL)
	v.SetDefault("http_url", "")
	v.SetDefault("cli_path", DefaultCLIPath)
	v.SetDefault("api_key", "")
	v.SetDefault("auth_token", "")
	v.SetDefault("request_timeout", DefaultRequestTimeout.String())
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("max_poll_attempts", DefaultMaxPollAttempts)
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("http_token", "")
	v.SetDefault("verbose", false)

	if cmd != nil {
		_ = v.BindPFlag("graphql_url", cmd.Flags().Lookup("graphql-url"))
		_ = v.BindPFlag("http_url", cmd.Flags().Lookup("http-url"))
		_ = v.BindPFlag("cli_path", cmd.Flags().Lookup("cli-path"))
		_ = v.BindPFlag("request_timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))
		_ = v.BindPFlag("http_token", cmd.Flags().Lookup("token"))
	}

	// Both variables are plain seconds (REQUEST_TIMEOUT=30,
	// TRANSACTION_POLL_INTERVAL=0.5), not Go durations.
	if seconds := os.Getenv("REQUEST_TIMEOUT"); seconds != "" && !flagChanged(cmd, "timeout") {
		v.Set("request_timeout", seconds+"s")
	}
	if seconds := os.Getenv("TRANSACTION_POLL_INTERVAL"); seconds != "" {
		v.Set("poll_interval", seconds+"s")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw, WeaklyTypedInput: true})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout, err := parseDuration(raw.RequestTimeout, DefaultRequestTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}
	interval, err := parseDuration(raw.PollInterval, DefaultPollInterval)
	if err != nil {
		return Config{}, fmt.Errorf("invalid poll interval: %w", err)
	}

	cfg := Config{
		GraphQLURL:      strings.TrimSpace(raw.GraphQLURL),
		HTTPURL:         strings.TrimRight(strings.TrimSpace(raw.HTTPURL), "/"),
		CLIPath:         strings.TrimSpace(raw.CLIPath),
		APIKey:          raw.APIKey,
		AuthToken:       raw.AuthToken,
		RequestTimeout:  timeout,
		PollInterval:    interval,
		MaxPollAttempts: raw.MaxPollAttempts,
		HTTPAddr:        raw.HTTPAddr,
		HTTPToken:       raw.HTTPToken,
		Verbose:         raw.Verbose,
	}

	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = DefaultGraphQLURL
	}
	if cfg.CLIPath == "" {
		cfg.CLIPath = DefaultCLIPath
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(strings.TrimSpace(value))
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func loadConfigFile(v *viper.Viper) error {
	if path := os.Getenv("RESDB_MCP_CONFIG"); path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "resdb-mcp")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
