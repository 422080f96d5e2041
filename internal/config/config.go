// Package config holds the configuration structures for the grafito server.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/grafito-db/grafito/pkg/version"
)

// Config holds the configuration for the grafito server.
type Config struct {
	// MCPStreamableHTTP and its address/endpoint are parsed and validated,
	// but cmd/grafito starts no MCP transport; the flag only takes the
	// process out of stdio mode for SetupLogging.
	MCPStreamableHTTP         bool   `mapstructure:"mcp-http"`
	MCPStreamableHTTPAddr     string `mapstructure:"mcp-http-addr"`
	MCPStreamableHTTPEndpoint string `mapstructure:"mcp-http-endpoint"`

	HTTP         bool   `mapstructure:"http"`
	HTTPAddr     string `mapstructure:"http-addr"`
	RestAPIServe bool   `mapstructure:"rest-api-serve"`

	// DbPath is the path to the embedded sqlite database file (§4.1).
	// Use ":memory:" for an ephemeral in-process database.
	DbPath string `mapstructure:"db-path"`
	// JournalMode selects the sqlite journal mode ("wal" or "delete").
	JournalMode string `mapstructure:"journal-mode"`

	// CypherMaxHops bounds variable-length relationship patterns and
	// shortest-path search depth when a query does not specify its own
	// bound (§4.4, §9 Open Questions).
	CypherMaxHops int `mapstructure:"cypher-max-hops"`
	// DefaultTopK is the default result count for db.vector.search and
	// similarity procedures when a query omits an explicit top-k (§4.10).
	DefaultTopK int `mapstructure:"default-top-k"`

	// APOCCacheDir is where apoc.load.* procedures cache fetched
	// documents (§4.8). May also be set via GRAFITO_APOC_CACHE_DIR.
	APOCCacheDir string `mapstructure:"apoc-cache-dir"`

	// Ollama configuration
	OllamaURL   string `mapstructure:"ollama-url"`
	OllamaModel string `mapstructure:"ollama-model"`
	// OpenAI configuration
	OpenAIKey   string `mapstructure:"openai-key"`
	OpenAIURL   string `mapstructure:"openai-url"`
	OpenAIModel string `mapstructure:"openai-model"`
	// Code-specific embedding model configuration: lets callers use a
	// specialized code embedding model for code-flavored node properties
	// while a different model handles everything else.
	CodeOllamaModel string `mapstructure:"code-ollama-model"`
	CodeOpenAIModel string `mapstructure:"code-openai-model"`

	LogFile  string `mapstructure:"log"`
	LogLevel string `mapstructure:"log-level"`
	// When true, disables all logging output to stdout/stderr. Logs will
	// only be written to the configured log file (if any).
	DisableOutputLog bool `mapstructure:"disable-output-log"`
}

// Load loads the configuration from CLI flags and environment variables.
func Load() (*Config, error) {
	// Define flags
	// To add a new CLI flag:
	// 1) Register it here with pflag (or pflag.String/PBool/etc)
	// 2) Call pflag.Parse() (done below)
	// 3) Bind pflags to viper via v.BindPFlags(pflag.CommandLine)
	// 4) Read the value from the returned Config or via v.GetXXX
	// Note: flags that should cause the process to exit early (like --version)
	// can be handled immediately after parsing, before continuing with config
	// initialization.

	pflag.String("config", "", "Path to YAML configuration file")

	pflag.Bool("mcp-http", false, "Enable MCP Streamable HTTP transport")
	// Accept either plain port (e.g. "3000") or full address (e.g. "127.0.0.1:3000").
	pflag.String("mcp-http-addr", "3000", "Port or address to bind MCP Streamable HTTP transport (e.g. 3000 or 127.0.0.1:3000); can also be set via GRAFITO_MCP_HTTP_ADDR")
	pflag.String("mcp-http-endpoint", "/mcp", "HTTP path for the MCP Streamable HTTP endpoint, can also be set via GRAFITO_MCP_HTTP_ENDPOINT")

	pflag.Bool("http", false, "Enable HTTP JSON API transport")
	pflag.String("http-addr", ":8080", "Address to bind HTTP transport (host:port), can also be set via GRAFITO_HTTP_ADDR")
	pflag.Bool("rest-api-serve", false, "Enable REST API server")

	pflag.String("db-path", "./grafito.db", "Path to the embedded sqlite graph database")
	pflag.String("journal-mode", "wal", "sqlite journal mode: wal or delete")
	pflag.Int("cypher-max-hops", 15, "Default maximum hop count for variable-length patterns and shortest-path search")
	pflag.Int("default-top-k", 10, "Default result count for vector similarity search")
	pflag.String("apoc-cache-dir", "", "Cache directory for apoc.load.* procedures (defaults to a temp dir)")

	pflag.String("ollama-url", "http://localhost:11434", "URL for the Ollama server")
	pflag.String("ollama-model", "", "Ollama model to use for embeddings")
	pflag.String("openai-key", "", "OpenAI API key")
	pflag.String("openai-url", "https://api.openai.com/v1", "OpenAI base URL")
	pflag.String("openai-model", "text-embedding-3-large", "OpenAI model to use for embeddings")
	pflag.String("code-ollama-model", "", "Ollama model to use for code embeddings (e.g., jina/jina-embeddings-v2-base-code)")
	pflag.String("code-openai-model", "", "OpenAI model to use for code embeddings")

	pflag.String("log", "", "Path to the log file (logs will be written to both the console and file)")
	pflag.String("log-level", "info", "Minimum log level: debug, info, warn, error")
	pflag.Bool("disable-output-log", false, "Disable logging to stdout/stderr; only write to log file if configured")

	// Version flag is handled here so config package can manage early-exit flags.
	// Also register a version flag with the standard library's flag set so
	// packages that use the stdlib flag package (or call flag.Parse)
	// won't error when users pass --version/-v to this binary.
	flag.Bool("version", false, "Print version and exit")

	// Make any flags registered with the stdlib visible to pflag so a single
	// unified parse will work for both kinds of flags.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	// Do not re-register the "version" flag with pflag here — it is
	// registered via the standard library flag set above and copied into
	// pflag by AddGoFlagSet. Registering it twice causes a "flag redefined"
	// panic when parsing.
	pflag.Parse()

	// Handle early-exit flags (version) before binding to viper
	if ver := pflag.Lookup("version"); ver != nil && ver.Value.String() == "true" {
		fmt.Println(version.Describe())
		os.Exit(0)
	}

	// Initialize viper
	v := viper.New()

	// Read YAML config file if provided via --config flag
	configPath := pflag.Lookup("config").Value.String()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// No --config flag provided, try to find config.yaml in standard locations
		configFound := false

		if homeDir, err := os.UserHomeDir(); err == nil {
			var standardConfigPath string

			// Use OS-specific standard location
			if runtime.GOOS == "darwin" {
				standardConfigPath = filepath.Join(homeDir, "Library", "Application Support", "grafito", "config.yaml")
			} else {
				standardConfigPath = filepath.Join(homeDir, ".config", "grafito", "config.yaml")
			}

			if _, err := os.Stat(standardConfigPath); err == nil {
				v.SetConfigFile(standardConfigPath)
				if err := v.ReadInConfig(); err == nil {
					configFound = true
					slog.Info("Using configuration file from standard location", "path", standardConfigPath)
				}
			}
		}

		// If no config file found in standard locations, continue without it
		// (environment variables and defaults will be used)
		if !configFound {
			slog.Info("No configuration file found, using environment variables and defaults")
		}
	}

	// Bind flags to viper
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}

	// Configure viper to read environment variables
	v.SetEnvPrefix("GRAFITO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Unmarshal the configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DbPath == "" {
		return errors.New("a database path must be provided (use --db-path, or \":memory:\" for an ephemeral database)")
	}

	switch strings.ToLower(c.JournalMode) {
	case "", "wal", "delete":
	default:
		return fmt.Errorf("invalid journal mode %q: must be \"wal\" or \"delete\"", c.JournalMode)
	}

	if c.CypherMaxHops < 0 {
		return errors.New("cypher-max-hops must not be negative")
	}
	if c.DefaultTopK <= 0 {
		return errors.New("default-top-k must be positive")
	}

	return nil
}

// GetOllamaURL returns the Ollama server URL.
func (c *Config) GetOllamaURL() string {
	return c.OllamaURL
}

// GetOllamaModel returns the Ollama model name.
func (c *Config) GetOllamaModel() string {
	return c.OllamaModel
}

// GetOpenAIKey returns the OpenAI API key.
func (c *Config) GetOpenAIKey() string {
	return c.OpenAIKey
}

// GetOpenAIURL returns the OpenAI base URL.
func (c *Config) GetOpenAIURL() string {
	return c.OpenAIURL
}

// GetOpenAIModel returns the OpenAI model name.
func (c *Config) GetOpenAIModel() string {
	return c.OpenAIModel
}

// GetCodeOllamaModel returns the Ollama model for code embeddings.
// If not set, returns the default Ollama model.
func (c *Config) GetCodeOllamaModel() string {
	if c.CodeOllamaModel != "" {
		return c.CodeOllamaModel
	}
	return c.OllamaModel
}

// GetCodeOpenAIModel returns the OpenAI model for code embeddings.
// If not set, returns the default OpenAI model.
func (c *Config) GetCodeOpenAIModel() string {
	if c.CodeOpenAIModel != "" {
		return c.CodeOpenAIModel
	}
	return c.OpenAIModel
}

// HasCodeSpecificEmbedder returns true if a code-specific embedding model is configured.
func (c *Config) HasCodeSpecificEmbedder() bool {
	return c.CodeOllamaModel != "" || c.CodeOpenAIModel != ""
}

// GetCypherMaxHops returns the configured default max-hop bound, or a safe
// fallback if unset.
func (c *Config) GetCypherMaxHops() int {
	if c.CypherMaxHops <= 0 {
		return 15
	}
	return c.CypherMaxHops
}

// GetDefaultTopK returns the configured default vector-search result count.
func (c *Config) GetDefaultTopK() int {
	if c.DefaultTopK <= 0 {
		return 10
	}
	return c.DefaultTopK
}

// GetAPOCCacheDir returns the configured apoc.load.* cache directory,
// falling back to the system temp dir under "grafito-apoc".
func (c *Config) GetAPOCCacheDir() string {
	if c.APOCCacheDir != "" {
		return c.APOCCacheDir
	}
	return filepath.Join(os.TempDir(), "grafito-apoc")
}

// Getenv reads an environment variable or returns a default value.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SetupLogging configures slog output.
//
// Important: in stdio mode the REPL prints query results on stdout, so
// console logs go to stderr there.
func (c *Config) SetupLogging() error {
	var writers []io.Writer

	// Console logging (stdout/stderr)
	if !c.DisableOutputLog {
		// If we're running in stdio mode (default: no http/rest transport), avoid
		// stdout so logs don't interleave with the REPL's query output.
		stdioMode := !c.MCPStreamableHTTP && !c.HTTP && !c.RestAPIServe
		if stdioMode {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	// If log file is specified, also write to file
	if c.LogFile != "" {
		logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", c.LogFile, err)
		}
		writers = append(writers, logFile)
	}

	// If nothing is configured (disable-output-log=true and no file), discard logs.
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	multiWriter := io.MultiWriter(writers...)

	handler := slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
		Level:     parseLogLevel(c.LogLevel),
		AddSource: false,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
