package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	DefaultAIModel         = "gpt-4o-mini"
	DefaultAITimeout       = 120 * time.Second
	DefaultAIRetries       = 3
	DefaultMaxPromptChars  = 15000
	DefaultFewShotMaxChars = 6000
	DefaultConcurrency     = 4

	// EnvPrefix prefixes every environment variable, e.g. FORMSCHEMA_AI_MODEL
	EnvPrefix = "FORMSCHEMA"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// AIConfig configures the inference tiers
type AIConfig struct {
	Enabled         bool
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	Retries         int
	ReferencePath   string // few-shot reference schema
	MaxPromptChars  int
	FewShotMaxChars int
}

// SegmentConfig configures heading detection
type SegmentConfig struct {
	CatalogPath string // YAML heading catalog replacing the built-in one
	MinLines    int
}

// Config holds all configuration for the form schema tools
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Documents are only read from inside this directory
	Directory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum document size in bytes
	Concurrency int

	AI      AIConfig
	Segment SegmentConfig
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeStdio,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Directory:   currentDir,
		Version:     "1.0.0",
		ServerName:  "formschema",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
		Concurrency: DefaultConcurrency,
		AI: AIConfig{
			Enabled:         true,
			Model:           DefaultAIModel,
			Timeout:         DefaultAITimeout,
			Retries:         DefaultAIRetries,
			MaxPromptChars:  DefaultMaxPromptChars,
			FewShotMaxChars: DefaultFewShotMaxChars,
		},
	}
}

// flag name -> viper key
var flagKeys = map[string]string{
	"mode":               "mode",
	"host":               "host",
	"port":               "port",
	"dir":                "dir",
	"loglevel":           "loglevel",
	"maxfilesize":        "maxfilesize",
	"concurrency":        "concurrency",
	"ai-enabled":         "ai.enabled",
	"ai-baseurl":         "ai.baseurl",
	"ai-model":           "ai.model",
	"ai-timeout":         "ai.timeout",
	"ai-retries":         "ai.retries",
	"ai-reference":       "ai.reference",
	"ai-maxpromptchars":  "ai.maxpromptchars",
	"ai-fewshotmaxchars": "ai.fewshotmaxchars",
	"segment-catalog":    "segment.catalog",
	"segment-minlines":   "segment.minlines",
}

// LoadFromFlags parses the process arguments with the global flag set and
// returns a validated configuration
func LoadFromFlags() (*Config, error) {
	if checkVersionFlag(os.Args[1:]) {
		return nil, ErrVersionRequested
	}
	setupUsageMessage()
	return Load(pflag.CommandLine, os.Args[1:])
}

// Load defines the flags on fs, parses args and merges flags, environment
// and defaults, in that order of precedence
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()
	DefineFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(fs)
}

// DefineFlags registers every option on fs with cfg's values as defaults
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for streamable HTTP")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.Directory, "Directory containing documents")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	fs.Int("concurrency", cfg.Concurrency, "Documents extracted at once in batch mode")

	fs.Bool("ai-enabled", cfg.AI.Enabled, "Use the general AI tier when an API key is set")
	fs.String("ai-baseurl", cfg.AI.BaseURL, "OpenAI-compatible API base URL")
	fs.String("ai-model", cfg.AI.Model, "Default model for the general AI tier")
	fs.Duration("ai-timeout", cfg.AI.Timeout, "Timeout for one inference call")
	fs.Int("ai-retries", cfg.AI.Retries, "Attempts per inference call")
	fs.String("ai-reference", cfg.AI.ReferencePath, "Reference schema used as a few-shot example")
	fs.Int("ai-maxpromptchars", cfg.AI.MaxPromptChars, "Document characters sent to the model")
	fs.Int("ai-fewshotmaxchars", cfg.AI.FewShotMaxChars, "Longest document that still gets the few-shot example")

	fs.String("segment-catalog", cfg.Segment.CatalogPath, "YAML heading catalog replacing the built-in one")
	fs.Int("segment-minlines", cfg.Segment.MinLines, "Lines a section must hold before the next heading switches")
}

// FromFlags reads the configuration from an already parsed flag set,
// filling unset flags from FORMSCHEMA_* environment variables
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setupViperEnvironment(v)
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables
func setupViperEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// the standard OpenAI variable works too
	_ = v.BindEnv("ai.apikey", EnvPrefix+"_AI_APIKEY", "OPENAI_API_KEY")
}

// bindFlags binds every defined flag to its viper key
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nformschema - turns inspection documents into xf form schemas over MCP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # stdio mode, current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/forms                  # stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081         # streamable HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ai-enabled=false                # heuristics only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMSCHEMA_MODE, FORMSCHEMA_DIR, FORMSCHEMA_LOGLEVEL, FORMSCHEMA_MAXFILESIZE\n")
		fmt.Fprintf(os.Stderr, "  FORMSCHEMA_AI_APIKEY (or OPENAI_API_KEY), FORMSCHEMA_AI_MODEL, FORMSCHEMA_AI_BASEURL\n")
		fmt.Fprintf(os.Stderr, "  FORMSCHEMA_SEGMENT_CATALOG, FORMSCHEMA_SEGMENT_MINLINES\n")
	}
}

// checkVersionFlag reports whether a version flag was given
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	setString(v, "mode", &cfg.Mode)
	setString(v, "host", &cfg.Host)
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	setString(v, "dir", &cfg.Directory)
	setString(v, "loglevel", &cfg.LogLevel)
	if v.IsSet("maxfilesize") {
		cfg.MaxFileSize = v.GetInt64("maxfilesize")
	}
	if v.IsSet("concurrency") {
		cfg.Concurrency = v.GetInt("concurrency")
	}

	if v.IsSet("ai.enabled") {
		cfg.AI.Enabled = v.GetBool("ai.enabled")
	}
	setString(v, "ai.baseurl", &cfg.AI.BaseURL)
	setString(v, "ai.apikey", &cfg.AI.APIKey)
	setString(v, "ai.model", &cfg.AI.Model)
	if v.IsSet("ai.timeout") {
		cfg.AI.Timeout = v.GetDuration("ai.timeout")
	}
	if v.IsSet("ai.retries") {
		cfg.AI.Retries = v.GetInt("ai.retries")
	}
	setString(v, "ai.reference", &cfg.AI.ReferencePath)
	if v.IsSet("ai.maxpromptchars") {
		cfg.AI.MaxPromptChars = v.GetInt("ai.maxpromptchars")
	}
	if v.IsSet("ai.fewshotmaxchars") {
		cfg.AI.FewShotMaxChars = v.GetInt("ai.fewshotmaxchars")
	}

	setString(v, "segment.catalog", &cfg.Segment.CatalogPath)
	if v.IsSet("segment.minlines") {
		cfg.Segment.MinLines = v.GetInt("segment.minlines")
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Directory == "" {
		return errors.New("document directory cannot be empty")
	}

	// A missing directory is allowed so placeholder paths still load
	if info, err := os.Stat(c.Directory); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("document directory %s is not a directory", c.Directory)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access document directory %s: %w", c.Directory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.AI.Timeout <= 0 {
		return errors.New("ai timeout must be positive")
	}
	if c.AI.Retries < 1 {
		return errors.New("ai retries must be at least 1")
	}
	if c.AI.MaxPromptChars <= 0 {
		return errors.New("ai max prompt characters must be positive")
	}
	if c.AI.FewShotMaxChars < 0 {
		return errors.New("ai few-shot characters cannot be negative")
	}
	if c.Segment.MinLines < 0 {
		return errors.New("segment min lines cannot be negative")
	}

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", s)
}

// Level returns the slog level for LogLevel, falling back to info
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a text logger writing to w at the configured level
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// AIActive reports whether the general AI tier can run: enabled and keyed
func (c *Config) AIActive() bool {
	return c.AI.Enabled && c.AI.APIKey != ""
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The API key
// is never printed.
func (c *Config) String() string {
	key := "unset"
	if c.AI.APIKey != "" {
		key = "set"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"AI: {Enabled: %t, Model: %s, APIKey: %s}}",
		c.Mode, c.Host, c.Port, c.Directory, c.LogLevel, c.MaxFileSize, c.AI.Enabled, c.AI.Model, key)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
