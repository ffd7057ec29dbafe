package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

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
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "AHC"

	// StrictEnv is the legacy switch for strict template compliance. It is
	// honoured alongside AHC_STRICT.
	StrictEnv = "AHC_STRICT_TEMPLATE_COMPLIANCE"
)

// Config holds all configuration for the certificate engine
type Config struct {
	// Server configuration
	Mode   string // "server" or "stdio"
	Host   string
	Port   int
	APIKey string // bearer key for the HTTP API, empty disables auth

	// Document configuration
	TemplateDirectory string // templates and submissions are read from here
	OutputDirectory   string // generated certificates are written here
	GeometryFile      string // optional replacement reference geometry YAML
	Strict            bool   // strict template compliance by default
	TextHint          bool   // add first-page text to the profile hint

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		TemplateDirectory: currentDir,
		OutputDirectory:   filepath.Join(currentDir, "generated"),
		Version:           "1.0.0",
		ServerName:        "ahc-engine",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.TemplateDirectory, &cfg.OutputDirectory, &cfg.GeometryFile} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	_ = viper.BindEnv("strict", "AHC_STRICT", StrictEnv)

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.TemplateDirectory)
	viper.SetDefault("outdir", cfg.OutputDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("strict", cfg.Strict)
	viper.SetDefault("geometry", cfg.GeometryFile)
	viper.SetDefault("apikey", cfg.APIKey)
	viper.SetDefault("texthint", cfg.TextHint)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.TemplateDirectory, "Directory containing certificate templates and submissions")
	pflag.String("outdir", cfg.OutputDirectory, "Directory generated certificates are written to")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Bool("strict", cfg.Strict, "Enable strict template compliance by default")
	pflag.String("geometry", cfg.GeometryFile, "Replacement reference geometry YAML file")
	pflag.String("apikey", cfg.APIKey, "Bearer key required by the HTTP API (server mode only)")
	pflag.Bool("texthint", cfg.TextHint, "Add first-page text to the profile detection hint")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "outdir", "loglevel",
		"maxfilesize", "strict", "geometry", "apikey", "texthint",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAHC Engine - Animal health certificate template filling and cross-out rendering\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                            "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/templates --strict          "+
			"# stdio mode with strict compliance\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/templates     # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --apikey=s3cr # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  AHC_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  AHC_HOST            Server host\n")
		fmt.Fprintf(os.Stderr, "  AHC_PORT            Server port\n")
		fmt.Fprintf(os.Stderr, "  AHC_DIR             Template directory\n")
		fmt.Fprintf(os.Stderr, "  AHC_OUTDIR          Output directory\n")
		fmt.Fprintf(os.Stderr, "  AHC_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  AHC_MAXFILESIZE     Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  AHC_STRICT          Strict template compliance (also %s)\n", StrictEnv)
		fmt.Fprintf(os.Stderr, "  AHC_GEOMETRY        Reference geometry file\n")
		fmt.Fprintf(os.Stderr, "  AHC_APIKEY          HTTP API bearer key\n")
		fmt.Fprintf(os.Stderr, "  AHC_TEXTHINT        First-page text hint\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("outdir")
	cfg.LogLevel = strings.ToLower(viper.GetString("loglevel"))
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Strict = viper.GetBool("strict")
	cfg.GeometryFile = viper.GetString("geometry")
	cfg.APIKey = viper.GetString("apikey")
	cfg.TextHint = viper.GetBool("texthint")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDirectory == "" {
		return errors.New("template directory cannot be empty")
	}
	if info, err := os.Stat(c.TemplateDirectory); err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplateDirectory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("template directory %s is not a directory", c.TemplateDirectory)
	}

	// Check if output directory exists, create if it doesn't
	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}
	if _, err := os.Stat(c.OutputDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDirectory, err)
	}

	if c.GeometryFile != "" {
		if _, err := os.Stat(c.GeometryFile); err != nil {
			return fmt.Errorf("cannot access geometry file %s: %w", c.GeometryFile, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel returns the configured log level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// String returns a string representation of the configuration. The API key
// is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDirectory: %s, OutputDirectory: %s, LogLevel: %s, MaxFileSize: %d, Strict: %t, Auth: %t}",
		c.Mode, c.Host, c.Port, c.TemplateDirectory, c.OutputDirectory, c.LogLevel, c.MaxFileSize, c.Strict, c.APIKey != "")
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
