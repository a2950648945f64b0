package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/es2aa/internal/exam"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 3000
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultBasePath    = "/tools/es2aa"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "ES2AA"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the exam conversion server
type Config struct {
	// Server configuration
	Mode     string // "server" or "stdio"
	Host     string
	Port     int
	BasePath string

	// Directory is the root for MCP file access
	Directory string
	// UploadDir stages HTTP uploads while they are converted
	UploadDir string

	// Conversion defaults
	Campus             string
	Dialect            string
	MultipleChoiceOnly bool

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeStdio, // Default to stdio mode for MCP compatibility
		Host:        DefaultHost,
		Port:        DefaultPort,
		BasePath:    DefaultBasePath,
		Directory:   currentDir,
		UploadDir:   filepath.Join(os.TempDir(), "es2aa-uploads"),
		Version:     "1.0.0",
		ServerName:  "es2aa",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	for _, dir := range []*string{&cfg.Directory, &cfg.UploadDir} {
		if *dir == "" {
			continue
		}
		if expanded, err := filepath.Abs(*dir); err == nil {
			*dir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("base-path", cfg.BasePath)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("upload-dir", cfg.UploadDir)
	viper.SetDefault("campus", cfg.Campus)
	viper.SetDefault("dialect", cfg.Dialect)
	viper.SetDefault("mc-only", cfg.MultipleChoiceOnly)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the HTTP upload server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("base-path", cfg.BasePath, "Route prefix for the HTTP endpoints (server mode only)")
	pflag.String("dir", cfg.Directory, "Directory containing exam exports and metadata sheets")
	pflag.String("upload-dir", cfg.UploadDir, "Directory for staging uploaded files (server mode only)")
	pflag.String("campus", cfg.Campus, "Default value for the campus tag column")
	pflag.String("dialect", cfg.Dialect,
		"Default export dialect ("+strings.Join(exam.DialectNames(), ", ")+"); empty detects it")
	pflag.Bool("mc-only", cfg.MultipleChoiceOnly, "Keep only multiple choice questions by default")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "base-path", "dir", "upload-dir",
		"campus", "dialect", "mc-only", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nes2aa - converts exam exports into assessment import CSV over MCP or HTTP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        "+
			"# MCP over stdio, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/exams --campus=North    "+
			"# MCP with a default campus\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=3000              # HTTP upload server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_BASE_PATH    HTTP route prefix\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_DIR          Exam directory\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_UPLOAD_DIR   Upload staging directory\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_CAMPUS       Default campus\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_DIALECT      Default dialect\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_MC_ONLY      Multiple choice only\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  ES2AA_MAXFILESIZE  Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.BasePath = viper.GetString("base-path")
	cfg.Directory = viper.GetString("dir")
	cfg.UploadDir = viper.GetString("upload-dir")
	cfg.Campus = viper.GetString("campus")
	cfg.Dialect = viper.GetString("dialect")
	cfg.MultipleChoiceOnly = viper.GetBool("mc-only")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port and upload staging only matter to the HTTP server
	if c.Mode == ModeServer {
		if c.Port < 1 || c.Port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		if c.UploadDir == "" {
			return errors.New("upload directory cannot be empty")
		}
		if err := ensureDir(c.UploadDir, "upload"); err != nil {
			return err
		}
	}

	if c.Directory == "" {
		return errors.New("exam directory cannot be empty")
	}
	if err := ensureDir(c.Directory, "exam"); err != nil {
		return err
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Dialect != "" {
		if _, err := exam.DialectByName(c.Dialect); err != nil {
			return err
		}
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

// ensureDir creates dir when it does not exist yet
func ensureDir(dir, label string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", label, dir, err)
	}
	return nil
}

// ExamOptions returns the conversion defaults applied when a request leaves
// them unset
func (c *Config) ExamOptions() exam.Options {
	return exam.Options{
		Campus:             c.Campus,
		Dialect:            c.Dialect,
		MultipleChoiceOnly: c.MultipleChoiceOnly,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, BasePath: %s, Directory: %s, UploadDir: %s, "+
		"Campus: %s, Dialect: %s, MultipleChoiceOnly: %t, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.BasePath, c.Directory, c.UploadDir,
		c.Campus, c.Dialect, c.MultipleChoiceOnly, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
