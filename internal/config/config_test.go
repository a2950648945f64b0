package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 3000 {
		t.Errorf("Expected default port to be 3000, got %d", cfg.Port)
	}

	if cfg.BasePath != "/tools/es2aa" {
		t.Errorf("Expected default base path to be '/tools/es2aa', got '%s'", cfg.BasePath)
	}

	if cfg.ServerName != "es2aa" {
		t.Errorf("Expected default server name to be 'es2aa', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.Directory != currentDir {
		t.Errorf("Expected default directory to be '%s', got '%s'", currentDir, cfg.Directory)
	}

	if cfg.UploadDir == "" {
		t.Error("Expected a default upload directory")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func(mutate func(c *Config)) *Config {
		c := &Config{
			Mode:        ModeStdio,
			Host:        "127.0.0.1",
			Port:        3000,
			LogLevel:    "info",
			MaxFileSize: 1024,
		}
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config - stdio mode",
			config:  valid(func(*Config) {}),
			wantErr: false,
		},
		{
			name:    "valid config - server mode",
			config:  valid(func(c *Config) { c.Mode = ModeServer }),
			wantErr: false,
		},
		{
			name:    "invalid mode",
			config:  valid(func(c *Config) { c.Mode = "invalid" }),
			wantErr: true,
		},
		{
			name:    "invalid port - too low (server mode)",
			config:  valid(func(c *Config) { c.Mode = ModeServer; c.Port = 0 }),
			wantErr: true,
		},
		{
			name:    "invalid port - too high (server mode)",
			config:  valid(func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }),
			wantErr: true,
		},
		{
			name:    "invalid port ignored in stdio mode",
			config:  valid(func(c *Config) { c.Port = 0 }),
			wantErr: false,
		},
		{
			name:    "empty upload directory (server mode)",
			config:  valid(func(c *Config) { c.Mode = ModeServer; c.UploadDir = "-" }),
			wantErr: true,
		},
		{
			name:    "empty exam directory",
			config:  valid(func(c *Config) { c.Directory = "-" }),
			wantErr: true,
		},
		{
			name:    "invalid log level",
			config:  valid(func(c *Config) { c.LogLevel = "invalid" }),
			wantErr: true,
		},
		{
			name:    "invalid max file size",
			config:  valid(func(c *Config) { c.MaxFileSize = 0 }),
			wantErr: true,
		},
		{
			name:    "known dialect",
			config:  valid(func(c *Config) { c.Dialect = "ItemID" }),
			wantErr: false,
		},
		{
			name:    "unknown dialect",
			config:  valid(func(c *Config) { c.Dialect = "blackboard" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			// "-" marks a directory the case wants empty
			if tt.config.Directory == "-" {
				tt.config.Directory = ""
			} else {
				tt.config.Directory = tempDir
			}
			if tt.config.UploadDir == "-" {
				tt.config.UploadDir = ""
			} else {
				tt.config.UploadDir = filepath.Join(tempDir, "uploads")
			}

			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	tempParent := t.TempDir()
	examDir := filepath.Join(tempParent, "non-existent", "exams")
	uploadDir := filepath.Join(tempParent, "non-existent", "uploads")

	cfg := &Config{
		Mode:        ModeServer,
		Host:        "127.0.0.1",
		Port:        3000,
		Directory:   examDir,
		UploadDir:   uploadDir,
		LogLevel:    "info",
		MaxFileSize: 1024,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}

	for _, dir := range []string{examDir, uploadDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Directory should have been created: %s", dir)
		}
	}
}

func TestConfigValidateUploadDirIgnoredInStdio(t *testing.T) {
	tempParent := t.TempDir()
	uploadDir := filepath.Join(tempParent, "uploads")

	cfg := &Config{
		Mode:        ModeStdio,
		Directory:   tempParent,
		UploadDir:   uploadDir,
		LogLevel:    "info",
		MaxFileSize: 1024,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}
	if _, err := os.Stat(uploadDir); !os.IsNotExist(err) {
		t.Errorf("Upload directory should not be created in stdio mode: %s", uploadDir)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:               "server",
		Host:               "localhost",
		Port:               3000,
		BasePath:           "/tools/es2aa",
		Directory:          "/home/user/exams",
		UploadDir:          "/tmp/uploads",
		Campus:             "North",
		MultipleChoiceOnly: true,
		LogLevel:           "debug",
		MaxFileSize:        1024,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Host: localhost",
		"Port: 3000",
		"BasePath: /tools/es2aa",
		"Directory: /home/user/exams",
		"UploadDir: /tmp/uploads",
		"Campus: North",
		"MultipleChoiceOnly: true",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	tempDir := t.TempDir()

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := &Config{
				Mode:        ModeStdio,
				Directory:   tempDir,
				LogLevel:    level,
				MaxFileSize: 1024,
			}

			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := &Config{
				Mode:        ModeStdio,
				Directory:   tempDir,
				LogLevel:    level,
				MaxFileSize: 1024,
			}

			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantServer bool
		wantStdio  bool
	}{
		{"server", true, false},
		{"stdio", false, true},
		{"other", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsServerMode(); got != tt.wantServer {
				t.Errorf("Config.IsServerMode() = %v, want %v", got, tt.wantServer)
			}
			if got := cfg.IsStdioMode(); got != tt.wantStdio {
				t.Errorf("Config.IsStdioMode() = %v, want %v", got, tt.wantStdio)
			}
		})
	}
}
