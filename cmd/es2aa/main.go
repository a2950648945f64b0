package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/a3tai/es2aa/internal/config"
	"github.com/a3tai/es2aa/internal/converter"
	"github.com/a3tai/es2aa/internal/httpapi"
	"github.com/a3tai/es2aa/internal/logger"
	"github.com/a3tai/es2aa/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger for the configured mode. Stdio mode
// must keep stdout clean for the MCP protocol, so it logs JSON to stderr.
func setupLogging(cfg *config.Config, stderr io.Writer) (zerolog.Logger, error) {
	if cfg.IsStdioMode() {
		return logger.New(cfg.LogLevel, stderr)
	}
	return logger.NewConsole(cfg.LogLevel, stderr)
}

// runServerMode serves the HTTP upload endpoint until a signal arrives
func runServerMode(ctx context.Context, cfg *config.Config, svc *converter.Service, log zerolog.Logger) error {
	server, err := httpapi.NewServer(svc, httpapi.Options{
		UploadDir: cfg.UploadDir,
		BasePath:  cfg.BasePath,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Address()); err != nil {
		return err
	}
	log.Info().Msg("Server stopped successfully")
	return nil
}

// runStdioMode serves MCP until the parent process closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, svc *converter.Service, log zerolog.Logger) error {
	server, err := mcp.NewServer(cfg, svc, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	log.Debug().Str("config", cfg.String()).Msg("Starting with configuration")

	svc, err := converter.NewService(cfg.MaxFileSize, cfg.Directory,
		converter.WithLogger(log),
		converter.WithDefaults(cfg.ExamOptions()),
	)
	if err != nil {
		return fmt.Errorf("failed to create converter service: %w", err)
	}

	if cfg.IsServerMode() {
		return runServerMode(ctx, cfg, svc, log)
	}
	return runStdioMode(ctx, cfg, svc, log)
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "es2aa: %v\n", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ES2AA exam converter\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
