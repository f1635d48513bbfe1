package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
	"github.com/openmailtools/applemail-mcp/internal/gate"
	"github.com/openmailtools/applemail-mcp/internal/instrumentation"
	"github.com/openmailtools/applemail-mcp/internal/mail"
	"github.com/openmailtools/applemail-mcp/internal/server"
	"github.com/openmailtools/applemail-mcp/internal/tools/mail_tools"
)

// ServeConfig holds the resolved serve command configuration.
type ServeConfig struct {
	Transport string
	HTTPAddr  string
	Debug     bool
	Yolo      bool
	// SkipConfirmation disables the confirmation token handshake for
	// destructive operations. Independent of Yolo: enabling write tools
	// does not waive the handshake.
	SkipConfirmation bool
	AuditLog         string
	ScriptTimeout    time.Duration
	MaxBatch         int
	// DestructiveRate caps destructive operations per rolling minute.
	DestructiveRate int
	SaveDirs        []string
	Metrics         MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var cfg ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Apple Mail tools
for AI assistants. Requires macOS with Mail.app and automation permission
for osascript.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write and destructive operations
  (sending email, deleting messages, etc.). Destructive operations still
  require a confirmation token unless --skip-confirmation is also set.

Audit Trail:
  Every tool call is appended to the audit log as a JSON line, including
  denied and failed calls. The log is append-only and never truncated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &cfg)
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&cfg.Transport, "transport", "stdio", "Transport type: stdio or streamable-http. Can also use MAILMCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use MAILMCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&cfg.Yolo, "yolo", false, "Enable write and destructive operations. Default is read-only mode.")
	cmd.Flags().BoolVar(&cfg.SkipConfirmation, "skip-confirmation", false, "Bypass the confirmation token handshake for destructive operations. Only meaningful together with --yolo. Can also use MAILMCP_SKIP_CONFIRMATION env var.")
	cmd.Flags().StringVar(&cfg.AuditLog, "audit-log", "", "Path to the append-only audit log. Defaults to ~/.config/applemail-mcp/audit.log. Can also use MAILMCP_AUDIT_LOG env var.")
	cmd.Flags().DurationVar(&cfg.ScriptTimeout, "script-timeout", applescript.DefaultTimeout, "Timeout for a single osascript invocation. Can also use MAILMCP_SCRIPT_TIMEOUT env var.")
	cmd.Flags().IntVar(&cfg.MaxBatch, "max-batch", 100, "Maximum number of message IDs in a single bulk operation. Can also use MAILMCP_MAX_BATCH env var.")
	cmd.Flags().IntVar(&cfg.DestructiveRate, "destructive-rate", 10, "Maximum destructive operations per rolling minute. Can also use MAILMCP_DESTRUCTIVE_RATE env var.")
	cmd.Flags().StringSliceVar(&cfg.SaveDirs, "save-dir", nil, "Whitelisted directory for reading and saving attachments (repeatable). Can also use MAILMCP_SAVE_DIRS env var (comma-separated).")

	// Metrics server flags
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars fills in configuration from environment variables.
// Environment variables only apply when the flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, cfg *ServeConfig) {
	if !cmd.Flags().Changed("transport") {
		if v := os.Getenv("MAILMCP_TRANSPORT"); v != "" {
			cfg.Transport = v
		}
	}
	if !cmd.Flags().Changed("http-addr") {
		if v := os.Getenv("MAILMCP_HTTP_ADDR"); v != "" {
			cfg.HTTPAddr = v
		}
	}
	if !cmd.Flags().Changed("yolo") && os.Getenv("MAILMCP_YOLO") == "true" {
		cfg.Yolo = true
	}
	if !cmd.Flags().Changed("skip-confirmation") && os.Getenv("MAILMCP_SKIP_CONFIRMATION") == "true" {
		cfg.SkipConfirmation = true
	}
	if !cmd.Flags().Changed("debug") && os.Getenv("MAILMCP_DEBUG") == "true" {
		cfg.Debug = true
	}
	if cfg.AuditLog == "" {
		cfg.AuditLog = os.Getenv("MAILMCP_AUDIT_LOG")
	}
	if !cmd.Flags().Changed("script-timeout") {
		if v := os.Getenv("MAILMCP_SCRIPT_TIMEOUT"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				cfg.ScriptTimeout = d
			} else {
				log.Printf("Warning: invalid MAILMCP_SCRIPT_TIMEOUT value %q, using default", v)
			}
		}
	}
	if !cmd.Flags().Changed("max-batch") {
		if v := os.Getenv("MAILMCP_MAX_BATCH"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.MaxBatch = n
			}
		}
	}
	if !cmd.Flags().Changed("destructive-rate") {
		if v := os.Getenv("MAILMCP_DESTRUCTIVE_RATE"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.DestructiveRate = n
			}
		}
	}
	if len(cfg.SaveDirs) == 0 {
		if v := os.Getenv("MAILMCP_SAVE_DIRS"); v != "" {
			cfg.SaveDirs = parseCommaSeparatedList(v)
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
		cfg.Metrics.Enabled = false
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			cfg.Metrics.Addr = v
		}
	}
}

// defaultAuditLogPath returns the default audit log location under the
// user's config directory.
func defaultAuditLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for audit log: %w", err)
	}
	return filepath.Join(home, ".config", "applemail-mcp", "audit.log"), nil
}

func runServe(cfg ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr; on stdio transport stdout carries the protocol.
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if cfg.Transport != "stdio" && cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	// Open the durable audit trail
	auditPath := cfg.AuditLog
	if auditPath == "" {
		auditPath, err = defaultAuditLogPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(auditPath), 0o700); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}
	recorder, err := gate.NewRecorder(auditPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("audit log close failed", "error", err)
		}
	}()

	// Assemble the gate and the Mail.app client
	g := newGate(cfg, recorder, logger)

	runner := applescript.NewRunner(cfg.ScriptTimeout, logger)
	client := mail.NewClient(runner, logger)

	// readOnly is the inverse of yolo
	readOnly := !cfg.Yolo

	opts := server.Options{
		Client:   client,
		Gate:     g,
		Logger:   logger,
		ReadOnly: readOnly,
	}
	if len(cfg.SaveDirs) > 0 {
		opts.SaveDir = cfg.SaveDirs[0]
	}
	if provider.Enabled() {
		client.SetMetrics(provider.Metrics())
		opts.Metrics = provider.Metrics()
		opts.Audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	serverContext := server.NewServerContext(shutdownCtx, opts)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", "error", err)
		}
	}()

	if readOnly {
		logger.Info("starting in read-only mode (use --yolo to enable write operations)")
	} else {
		logger.Warn("write and destructive operations enabled (--yolo)")
		if cfg.SkipConfirmation {
			logger.Warn("confirmation token handshake disabled (--skip-confirmation)")
		}
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("applemail-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := mail_tools.RegisterMailTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register mail tools: %w", err)
	}

	// Start the appropriate server based on transport type
	switch cfg.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg ServeConfig, provider *instrumentation.Provider, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv)

	mux := http.NewServeMux()
	var mcpHandler http.Handler = streamable
	if provider.Enabled() {
		mcpHandler = instrumentHTTP(provider.Metrics(), "/mcp", mcpHandler)
	}
	mux.Handle("/mcp", mcpHandler)

	// Health endpoints for launchd and container supervisors
	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(mux)
	healthChecker.SetReady(true)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting streamable HTTP server",
		"addr", cfg.HTTPAddr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz /readyz")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}

// instrumentHTTP wraps a handler with request metrics and session gauges.
func instrumentHTTP(metrics *instrumentation.Metrics, path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.IncrementActiveSessions(r.Context())
		defer metrics.DecrementActiveSessions(r.Context())

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.RecordHTTPRequest(r.Context(), r.Method, path,
			recorder.status, time.Since(start))
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// newGate assembles the request gate from the resolved configuration. Tool
// registration (--yolo) and confirmation bypass (--skip-confirmation) are
// separate switches: enabling destructive tools leaves the token handshake
// in place.
func newGate(cfg ServeConfig, recorder *gate.Recorder, logger *slog.Logger) *gate.Gate {
	return gate.NewGate(
		gate.NewSanitizer(gate.Limits{
			MaxBatch: cfg.MaxBatch,
			SaveDirs: cfg.SaveDirs,
		}),
		gate.NewPolicy(gate.PolicyConfig{
			DestructiveLimit:   cfg.DestructiveRate,
			BypassConfirmation: cfg.SkipConfirmation,
		}),
		recorder,
		logger,
	)
}

// parseCommaSeparatedList splits a comma-separated string into trimmed,
// non-empty elements. Returns nil for an empty input.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
