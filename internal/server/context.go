package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/openmailtools/applemail-mcp/internal/gate"
	"github.com/openmailtools/applemail-mcp/internal/instrumentation"
	"github.com/openmailtools/applemail-mcp/internal/mail"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	client   *mail.Client
	gate     *gate.Gate
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger
	readOnly bool
	saveDir  string
	mu       sync.RWMutex
	shutdown bool
}

// Options configures a ServerContext.
type Options struct {
	// Client is the Mail.app backend client. Required.
	Client *mail.Client

	// Gate validates and authorizes every tool request. Required.
	Gate *gate.Gate

	// Metrics records tool and backend metrics. May be nil.
	Metrics *instrumentation.Metrics

	// Audit is the operational audit stream. May be nil.
	Audit *instrumentation.AuditLogger

	// Logger is the operator log. Defaults to slog.Default.
	Logger *slog.Logger

	// ReadOnly restricts tool registration to read-only tools.
	ReadOnly bool

	// SaveDir is the default directory for saved attachments.
	SaveDir string
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		client:   opts.Client,
		gate:     opts.Gate,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		logger:   logger,
		readOnly: opts.ReadOnly,
		saveDir:  opts.SaveDir,
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// MailClient returns the Mail.app client
func (sc *ServerContext) MailClient() *mail.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.client
}

// SetMailClient sets the Mail.app client
func (sc *ServerContext) SetMailClient(client *mail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client = client
}

// Gate returns the request gate
func (sc *ServerContext) Gate() *gate.Gate {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.gate
}

// Metrics returns the metrics recorder, which may be nil
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// AuditLogger returns the operational audit stream, which may be nil
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.audit
}

// Logger returns the operator log
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// ReadOnly returns whether only read-only tools are registered
func (sc *ServerContext) ReadOnly() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.readOnly
}

// SaveDir returns the default directory for saved attachments
func (sc *ServerContext) SaveDir() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.saveDir
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
