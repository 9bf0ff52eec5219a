package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/audit"
	"github.com/nerrad567/sqlgate/internal/engine"
	"github.com/nerrad567/sqlgate/internal/infrastructure/config"
	"github.com/nerrad567/sqlgate/internal/infrastructure/database"
	"github.com/nerrad567/sqlgate/internal/infrastructure/influxdb"
	"github.com/nerrad567/sqlgate/internal/infrastructure/logging"
	"github.com/nerrad567/sqlgate/internal/infrastructure/mqtt"
	"github.com/nerrad567/sqlgate/internal/sqlfunc"
	"github.com/nerrad567/sqlgate/internal/validation"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// limiterSweepInterval is how often idle per-client rate limiters are dropped.
const limiterSweepInterval = time.Minute

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	DB       *database.DB
	Engine   *engine.Engine
	Registry *sqlfunc.Registry

	// Gate defaults to one built from the gateway allow-lists.
	Gate *access.Gate

	// Sink receives every gateway event asynchronously once the server
	// is started. Optional.
	Sink audit.Sink

	// Counters defaults to a fresh set.
	Counters *audit.Counters

	// Optional, reported by /metrics only.
	MQTT     *mqtt.Client
	InfluxDB *influxdb.Client

	Version string
}

// Server is the HTTP front of the gateway.
//
// It is created with New() and started with Start(). Everything it holds
// is read-only after New except the rate limiter table and the counters.
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	db        *database.DB
	engine    *engine.Engine
	registry  *sqlfunc.Registry
	gate      *access.Gate
	counters  *audit.Counters
	recent    *audit.Recent
	sink      audit.Sink
	auditCh   chan audit.Event
	drained   chan struct{}
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	limiter   *clientLimiter
	fields    []validation.Field
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
	cancel    context.CancelFunc // stops background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("function registry is required")
	}

	gate := deps.Gate
	if gate == nil {
		gate = access.NewGate(deps.Config.Gateway.AllowedIPs, deps.Config.Gateway.AllowedPasswords)
	}
	counters := deps.Counters
	if counters == nil {
		counters = audit.NewCounters()
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		db:        deps.DB,
		engine:    deps.Engine,
		registry:  deps.Registry,
		gate:      gate,
		counters:  counters,
		recent:    audit.NewRecent(recentExecutions),
		sink:      deps.Sink,
		auditCh:   make(chan audit.Event, auditChanSize),
		drained:   make(chan struct{}),
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		fields:    gatewayFields(gate.SecretRequired(), deps.Config.Gateway.MaxQueryLength),
		version:   deps.Version,
		startTime: time.Now(),
	}

	if rl := deps.Config.Security.RateLimit; rl.Enabled {
		s.limiter = newClientLimiter(rl.RequestsPerMinute, rl.Burst)
	}

	return s, nil
}

// Handler returns the routed HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// The listener is bound before Start returns, so a port already in use is
// reported here. Serving continues in a background goroutine until Close().
func (s *Server) Start(ctx context.Context) error {
	api := s.cfg.API

	ln, err := net.Listen("tcp", net.JoinHostPort(api.Host, fmt.Sprint(api.Port)))
	if err != nil {
		return fmt.Errorf("binding API listener: %w", err)
	}
	s.listener = ln

	// Only Close stops serving; cancelling ctx must not abort in-flight
	// statements ahead of the graceful shutdown.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if s.sink != nil {
		go s.drainAuditLog(srvCtx)
	}
	if s.limiter != nil {
		go s.limiter.sweepLoop(srvCtx, limiterSweepInterval)
	}

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
		BaseContext:       func(net.Listener) context.Context { return srvCtx },
	}

	s.logger.Info("gateway listening",
		"address", ln.Addr().String(),
		"route", s.cfg.Gateway.Route,
		"tls", api.TLS.Enabled,
	)

	go func() {
		var err error
		if api.TLS.Enabled {
			err = s.server.ServeTLS(ln, api.TLS.CertFile, api.TLS.KeyFile)
		} else {
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	// In-flight statements see their contexts cancelled only after
	// Shutdown has given them the grace period.
	if s.cancel != nil {
		s.cancel()
	}
	if s.sink != nil {
		<-s.drained
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and the database answers.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return s.db.HealthCheck(ctx)
}
