// Package app wires the server together from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	server "gridhold/server"
	"gridhold/server/internal/defs"
	servernet "gridhold/server/internal/net"
	"gridhold/server/internal/observability"
	"gridhold/server/internal/script"
	"gridhold/server/internal/telemetry"
	"gridhold/server/logging"
	loggingSinks "gridhold/server/logging/sinks"
)

// Server is a fully wired, not yet started server.
type Server struct {
	Config  Config
	Hub     *server.Hub
	Handler http.Handler
	Router  *logging.Router

	logger  telemetry.Logger
	scripts script.Host
}

// Build constructs every component without starting the simulation or
// listening.
func Build(ctx context.Context, cfg Config, logger telemetry.Logger) (*Server, error) {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	fallbackLogger := log.Default()
	if provider, ok := logger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	router, err := buildRouter(cfg.LoggingConfig(), fallbackLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	cleanup := func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}

	registry := defs.Empty()
	if cfg.DefinitionsPath != "" {
		registry, err = defs.OpenSQLite(ctx, cfg.DefinitionsPath)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("load definitions: %w", err)
		}
		logger.Printf("loaded %d object and %d item definitions from %s", registry.ObjectCount(), registry.ItemCount(), cfg.DefinitionsPath)
	}

	var scripts script.Host = script.Nop{}
	if cfg.ScriptsDir != "" {
		lua := script.NewLuaHost(logger)
		if err := lua.LoadAll(cfg.ScriptsDir); err != nil {
			lua.Close()
			cleanup()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
		logger.Printf("loaded %d scripts from %s", len(lua.Loaded()), cfg.ScriptsDir)
		scripts = lua
	}

	hubCfg := server.DefaultHubConfig()
	hubCfg.TickInterval = cfg.TickInterval
	hubCfg.HeartbeatTimeout = cfg.HeartbeatTimeout
	hubCfg.QueueDepth = cfg.QueueDepth
	hubCfg.WriteWait = cfg.WriteWait
	hubCfg.CommandQueueLimit = cfg.CommandQueueLimit
	hubCfg.WelcomeMessage = cfg.WelcomeMessage
	hubCfg.Members = cfg.Members
	hubCfg.Definitions = registry
	hubCfg.Scripts = scripts
	hubCfg.Logger = logger

	var metrics http.Handler
	if cfg.MetricsEnabled {
		prom := telemetry.NewPrometheus(telemetry.PrometheusConfig{})
		hubCfg.Prometheus = prom
		metrics = prom.Handler()
	}

	hub := server.NewHub(hubCfg, router)
	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger:        fallbackLogger,
		Metrics:       metrics,
		Observability: observability.Config{EnablePprofTrace: cfg.EnablePprofTrace},
	})

	return &Server{
		Config:  cfg,
		Hub:     hub,
		Handler: handler,
		Router:  router,
		logger:  logger,
		scripts: scripts,
	}, nil
}

func buildRouter(cfg logging.Config, fallback *log.Logger) (*logging.Router, error) {
	var sinks []logging.NamedSink
	if cfg.HasSink(logging.SinkConsole) {
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkConsole, Sink: loggingSinks.NewConsole(os.Stdout)})
	}
	if cfg.HasSink(logging.SinkJSON) {
		file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log %s: %w", cfg.JSON.FilePath, err)
		}
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkJSON, Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
	}
	return logging.NewRouter(logging.ClockFunc(time.Now), cfg, fallback, sinks...)
}

// Close disconnects players and releases scripts and the router.
func (s *Server) Close() {
	s.Hub.Close()
	if err := s.scripts.Close(); err != nil {
		s.logger.Printf("failed to close scripts: %v", err)
	}
	if err := s.Router.Close(context.Background()); err != nil {
		s.logger.Printf("failed to close logging router: %v", err)
	}
}

// Serve runs the simulation and the HTTP listener until ctx is cancelled,
// then shuts both down.
func (s *Server) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	go s.Hub.RunSimulation(stop)
	defer close(stop)

	srv := &http.Server{Addr: s.Config.Addr, Handler: s.Handler}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Run builds and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, logger telemetry.Logger) error {
	s, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Serve(ctx)
}

// CheckScripts loads every script under dir and reports the files that
// failed.
func CheckScripts(dir string, logger telemetry.Logger) (loaded, skipped []string, err error) {
	host := script.NewLuaHost(logger)
	defer host.Close()
	if err := host.LoadAll(dir); err != nil {
		return nil, nil, err
	}
	return host.Loaded(), host.Skipped(), nil
}
