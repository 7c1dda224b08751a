package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/meshgate/internal/alert"
	"github.com/ppiankov/meshgate/internal/audit"
	"github.com/ppiankov/meshgate/internal/config"
	"github.com/ppiankov/meshgate/internal/mesh"
	"github.com/ppiankov/meshgate/internal/metrics"
	"github.com/ppiankov/meshgate/internal/policy"
	"github.com/ppiankov/meshgate/internal/ratelimit"
)

const (
	bodyLimit       = "1M"
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

// Server is the HTTP shell around the scoring pipeline.
type Server struct {
	cfg config.Server

	mu         sync.RWMutex
	policyCfg  *policy.PolicyConfig
	policyHash string

	dispatcher *alert.Dispatcher
	auditLog   *audit.Log
	metrics    *metrics.Metrics
	limiter    *ratelimit.Limiter
	health     *HealthServer

	echo *echo.Echo
	srv  *http.Server

	addrMu sync.Mutex
	addr   string
}

// New creates a server with loaded policy, optional audit log and metrics.
func New(cfg config.Server) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	policyCfg, policyHash, err := policy.LoadConfigWithHash(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	s := &Server{
		cfg:        cfg,
		policyCfg:  policyCfg,
		policyHash: policyHash,
		dispatcher: alert.NewDispatcher(policyCfg.Alerts),
		auditLog:   auditLog,
		metrics:    metrics.New(),
		limiter:    ratelimit.New(cfg.RateLimit, cfg.RateBurst),
		addr:       cfg.Listen,
	}
	if cfg.HealthPort > 0 {
		s.health = NewHealthServer(cfg.HealthPort)
	}

	s.echo = s.newEcho()
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	// Client-supplied forwarding headers are ignored unless a proxy is trusted,
	// so the rate limiter keys on the peer address.
	e.IPExtractor = echo.ExtractIPDirect()
	if s.cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.observe)
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	e.Any(mesh.PingPath, s.handlePing)
	e.Any(mesh.TestPath, s.handleTest, s.rateLimit)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	return e
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins listening. Blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()

	if s.health != nil {
		go func() {
			if err := s.health.Serve(); err != nil {
				log.Error().Err(err).Msg("grpc health server stopped")
			}
		}()
	}
	if s.limiter != nil {
		go s.sweepLimiter(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if s.health != nil {
			s.health.Stop()
		}
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
	}()

	log.Info().
		Str("addr", s.Addr()).
		Str("node_id", s.cfg.NodeID).
		Str("policy_hash", s.PolicyHash()).
		Msg("meshgate listening")

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the listen address; the resolved one once Start has bound.
func (s *Server) Addr() string {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Close waits for in-flight alerts and closes the audit log.
func (s *Server) Close() error {
	s.dispatcher.Wait()
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// PolicyHash returns the hash of the active policy file.
func (s *Server) PolicyHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policyHash
}

// ReloadPolicy atomically swaps the policy config.
// Called by the hot-reloader on file change. The old config stays active on error.
func (s *Server) ReloadPolicy() error {
	policyCfg, policyHash, err := policy.LoadConfigWithHash(s.cfg.PolicyPath)
	if err != nil {
		s.metrics.ObserveReload("error")
		return fmt.Errorf("failed to reload policy config: %w", err)
	}

	s.mu.Lock()
	s.policyCfg = policyCfg
	s.policyHash = policyHash
	s.mu.Unlock()
	s.dispatcher.SetConfigs(policyCfg.Alerts)

	s.metrics.ObserveReload("ok")
	return nil
}

func (s *Server) snapshot() (*policy.PolicyConfig, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policyCfg, s.policyHash
}

func (s *Server) handlePing(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, mesh.NewPingResponse(s.cfg.NodeID), "  ")
}

func (s *Server) handleTest(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSONPretty(http.StatusMethodNotAllowed, mesh.NewUsageResponse(baseURL(c)), "  ")
	}

	policyCfg, policyHash := s.snapshot()

	message := policyCfg.DefaultMessage
	m, ok, err := readMessage(c.Request().Body)
	if err != nil {
		return err
	}
	if ok {
		message = m
	}

	result := mesh.Evaluate(message, policyCfg)
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	s.record(requestID, result, policyHash)

	return c.JSONPretty(http.StatusOK, mesh.NewTestResponse(s.cfg.NodeID, result), "  ")
}

// readMessage extracts body.message. An empty body, malformed JSON or a
// missing/null message reports false so the caller falls back to the default.
// Read failures, including an oversized body, are returned as HTTP errors.
func readMessage(body io.Reader) (string, bool, error) {
	if body == nil {
		return "", false, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return "", false, he
		}
		return "", false, echo.NewHTTPError(http.StatusBadRequest, "Unreadable request body").SetInternal(err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	var req mesh.TestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Debug().Err(err).Msg("malformed request body, using default message")
		return "", false, nil
	}
	if req.Message == nil {
		return "", false, nil
	}
	return *req.Message, true, nil
}

func (s *Server) record(requestID string, r mesh.Result, policyHash string) {
	s.metrics.ObserveDecision(string(r.Band), string(r.Plan.Alg), r.RouteScore)

	now := time.Now().UTC().Format(audit.TimestampFormat)
	if s.auditLog != nil {
		err := s.auditLog.Record(audit.AuditEntry{
			Timestamp:     now,
			RequestID:     requestID,
			NodeID:        s.cfg.NodeID,
			Source:        "http",
			MessageLength: r.Length,
			Reputation:    r.Reputation,
			RouteScore:    r.RouteScore,
			Band:          string(r.Band),
			Alg:           string(r.Plan.Alg),
			Cost:          r.Cost,
			PolicyHash:    policyHash,
		})
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("audit record failed")
		}
	}

	s.dispatcher.Dispatch(alert.AlertEvent{
		Timestamp:     now,
		RequestID:     requestID,
		NodeID:        s.cfg.NodeID,
		Band:          string(r.Band),
		Alg:           string(r.Plan.Alg),
		RouteScore:    r.RouteScore,
		MessageLength: r.Length,
		PolicyHash:    policyHash,
	})
}

// observe logs each request and counts it, after the error handler has
// written the final status.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		route := c.Path()
		if status == http.StatusNotFound || route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, strconv.Itoa(status))

		log.Info().
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow(c.RealIP()) {
			return c.JSONPretty(http.StatusTooManyRequests, map[string]any{
				"ok":    false,
				"error": "Too many requests",
			}, "  ")
		}
		return next(c)
	}
}

func (s *Server) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.limiter.Sweep()
		}
	}
}

// errorHandler answers unmatched paths with plain "Not found" and
// everything else with a JSON error body.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code == http.StatusNotFound {
		if werr := c.String(http.StatusNotFound, "Not found"); werr != nil {
			log.Error().Err(werr).Msg("write error response")
		}
		return
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	}
	if werr := c.JSONPretty(code, map[string]any{"ok": false, "error": msg}, "  "); werr != nil {
		log.Error().Err(werr).Msg("write error response")
	}
}

func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
