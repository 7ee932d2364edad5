// Package server provides the Echo HTTP server that fronts the stream store.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Server is the HTTP server (Echo) with recovery, request ids, request logging,
// a per-client rate limit on stream routes and the registered handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// Options configures listen address, connection timeouts and the stream rate limit.
// A zero StreamRateLimit disables rate limiting.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	StreamRateLimit float64
	StreamRateBurst int
}

// NewServer builds the Echo server with the given handlers.
func NewServer(log *slog.Logger, opts Options, handlers ...Handler) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":10000"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))
	if opts.StreamRateLimit > 0 {
		e.Use(streamRateLimiter(opts.StreamRateLimit, opts.StreamRateBurst))
	}

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   opts.Addr,
		logger: log.With(slog.String("component", "server")),
	}
}

func streamRateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	if burst <= 0 {
		burst = int(limit) + 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/stream/")
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.String(http.StatusTooManyRequests, "Too many requests")
		},
	})
}

// ServeHTTP lets the server be exercised without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
