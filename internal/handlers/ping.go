package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HomeMessage is the liveness text served at the root path.
const HomeMessage = "✅ Bot is running! Send files to your Telegram bot."

// PingHandler serves the root liveness text, /ping and HEAD /health.
type PingHandler struct {
	logger *slog.Logger
}

// NewPingHandler creates a ping handler.
func NewPingHandler(log *slog.Logger) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{logger: log.With(slog.String("handler", "ping"))}
}

// Register mounts GET /, GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
}

// Home returns the static liveness string.
func (h *PingHandler) Home(c echo.Context) error {
	return c.String(http.StatusOK, HomeMessage)
}

// Ping returns 200 JSON {"status":"ok"}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// PingHead returns 200 No Content for health checks.
func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
