package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// UpdateSink consumes a chat platform push request.
type UpdateSink interface {
	HandleWebhook(r *http.Request) error
}

// WebhookHandler acknowledges chat platform pushes and forwards them to the sink.
type WebhookHandler struct {
	sink   UpdateSink
	logger *slog.Logger
}

// NewWebhookHandler creates a webhook handler. A nil sink acknowledges and drops pushes.
func NewWebhookHandler(log *slog.Logger, sink UpdateSink) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		sink:   sink,
		logger: log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts POST /webhook.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Webhook)
}

// Webhook godoc
// @Summary Chat platform webhook
// @Description Always acknowledges with 200 OK so the platform does not redeliver; malformed updates are logged and dropped.
// @Tags webhook
// @Success 200 {string} string "OK"
// @Router /webhook [post]
func (h *WebhookHandler) Webhook(c echo.Context) error {
	if h.sink != nil {
		if err := h.sink.HandleWebhook(c.Request()); err != nil {
			h.logger.Warn("webhook update dropped", slog.Any("error", err))
		}
	}
	return c.String(http.StatusOK, "OK")
}
