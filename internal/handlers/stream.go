package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/memohai/streamrelay/internal/media"
)

// ObjectGetter resolves identifiers to stored objects.
type ObjectGetter interface {
	Get(id string) (*media.Object, error)
}

// StreamHandler delivers stored objects for inline playback.
type StreamHandler struct {
	store  ObjectGetter
	logger *slog.Logger
}

// NewStreamHandler creates a stream handler backed by the media store.
func NewStreamHandler(log *slog.Logger, store *media.Store) *StreamHandler {
	return newStreamHandler(log, store)
}

func newStreamHandler(log *slog.Logger, store ObjectGetter) *StreamHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StreamHandler{
		store:  store,
		logger: log.With(slog.String("handler", "stream")),
	}
}

// Register mounts GET and HEAD /stream/:id.
func (h *StreamHandler) Register(e *echo.Echo) {
	e.GET("/stream/:id", h.Stream)
	e.HEAD("/stream/:id", h.Stream)
}

// Stream godoc
// @Summary Stream a stored file
// @Description Serves the file inline with its MIME type. Single and multi byte-range requests are supported.
// @Tags stream
// @Param id path string true "File identifier"
// @Param Range header string false "bytes=start-end"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Failure 416 {string} string
// @Router /stream/{id} [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	id := c.Param("id")
	obj, err := h.store.Get(id)
	switch {
	case errors.Is(err, media.ErrMalformedIdentifier):
		return c.String(http.StatusBadRequest, msgInvalidIdentifier)
	case errors.Is(err, media.ErrNotFound):
		return c.String(http.StatusNotFound, msgNotFound)
	case err != nil:
		h.logger.Error("lookup failed", slog.String("id", id), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, obj.Mime)
	header.Set(echo.HeaderContentDisposition, inlineDisposition(obj.Filename))
	header.Set("Accept-Ranges", "bytes")
	header.Set("ETag", strconv.Quote(fmt.Sprintf("%s-%x", obj.ID, obj.CreatedAt.UnixNano())))

	if raw := c.Request().Header.Get("Range"); raw != "" {
		if _, err := parseRanges(raw, obj.SizeBytes); err != nil {
			h.logger.Debug("range rejected", slog.String("id", id), slog.String("range", raw))
			header.Del(echo.HeaderContentDisposition)
			header.Del("ETag")
			header.Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
			header.Set("Content-Range", fmt.Sprintf("bytes */%d", obj.SizeBytes))
			return c.String(http.StatusRequestedRangeNotSatisfiable, msgInvalidRange)
		}
	}

	http.ServeContent(c.Response(), c.Request(), obj.Filename, obj.CreatedAt, obj.Reader())
	return nil
}

func inlineDisposition(filename string) string {
	if filename == "" {
		return "inline"
	}
	if value := mime.FormatMediaType("inline", map[string]string{"filename": filename}); value != "" {
		return value
	}
	return "inline"
}
