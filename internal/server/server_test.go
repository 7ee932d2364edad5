package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type staticHandler struct{}

func (staticHandler) Register(e *echo.Echo) {
	e.GET("/stream/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "up")
	})
}

func TestServerSetsRequestID(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, Options{}, staticHandler{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
	assert.Equal(t, ":10000", srv.Addr())
}

func TestServerRateLimitsStreamRoutesOnly(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, Options{StreamRateLimit: 1, StreamRateBurst: 1}, staticHandler{}, nil)

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/stream/abc"))
	assert.Equal(t, http.StatusTooManyRequests, do("/stream/abc"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("/"))
	}
}
