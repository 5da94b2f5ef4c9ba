package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Config{Service: "natours", Env: "test", Format: "json"})

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/api/v1/tours", func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "http request", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(http.StatusTeapot), record["status"])
	assert.Equal(t, "/api/v1/tours", record["uri"])
	assert.Equal(t, "natours", record["service"])
}
