package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

func logEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger_SharesRequestIDWithHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(echomiddleware.RequestID())
	e.Use(RequestLogger(logger.New(logger.Options{Output: &buf})))
	e.GET("/ping", func(c echo.Context) error {
		logger.FromContext(c.Request().Context(), zerolog.Nop()).Info().Msg("inside handler")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	events := logEvents(t, &buf)
	if len(events) != 2 {
		t.Fatalf("expected a handler event and an access event, got %d", len(events))
	}
	for _, ev := range events {
		if ev["request_id"] != "req-42" || ev["component"] != "http" {
			t.Errorf("event missing request scope: %v", ev)
		}
	}
	if events[1]["message"] != "request" || events[1]["status"] != float64(http.StatusNoContent) {
		t.Errorf("unexpected access event: %v", events[1])
	}
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		e := echo.New()
		e.Use(echomiddleware.RequestID())
		e.Use(RequestLogger(logger.New(logger.Options{Output: &buf})))
		e.GET("/", func(c echo.Context) error { return c.NoContent(tc.status) })

		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		events := logEvents(t, &buf)
		if len(events) != 1 || events[0]["level"] != tc.level {
			t.Errorf("status %d: expected one %s event, got %v", tc.status, tc.level, events)
		}
	}
}
