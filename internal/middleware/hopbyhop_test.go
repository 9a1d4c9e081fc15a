package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
)

func TestStripHopByHop(t *testing.T) {
	e := echo.New()
	e.Use(StripHopByHop())

	var got http.Header
	e.GET("/test", func(c echo.Context) error {
		got = c.Request().Header.Clone()
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Connection", "keep-alive, X-Session-Hint")
	req.Header.Set("X-Session-Hint", "drop-me")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Proxy-Authorization", "Basic abc")
	req.Header.Set("Upgrade", "h2c")
	req.Header.Set("Cookie", "sid=1")
	req.Header.Set("Platform", "3")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	want := http.Header{
		"Cookie":   {"sid=1"},
		"Platform": {"3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request headers mismatch (-want +got):\n%s", diff)
	}
}
