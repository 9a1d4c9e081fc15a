package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/config"
)

func defaultCORS() config.CORSConfig {
	return config.CORSConfig{
		AllowOrigin:   "*",
		AllowHeaders:  []string{"content-type", "platform"},
		MaxAgeSeconds: 86400,
	}
}

func TestCORS_AddsHeaders(t *testing.T) {
	e := echo.New()
	e.Use(CORS(defaultCORS()))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	want := map[string]string{
		echo.HeaderAccessControlAllowOrigin:  "*",
		echo.HeaderAccessControlAllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		echo.HeaderAccessControlAllowHeaders: "content-type,platform",
		echo.HeaderAccessControlMaxAge:       "86400",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowCredentials); got != "" {
		t.Errorf("Allow-Credentials = %q, want empty", got)
	}
}

func TestCORS_CredentialsEchoOrigin(t *testing.T) {
	cfg := defaultCORS()
	cfg.AllowCredentials = true

	e := echo.New()
	e.Use(CORS(cfg))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		name      string
		origin    string
		wantAllow string
		wantCreds string
	}{
		{"with origin", "http://localhost:5173", "http://localhost:5173", "true"},
		{"without origin", "", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.origin != "" {
				req.Header.Set(echo.HeaderOrigin, tt.origin)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowCredentials); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
		})
	}
}

func TestCORS_OnErrorResponses(t *testing.T) {
	e := echo.New()
	e.Use(CORS(defaultCORS()))
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("boom")
	})

	for _, path := range []string{"/fail", "/missing"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code < 400 {
				t.Fatalf("status = %d, want an error status", rec.Code)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
				t.Errorf("Allow-Origin = %q, want %q", got, "*")
			}
		})
	}
}

func TestCORS_DoesNotAnswerPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(defaultCORS()))
	e.OPTIONS("/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodOptions, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d from the route handler", rec.Code, http.StatusOK)
	}
}
