package handler

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/client"
	"manga-gateway/internal/config"
	"manga-gateway/internal/metrics"
	"manga-gateway/internal/middleware"
	"manga-gateway/internal/service"
)

// upstreamRecorder is a fake upstream origin that records what reached it.
type upstreamRecorder struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func newUpstream(t *testing.T, h http.HandlerFunc) *upstreamRecorder {
	t.Helper()
	u := &upstreamRecorder{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, r.Clone(r.Context()))
		u.bodies = append(u.bodies, string(body))
		u.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstreamRecorder) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func (u *upstreamRecorder) last(t *testing.T) (*http.Request, string) {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		t.Fatal("upstream received no requests")
	}
	i := len(u.requests) - 1
	return u.requests[i], u.bodies[i]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         baseURL,
			LoginPath:       config.DefaultLoginPath,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		CORS: config.CORSConfig{
			AllowOrigin:   "*",
			AllowHeaders:  []string{"content-type"},
			MaxAgeSeconds: 86400,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// newTestGateway wires the full route table, with CORS, against cfg.
func newTestGateway(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	logger := testLogger()
	m := metrics.New()
	uc := client.NewUpstreamClient(cfg, logger, m)

	proxySvc, err := service.NewProxyService(uc, cfg, logger)
	if err != nil {
		t.Fatalf("NewProxyService: %v", err)
	}
	loginSvc, err := service.NewLoginService(uc, cfg, logger)
	if err != nil {
		t.Fatalf("NewLoginService: %v", err)
	}

	e := echo.New()
	e.Use(middleware.CORS(cfg.CORS))
	scrapePath := ""
	if cfg.Metrics.Enabled {
		scrapePath = cfg.Metrics.Path
	}
	e.Use(middleware.Metrics(m, scrapePath))
	RegisterRoutes(e, cfg, m,
		NewLoginHandler(loginSvc, logger),
		NewProxyHandler(proxySvc, logger),
		NewHealthHandler(cfg, "test"),
	)
	return e
}

func writeGzip(t *testing.T, w io.Writer, payload string) {
	t.Helper()
	zw := gzip.NewWriter(w)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Errorf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Errorf("gzip close: %v", err)
	}
}
