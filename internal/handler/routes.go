package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manga-gateway/internal/config"
	"manga-gateway/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The metrics endpoint is only mounted when enabled in cfg.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, login *LoginHandler, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/gateway/status", health.Status)

	e.POST("/login", login.Login)
	e.OPTIONS("/login", login.Preflight)

	e.Any("/proxy/*", proxy.Handle)
	e.HTTPErrorHandler = proxyMethodErrors(e.HTTPErrorHandler, proxy)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

// proxyMethodErrors answers the router's own 405 for methods Echo's Any does
// not register (MKCOL, LOCK, ...) the same way the proxy handler answers PATCH.
func proxyMethodErrors(next echo.HTTPErrorHandler, proxy *ProxyHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusMethodNotAllowed &&
			strings.HasPrefix(c.Request().URL.Path, proxyPrefix) && !c.Response().Committed {
			c.Response().Header().Del(echo.HeaderAllow)
			_ = proxy.methodNotAllowed(c)
			return
		}
		next(err, c)
	}
}
