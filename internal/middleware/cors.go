// Package middleware provides Echo middleware for CORS, logging, metrics
// and header hygiene.
package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/config"
)

const allowMethods = "GET, POST, PUT, DELETE, OPTIONS"

// CORS returns an Echo middleware that adds permissive cross-origin headers
// to every response, errors included. It never answers preflights itself;
// the route handlers do.
//
// With AllowCredentials set and an Origin on the request, that origin is
// echoed back instead of the configured one.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	allowHeaders := strings.Join(cfg.AllowHeaders, ",")
	maxAge := strconv.Itoa(cfg.MaxAgeSeconds)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if cfg.AllowCredentials && origin != "" {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
				h.Set(echo.HeaderAccessControlAllowCredentials, "true")
				h.Add(echo.HeaderVary, echo.HeaderOrigin)
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			}

			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			if allowHeaders != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			}
			h.Set(echo.HeaderAccessControlMaxAge, maxAge)

			return next(c)
		}
	}
}
