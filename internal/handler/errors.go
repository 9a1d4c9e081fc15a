package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/service"
)

// statusOK is the acknowledgement body for preflight requests.
var statusOK = map[string]string{"status": "ok"}

// respondError logs err and writes the matching JSON error response.
// Messages stay generic; the details only reach the log.
func respondError(c echo.Context, logger *slog.Logger, err error) error {
	status, msg := classifyError(err)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelInfo
	}
	logger.Log(c.Request().Context(), level, "request failed",
		"err", err,
		"status", status,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)

	return c.JSON(status, map[string]string{"error": msg})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "Method not allowed"
	case errors.Is(err, service.ErrInvalidLogin):
		return http.StatusInternalServerError, "invalid login request"
	case errors.Is(err, service.ErrInvalidUpstreamBody):
		return http.StatusBadGateway, "upstream returned an invalid response"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusBadGateway, "client disconnected"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return http.StatusBadGateway, "upstream host unreachable"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return http.StatusGatewayTimeout, "upstream request timed out"
		}
		return http.StatusBadGateway, "upstream connection failed"
	}

	return http.StatusBadGateway, "upstream request failed"
}
