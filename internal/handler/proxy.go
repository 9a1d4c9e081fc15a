package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/model"
	"manga-gateway/internal/service"
)

const proxyPrefix = "/proxy/"

// ProxyHandler relays /proxy/* requests to the upstream origin.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle answers preflights locally and relays everything else: status, body
// and filtered headers are copied from the upstream reply.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	if req.Method == http.MethodOptions {
		return c.JSON(http.StatusOK, statusOK)
	}

	path := strings.TrimPrefix(req.URL.EscapedPath(), proxyPrefix)
	if path == "" {
		return echo.ErrNotFound
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// BodyLimit reports oversized bodies as an *echo.HTTPError from Read.
		return err
	}

	pr := &model.ProxyRequest{
		Ctx:         req.Context(),
		Method:      req.Method,
		Path:        path,
		RawQuery:    req.URL.RawQuery,
		Header:      req.Header,
		ContentType: req.Header.Get(echo.HeaderContentType),
		Body:        body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Debug("relaying response",
		"method", pr.Method,
		"path", pr.Path,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
	)

	header := c.Response().Header()
	for key, vals := range resp.Header {
		for _, v := range vals {
			header.Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := c.Response().Write(resp.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// methodNotAllowed writes the 405 for a method the router rejected before Handle ran.
func (h *ProxyHandler) methodNotAllowed(c echo.Context) error {
	return respondError(c, h.logger, fmt.Errorf("%w: %s", service.ErrMethodNotAllowed, c.Request().Method))
}
