package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"manga-gateway/internal/service"
)

// LoginHandler relays browser logins to the upstream login endpoint.
type LoginHandler struct {
	service *service.LoginService
	logger  *slog.Logger
}

// NewLoginHandler creates a LoginHandler.
func NewLoginHandler(svc *service.LoginService, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		service: svc,
		logger:  logger.With("component", "login_handler"),
	}
}

// Preflight acknowledges a CORS preflight without contacting the upstream.
func (h *LoginHandler) Preflight(c echo.Context) error {
	return c.JSON(http.StatusOK, statusOK)
}

// Login forwards the credentials and writes the upstream JSON body with status
// 200, whatever status the upstream answered with.
func (h *LoginHandler) Login(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	lr, err := service.ParseLoginRequest(body)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	resp, err := h.service.Login(c.Request().Context(), lr)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSONBlob(http.StatusOK, resp.Body)
}
