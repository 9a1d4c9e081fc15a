package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"manga-gateway/internal/config"
	"manga-gateway/internal/model"
)

var (
	// ErrInvalidLogin is returned when the login body is not a JSON object
	// carrying username, password and salt.
	ErrInvalidLogin = errors.New("invalid login request")

	// ErrInvalidUpstreamBody is returned when the upstream login reply is not JSON.
	ErrInvalidUpstreamBody = errors.New("upstream login response is not JSON")
)

// loginFields are the required keys, in the order they are form-encoded.
var loginFields = []string{"username", "password", "salt"}

// LoginService relays credentials to the upstream login endpoint.
type LoginService struct {
	client Sender
	logger *slog.Logger
	url    string
}

// NewLoginService creates a LoginService posting to base_url + login_path.
func NewLoginService(c Sender, cfg *config.Config, logger *slog.Logger) (*LoginService, error) {
	origin, err := upstreamOrigin(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, err
	}

	return &LoginService{
		client: c,
		logger: logger.With("component", "login_service"),
		url:    origin + cfg.Upstream.LoginPath,
	}, nil
}

// ParseLoginRequest decodes a JSON login body. All three fields must be
// present; their values are not validated. Non-string values are passed on
// in their JSON text form.
func ParseLoginRequest(body []byte) (*model.LoginRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLogin, err)
	}

	vals := make(map[string]string, len(loginFields))
	for _, name := range loginFields {
		v, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidLogin, name)
		}
		vals[name] = jsonText(v)
	}

	return &model.LoginRequest{
		Username: vals["username"],
		Password: vals["password"],
		Salt:     vals["salt"],
	}, nil
}

// Login posts lr form-encoded to the upstream and returns its reply.
// The upstream status is reported back but never turned into an error; the
// body must be JSON.
func (s *LoginService) Login(ctx context.Context, lr *model.LoginRequest) (*model.UpstreamResponse, error) {
	form := url.Values{
		"username": {lr.Username},
		"password": {lr.Password},
		"salt":     {lr.Salt},
	}
	header := http.Header{"Content-Type": {formContentType}}

	resp, err := s.client.Send(ctx, http.MethodPost, s.url, header, []byte(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("login upstream: %w", err)
	}

	if !json.Valid(bytes.TrimSpace(resp.Body)) {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidUpstreamBody, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("upstream login returned error status",
			"status", resp.StatusCode,
		)
	}

	return resp, nil
}

// jsonText returns the string value of a JSON string, or the raw JSON text otherwise.
func jsonText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}
