// Package service implements the forwarding logic for login and proxy requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"manga-gateway/internal/config"
	"manga-gateway/internal/model"
)

// ErrMethodNotAllowed is returned for proxy methods other than GET, POST, PUT and DELETE.
var ErrMethodNotAllowed = errors.New("method not allowed")

// Sender executes a single upstream call and returns the buffered response.
type Sender interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*model.UpstreamResponse, error)
}

// proxiedMethods are the methods forwarded upstream. OPTIONS is answered by the handler.
var proxiedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// strippedRequestHeaders are recomputed by the transport for the new target.
// Accept-Encoding is left to the transport so compressed replies are decoded
// before relay.
var strippedRequestHeaders = []string{
	"Host",
	"Origin",
	"Content-Length",
	"Accept-Encoding",
}

// excludedResponseHeaders no longer describe the relayed body, or are owned
// by the gateway's CORS middleware.
var excludedResponseHeaders = map[string]bool{
	"Content-Encoding":                 true,
	"Content-Length":                   true,
	"Transfer-Encoding":                true,
	"Connection":                       true,
	"Access-Control-Allow-Origin":      true,
	"Access-Control-Allow-Credentials": true,
	"Access-Control-Allow-Methods":     true,
	"Access-Control-Allow-Headers":     true,
	"Access-Control-Max-Age":           true,
}

const formContentType = "application/x-www-form-urlencoded"

// ProxyService forwards /proxy requests to the fixed upstream origin.
type ProxyService struct {
	client  Sender
	logger  *slog.Logger
	origin  string
	headers http.Header
}

// NewProxyService creates a ProxyService for cfg.Upstream.BaseURL.
func NewProxyService(c Sender, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	origin, err := upstreamOrigin(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header, len(cfg.Upstream.Headers))
	for k, v := range cfg.Upstream.Headers {
		headers.Set(k, v)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		origin:  origin,
		headers: headers,
	}, nil
}

// Forward sends pr to the upstream and returns the response with framing
// headers removed. Upstream error statuses are returned as regular responses.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.UpstreamResponse, error) {
	if !proxiedMethods[pr.Method] {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotAllowed, pr.Method)
	}

	query := ""
	if pr.Method == http.MethodGet {
		query = pr.RawQuery
	}
	target := s.buildUpstreamURL(pr.Path, query)

	var body []byte
	if pr.Method == http.MethodPost || pr.Method == http.MethodPut {
		body = encodeBody(pr.ContentType, pr.Body)
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
	)

	resp, err := s.client.Send(pr.Ctx, pr.Method, target, s.buildRequestHeaders(pr.Header), body)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// buildUpstreamURL appends the verbatim path, and the raw query when present, to the origin.
func (s *ProxyService) buildUpstreamURL(path, rawQuery string) string {
	target := s.origin + "/" + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

func (s *ProxyService) buildRequestHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	for _, key := range strippedRequestHeaders {
		dst.Del(key)
	}
	dst.Set("Referer", s.origin+"/")
	for key, vals := range s.headers {
		dst[key] = vals
	}
	return dst
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if !excludedResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[key] = vals
		}
	}
	return dst
}

// encodeBody re-encodes form bodies and passes every other body through unchanged.
func encodeBody(contentType string, raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != formContentType {
		return raw
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return raw
	}
	return []byte(values.Encode())
}

// upstreamOrigin returns base without a trailing slash after checking it parses.
func upstreamOrigin(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("upstream base_url %q has no scheme or host", base)
	}
	return strings.TrimRight(base, "/"), nil
}
