// Package model defines the request-scoped types passed between handlers,
// services and the upstream client.
package model

import (
	"context"
	"net/http"
)

// ProxyRequest is an inbound /proxy request, buffered and ready to forward.
// Cookies travel inside Header.
type ProxyRequest struct {
	Ctx         context.Context
	Method      string
	Path        string // escaped path suffix after /proxy/
	RawQuery    string
	Header      http.Header
	ContentType string
	Body        []byte
}

// LoginRequest carries the credential fields relayed to the upstream login endpoint.
type LoginRequest struct {
	Username string
	Password string
	Salt     string
}

// UpstreamResponse is a fully buffered upstream response.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
