// Package gateway implements the HTTP clients for the remote collaborators:
// identity lookup, token authority, policy configuration, and event log.
// Every call is scoped to one tenant and bounded by the configured timeout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/folio-org/mod-login-sub000/internal/config"
)

const (
	headerTenant = "X-Tenant"
	headerToken  = "X-Auth-Token"
)

// TenantContext carries the per-request tenant and bearer token that scope
// every outbound gateway call. It is passed explicitly, never held as shared
// state.
type TenantContext struct {
	Tenant string
	Token  string
}

// Client is the shared base for all gateway calls.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg *config.GatewayConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// newRequest builds a JSON request with tenant and token headers applied.
func (c *Client) newRequest(ctx context.Context, tc TenantContext, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to build request: %w", err)
	}

	req.Header.Set(headerTenant, tc.Tenant)
	req.Header.Set(headerToken, tc.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// decodeJSON drains and decodes a response body into v.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("gateway: failed to decode response: %w", err)
	}
	return nil
}

// drain discards a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
