// Package plantuml is the HTTP client for the PlantUML rendering service.
package plantuml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

const (
	// DefaultBaseURL is used when neither configuration nor environment set one.
	DefaultBaseURL = "http://localhost:8090"
	// EnvBaseURL overrides the base address when no explicit one is given.
	EnvBaseURL = "UMLPAD_API_URL"

	svgPath    = "/api/plantuml/svg"
	healthPath = "/api/plantuml/health"
	infoPath   = "/api/plantuml/info"

	maxResponseBytes = 32 << 20
)

// ResolveBaseURL picks explicit, then $UMLPAD_API_URL, then DefaultBaseURL.
func ResolveBaseURL(explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	if s := strings.TrimSpace(os.Getenv(EnvBaseURL)); s != "" {
		return s
	}
	return DefaultBaseURL
}

type svgRequest struct {
	PlantUMLText string `json:"plantumlText"`
}

type svgResponse struct {
	SVG string `json:"svg"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the transport timeout of render calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.renderTimeout = d
		}
	}
}

// WithHealthTimeout sets the timeout of health probes.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// Client talks to the rendering service over HTTP/JSON.
type Client struct {
	baseURL       string
	client        *http.Client
	renderTimeout time.Duration
	healthTimeout time.Duration
}

var _ ports.RenderService = (*Client)(nil)

// New creates a client for baseURL, resolved with ResolveBaseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(ResolveBaseURL(baseURL), "/"),
		client:        &http.Client{},
		renderTimeout: domain.DefaultTransportTimeout,
		healthTimeout: domain.DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Render posts source and returns the SVG document.
func (c *Client) Render(ctx context.Context, source string) (string, error) {
	body, err := c.request(ctx, http.MethodPost, svgPath, svgRequest{PlantUMLText: source}, c.renderTimeout)
	if err != nil {
		return "", err
	}

	var resp svgResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode svg response: %w", err)
	}
	return resp.SVG, nil
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (domain.HealthStatus, error) {
	body, err := c.request(ctx, http.MethodGet, healthPath, nil, c.healthTimeout)
	if err != nil {
		return domain.HealthStatus{}, err
	}

	var status domain.HealthStatus
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &status); err != nil {
			return domain.HealthStatus{}, fmt.Errorf("decode health response: %w", err)
		}
	}
	return status, nil
}

// Info returns the service's self-description as loosely typed JSON.
func (c *Client) Info(ctx context.Context) (map[string]any, error) {
	body, err := c.request(ctx, http.MethodGet, infoPath, nil, c.healthTimeout)
	if err != nil {
		return nil, err
	}

	info := map[string]any{}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode info response: %w", err)
	}
	return info, nil
}

func (c *Client) request(ctx context.Context, method, path string, body any, timeout time.Duration) ([]byte, error) {
	reqCtx := ctx
	if timeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > timeout {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode >= 300 {
		return nil, rejection(resp.StatusCode, payload)
	}
	return payload, nil
}

func rejection(status int, payload []byte) error {
	var er errorResponse
	if err := json.Unmarshal(payload, &er); err == nil && strings.TrimSpace(er.Error) != "" {
		return &domain.RejectedError{StatusCode: status, Message: er.Error}
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		// A proxy answering for a service that is down.
		return fmt.Errorf("%w: status %d", domain.ErrNetwork, status)
	}
	return &domain.RejectedError{StatusCode: status, Message: "Failed to generate diagram"}
}

// transportError tags a failed round trip as a timeout or a network error.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
}
