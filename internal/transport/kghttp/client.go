// Package kghttp is the HTTP transport of the knowledge graph client.
// Every call returns the decoded JSON document, nil for HTTP 404, or a *domain.TransportError.
package kghttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/metrics"
	"github.com/kailas-cloud/kgclient/internal/version"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in a TransportError.
const maxErrorBody = 4096

var tracer = otel.Tracer("kghttp")

// Config holds the transport settings.
type Config struct {
	// Endpoint is scheme://host[:port] of the service.
	Endpoint string
	// Prefix is the API version segment, e.g. "v0".
	Prefix  string
	Token   string
	Timeout time.Duration
	// HTTPClient is copied; its transport gets wrapped with metrics.
	HTTPClient *http.Client
	Metrics    *metrics.Collectors
	Logger     *zap.Logger
}

// Client talks to the knowledge graph REST API.
type Client struct {
	http     *http.Client
	endpoint string
	prefix   string
	apiRoot  string
	token    string
	logger   *zap.Logger
}

// New creates a transport client.
func New(cfg *Config) *Client {
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		*hc = *cfg.HTTPClient
	}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	} else if hc.Timeout == 0 {
		hc.Timeout = DefaultTimeout
	}
	hc.Transport = metrics.RoundTripper(cfg.Metrics, hc.Transport)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	prefix := strings.Trim(cfg.Prefix, "/")
	return &Client{
		http:     hc,
		endpoint: endpoint,
		prefix:   prefix,
		apiRoot:  endpoint + "/" + prefix,
		token:    cfg.Token,
		logger:   logger,
	}
}

// APIRoot returns endpoint/prefix.
func (c *Client) APIRoot() string { return c.apiRoot }

// Endpoint returns the service endpoint without the API prefix.
func (c *Client) Endpoint() string { return c.endpoint }

// Get reads a resource or a listing.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, c.FullURL(path), nil)
}

// Put creates or updates a resource at a caller-chosen path.
func (c *Client) Put(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPut, c.FullURL(path), body)
}

// Post creates a resource with a server-assigned id.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, c.FullURL(path), body)
}

// Patch partially updates a resource.
func (c *Client) Patch(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPatch, c.FullURL(path), body)
}

// Delete deprecates a resource.
func (c *Client) Delete(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodDelete, c.FullURL(path), nil)
}

// GetURL reads an absolute URL without rewriting it onto the API root.
func (c *Client) GetURL(ctx context.Context, rawURL string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// FullURL resolves a path against the API root. Absolute URLs reported by the service
// (which may carry a public namespace instead of the configured endpoint) are rewritten
// onto the API root, keeping everything after the prefix.
func (c *Client) FullURL(path string) string {
	if strings.HasPrefix(path, c.apiRoot) {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		idx := strings.Index(path, "/"+c.prefix+"/")
		if c.prefix == "" || idx < 0 {
			return path
		}
		path = path[idx+len(c.prefix)+1:]
	}
	if path != "" && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "?") {
		path = "/" + path
	}
	return c.apiRoot + path
}

func (c *Client) do(ctx context.Context, method, fullURL string, body any) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "kghttp."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", fullURL),
	)

	result, status, err := c.roundTrip(ctx, method, fullURL, body)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("knowledge graph request failed",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.Int("status", status),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("knowledge graph request",
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.Int("status", status),
	)
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, method, fullURL string, body any) (map[string]any, int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s %s body: %w", method, fullURL, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, nil
	case resp.StatusCode >= http.StatusBadRequest:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, &domain.TransportError{
			Method:     method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	doc, err := decode(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, fullURL, err)
	}
	return doc, resp.StatusCode, nil
}

// decode reads a JSON object. An empty body decodes to an empty document.
func decode(r io.Reader) (map[string]any, error) {
	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
