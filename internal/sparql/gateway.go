package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a single store request. Distribution queries over
// large graphs are slow, so this is generous.
const DefaultTimeout = 10 * time.Minute

// ErrMalformedResponse is wrapped when the store answers with a body that
// is not a SPARQL JSON result.
var ErrMalformedResponse = errors.New("malformed SPARQL response")

// GatewayError is a non-2xx answer from the store.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("sparql endpoint returned %d: %s", e.Status, body)
}

// Client sends SPARQL queries and updates.
type Client interface {
	Query(ctx context.Context, query string) (*Results, error)
	Update(ctx context.Context, update string) error
}

// Gateway is a Client for one SPARQL endpoint.
//
// Thread-safety: Gateway is safe for concurrent use.
type Gateway struct {
	endpoint   string
	sudo       bool
	httpClient *http.Client
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithSudo marks every request with mu-auth-sudo, bypassing access rules.
func WithSudo() GatewayOption {
	return func(g *Gateway) {
		g.sudo = true
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.httpClient.Timeout = d
	}
}

// NewGateway creates a gateway for endpoint. Requests are traced with
// otelhttp.
func NewGateway(endpoint string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Query runs a SELECT or ASK query.
func (g *Gateway) Query(ctx context.Context, query string) (*Results, error) {
	body, err := g.post(ctx, "query", query)
	if err != nil {
		return nil, err
	}
	var res Results
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &res, nil
}

// Update runs a SPARQL update.
func (g *Gateway) Update(ctx context.Context, update string) error {
	_, err := g.post(ctx, "update", update)
	return err
}

func (g *Gateway) post(ctx context.Context, field, text string) ([]byte, error) {
	form := url.Values{field: {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	if h, ok := HeadersFrom(ctx); ok {
		if h.SessionID != "" {
			req.Header.Set(HeaderSessionID, h.SessionID)
		}
		if h.CallID != "" {
			req.Header.Set(HeaderCallID, h.CallID)
		}
		if h.AllowedGroups != "" {
			req.Header.Set(HeaderAllowedGroups, h.AllowedGroups)
		}
	}
	if g.sudo {
		req.Header.Set(HeaderSudo, "true")
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql %s: %w", field, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sparql response: %w", err)
	}
	slog.Debug("sparql request",
		"kind", field,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
