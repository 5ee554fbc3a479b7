// Package graphql talks to the Zone01 platform: it signs in against the
// auth endpoint and issues the dashboard's fixed GraphQL queries, turning
// the responses into validated record values.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths relative to the platform base URL.
const (
	SignInPath  = "/api/auth/signin"
	GraphQLPath = "/api/graphql-engine/v1/graphql"
)

const (
	// DefaultBaseURL is the Zone01 Kisumu platform.
	DefaultBaseURL = "https://learn.zone01kisumu.ke"

	// DefaultEventID scopes XP, level and progress queries to the main
	// curriculum event.
	DefaultEventID = 75

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 16 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL string
	EventID int
	Timeout time.Duration
}

// DefaultConfig returns a Config with the platform defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		EventID: DefaultEventID,
		Timeout: DefaultTimeout,
	}
}

// Client issues sign-in and GraphQL requests.
type Client struct {
	baseURL string
	eventID int
	http    *http.Client
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests use httptest clients).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client. Zero config fields fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.EventID == 0 {
		cfg.EventID = def.EventID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		eventID: cfg.EventID,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventID returns the event the client scopes its queries to.
func (c *Client) EventID() int {
	return c.eventID
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// Query posts a GraphQL document and decodes the data object into out.
func (c *Client) Query(ctx context.Context, token, doc string, vars map[string]any, out any) error {
	payload, err := json.Marshal(request{Query: doc, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GraphQLPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &ErrNetwork{Op: "graphql query", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ErrNetwork{Op: "graphql query", Err: err}
	}
	c.logger.Debug("graphql query", "status", resp.StatusCode, "bytes", len(raw),
		"latency_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ErrAuth{Status: resp.StatusCode, Message: "session expired, please sign in again"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ErrNetwork{Op: "graphql query", Status: resp.StatusCode}
	}

	if err := validate(envelopeSchema, raw); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}

	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			if e.Extensions.Code == "invalid-jwt" {
				return &ErrAuth{Status: resp.StatusCode, Message: "session expired, please sign in again"}
			}
			msgs = append(msgs, e.Message)
		}
		return &ErrQuery{Messages: msgs}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ErrInvalidResponse{Content: env.Data, Err: err}
	}
	return nil
}
