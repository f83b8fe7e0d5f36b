// Package gateway is the HTTP client for the bank REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bankdash/bankdash/internal/bank"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Operation names, used in errors and logs.
const (
	OpListAll       = "list all"
	OpFindByName    = "find by name"
	OpFindByID      = "find by id"
	OpCreate        = "create"
	OpReplaceByName = "replace by name"
	OpReplaceByID   = "replace by id"
	OpPatchByName   = "patch by name"
	OpPatchByID     = "patch by id"
	OpDeleteByName  = "delete by name"
	OpDeleteByID    = "delete by id"
)

// Client talks to the bank API. Every call is a single round trip; nothing is
// retried or cached.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	observer   Observer
}

// Observer is told about every completed call.
type Observer interface {
	ObserveGatewayCall(op string, elapsed time.Duration, err error)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client rooted at baseURL, e.g. http://127.0.0.1:8080/api/v1/bank.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resource root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAll fetches every bank.
func (c *Client) ListAll(ctx context.Context) ([]bank.Bank, error) {
	env, err := c.do(ctx, OpListAll, http.MethodGet, "/find/all", nil, nil)
	if err != nil {
		return nil, err
	}
	var banks []bank.Bank
	if err := decodePayload(OpListAll, env, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// FindByName fetches the first bank whose name matches exactly.
func (c *Client) FindByName(ctx context.Context, name string) (bank.Bank, error) {
	return c.findOne(ctx, OpFindByName, "/find/name", nameQuery(name))
}

// FindByID fetches a bank by id.
func (c *Client) FindByID(ctx context.Context, id int64) (bank.Bank, error) {
	return c.findOne(ctx, OpFindByID, "/find/id", idQuery(id))
}

// Create submits a new bank. Only the six mutable fields are sent.
func (c *Client) Create(ctx context.Context, b bank.Bank) (bank.Bank, error) {
	env, err := c.do(ctx, OpCreate, http.MethodPost, "/add", nil, b.Mutable())
	if err != nil {
		return bank.Bank{}, err
	}
	var created bank.Bank
	if err := decodePayload(OpCreate, env, &created); err != nil {
		return bank.Bank{}, err
	}
	return created, nil
}

// ReplaceByName overwrites every mutable field of the bank named name.
func (c *Client) ReplaceByName(ctx context.Context, name string, b bank.Bank) error {
	return c.mutate(ctx, OpReplaceByName, http.MethodPut, "/find/update/name", nameQuery(name), b.Mutable())
}

// ReplaceByID overwrites every mutable field of the bank with id. The API
// exposes this operation under PATCH.
func (c *Client) ReplaceByID(ctx context.Context, id int64, b bank.Bank) error {
	return c.mutate(ctx, OpReplaceByID, http.MethodPatch, "/find/update/id", idQuery(id), b.Mutable())
}

// PatchByName applies the provided fields to the bank named name.
func (c *Client) PatchByName(ctx context.Context, name string, p bank.Patch) error {
	return c.mutate(ctx, OpPatchByName, http.MethodPatch, "/find/patch/name", nameQuery(name), p)
}

// PatchByID applies the provided fields to the bank with id.
func (c *Client) PatchByID(ctx context.Context, id int64, p bank.Patch) error {
	return c.mutate(ctx, OpPatchByID, http.MethodPatch, "/find/patch/id", idQuery(id), p)
}

// DeleteByName removes the bank named name.
func (c *Client) DeleteByName(ctx context.Context, name string) error {
	return c.mutate(ctx, OpDeleteByName, http.MethodDelete, "/find/delete/name", nameQuery(name), nil)
}

// DeleteByID removes the bank with id.
func (c *Client) DeleteByID(ctx context.Context, id int64) error {
	return c.mutate(ctx, OpDeleteByID, http.MethodDelete, "/find/delete/id", idQuery(id), nil)
}

func (c *Client) findOne(ctx context.Context, op, path string, query url.Values) (bank.Bank, error) {
	env, err := c.do(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return bank.Bank{}, err
	}
	var b bank.Bank
	if err := decodePayload(op, env, &b); err != nil {
		return bank.Bank{}, err
	}
	return b, nil
}

// mutate runs an operation whose payload is a boolean acknowledgement.
func (c *Client) mutate(ctx context.Context, op, method, path string, query url.Values, body any) error {
	env, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if !env.HasPayload() {
		return nil
	}
	var ack bool
	if err := json.Unmarshal(env.Payload, &ack); err == nil && !ack {
		return applicationError(op, env)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (Envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, op, method, path, query, body)
	if c.observer != nil {
		c.observer.ObserveGatewayCall(op, time.Since(start), err)
	}
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, body any) (Envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, &TransportError{Op: op, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Envelope{}, &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "bank api request failed",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("url", target),
			slog.Any("error", err),
		)
		return Envelope{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Envelope{}, &TransportError{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}

	env, ok := decodeEnvelope(resp.StatusCode, raw)
	c.logger.DebugContext(ctx, "bank api request",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.String("envelope_status", env.Status),
		slog.Duration("elapsed", time.Since(start)),
	)
	if !ok {
		return env, &TransportError{Op: op, Status: resp.Status, Err: fmt.Errorf("unexpected response: %s", resp.Status)}
	}
	if !env.OK() {
		return env, applicationError(op, env)
	}
	return env, nil
}

func decodePayload(op string, env Envelope, target any) error {
	if !env.HasPayload() {
		appErr := applicationError(op, env)
		appErr.Message = "The server response did not include a payload."
		return appErr
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return nil
}

func nameQuery(name string) url.Values {
	return url.Values{"bankName": []string{name}}
}

func idQuery(id int64) url.Values {
	return url.Values{"bankId": []string{strconv.FormatInt(id, 10)}}
}

// IsNotFound reports whether err is an application error for a missing bank.
func IsNotFound(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr) && (appErr.HTTPStatus == http.StatusNotFound || appErr.Status == "NOT_FOUND")
}
