package api

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
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjod/go_cart/storefront-client/internal/logger"
	"github.com/fjod/go_cart/storefront-client/internal/metrics"
	"github.com/fjod/go_cart/storefront-client/internal/session"
)

const maxBodySize = 10 << 20 // 10MB, payment proofs included

var tracer = otel.Tracer("github.com/fjod/go_cart/storefront-client/internal/api")

type Options struct {
	BaseURL string
	Timeout time.Duration
	Session *session.Session

	// Transport defaults to http.DefaultTransport. It is always wrapped by
	// otelhttp.
	Transport http.RoundTripper

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client talks to the storefront REST API. Every request goes through do,
// which attaches the credential and turns responses into the error
// taxonomy in errors.go.
type Client struct {
	baseURL  string
	origin   *url.URL
	http     *http.Client
	session  *session.Session
	breaker  *gobreaker.CircuitBreaker[*response]
	metrics  *metrics.Metrics
	log      *slog.Logger
	validate *validator.Validate
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	origin, err := url.Parse(baseURL)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	log := logger.OrDiscard(opts.Logger)

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrBodyTooLarge)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: baseURL,
		origin:  origin,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		session:  opts.Session,
		breaker:  breaker,
		metrics:  opts.Metrics,
		log:      log,
		validate: validator.New(),
	}, nil
}

// Session exposes the credential holder the client was built with.
func (c *Client) Session() *session.Session {
	return c.session
}

// URL resolves an API path (or passes an absolute URL through).
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	accept      string
	anonymous   bool
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	ctx, span := tracer.Start(ctx, req.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	resp, err := c.roundTrip(ctx, req)
	result := outcome(err)
	c.metrics.ObserveRequest(req.op, result, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	return resp, err
}

// sameOrigin reports whether target is served by the API host. The credential
// is never sent anywhere else.
func (c *Client) sameOrigin(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, c.origin.Scheme) && strings.EqualFold(u.Host, c.origin.Host)
}

func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	target := c.URL(req.path)
	if !req.anonymous && !c.sameOrigin(target) {
		c.log.Debug("foreign host, sending without credential", logger.Traced(ctx), slog.String("op", req.op))
		req.anonymous = true
	}

	var token string
	if !req.anonymous {
		var ok bool
		if token, ok = c.session.CurrentToken(); !ok {
			return nil, ErrUnauthenticated
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.send(httpReq, req.op)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &NetworkError{Op: req.op, Err: err}
		}
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			c.log.Warn("storefront request failed", logger.Traced(ctx),
				slog.String("op", req.op), logger.Err(err))
		}
		return nil, err
	}

	c.log.Debug("storefront request", logger.Traced(ctx),
		slog.String("op", req.op), slog.String("method", req.method),
		slog.String("path", req.path), slog.Int("status", resp.status))

	switch {
	case resp.status == http.StatusUnauthorized && !req.anonymous:
		c.session.ExpireToken(ctx, token)
		return nil, ErrAuthExpired
	case resp.status >= 400:
		return nil, &ValidationError{Status: resp.status, Message: errorMessage(resp.body)}
	}
	return resp, nil
}

// send performs the HTTP exchange. Only transport failures and 5xx count
// against the breaker.
func (c *Client) send(httpReq *http.Request, op string) (*response, error) {
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := httpReq.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize+1))
	if err != nil {
		return nil, &NetworkError{Op: op, Status: httpResp.StatusCode, Err: err}
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%s: %w", op, ErrBodyTooLarge)
	}
	if httpResp.StatusCode >= 500 {
		return nil, &NetworkError{Op: op, Status: httpResp.StatusCode, Message: errorMessage(body)}
	}
	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: body}, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func outcome(err error) string {
	var (
		vErr   *ValidationError
		netErr *NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.As(err, &vErr):
		return "rejected"
	case errors.As(err, &netErr):
		return "network"
	}
	return "error"
}

// getJSON and sendJSON decode the response body into out.

func (c *Client) getJSON(ctx context.Context, op, path string, anonymous bool, out any) error {
	resp, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, anonymous: anonymous})
	if err != nil {
		return err
	}
	return decode(op, resp.body, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	resp, err := c.do(ctx, request{op: op, method: method, path: path, body: body, contentType: contentType})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(op, resp.body, out)
}

func decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) validateInput(in any) error {
	if err := c.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}
