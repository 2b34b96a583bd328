package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 30 * time.Second
	tracerName     = "github.com/joelkehle/xperience-reports/internal/backend"
)

var (
	ErrBackendUnavailable       = errors.New("backend unavailable")
	ErrBackendTimeout           = errors.New("backend timeout")
	ErrBackendMalformedResponse = errors.New("backend malformed response")
)

// Caller sends one prompt pair to a model and returns its raw text reply.
type Caller interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type failureClass string

const (
	failureTimeout   failureClass = "timeout"
	failureCanceled  failureClass = "canceled"
	failureRateLimit failureClass = "rate_limit"
	failureServer    failureClass = "server"
	failureClient    failureClass = "client"
)

// Client wraps a Caller with a bounded timeout and maps every failure onto one
// of the three backend errors. Availability is fixed at construction.
type Client struct {
	caller   Caller
	provider string
	timeout  time.Duration
	tracer   trace.Tracer
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// NewClient returns a client for caller. A nil caller (no credential
// configured) makes the client permanently unavailable.
func NewClient(provider string, caller Caller, opts ...Option) *Client {
	c := &Client{
		caller:   caller,
		provider: provider,
		timeout:  DefaultTimeout,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Available() bool { return c != nil && c.caller != nil }

func (c *Client) Provider() string { return c.provider }

// Invoke calls the model once. Unavailability is never retried; callers are
// expected to fall back on any error.
func (c *Client) Invoke(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error) {
	if !c.Available() {
		return nil, ErrBackendUnavailable
	}
	ctx, span := c.tracer.Start(ctx, "backend.invoke", trace.WithAttributes(
		attribute.String("backend.provider", c.provider),
	))
	defer span.End()

	out, err := c.invoke(ctx, systemPrompt, userPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("backend.outcome", outcome(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("backend.outcome", "ok"))
	return out, nil
}

type callResult struct {
	text string
	err  error
}

func (c *Client) invoke(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The caller runs in its own goroutine so a reply that ignores the
	// context still cannot hold the request past the timeout.
	done := make(chan callResult, 1)
	go func() {
		text, err := c.caller.GenerateJSON(callCtx, systemPrompt, userPrompt)
		done <- callResult{text: text, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = callResult{err: callCtx.Err()}
	}
	if res.err != nil {
		return nil, classifyError(res.err)
	}
	return parseObject(res.text)
}

func parseObject(raw string) (map[string]any, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrBackendMalformedResponse)
	}
	var v any
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendMalformedResponse, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrBackendMalformedResponse, v)
	}
	return obj, nil
}

func classifyError(err error) error {
	class := classifyTransportError(err)
	if class == failureTimeout {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, class, err)
}

var statusPattern = regexp.MustCompile(`(?i)(?:status(?: code)?[:= ]\s*|\b)([45]\d\d)\b`)

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return failureCanceled
	}
	msg := strings.ToLower(err.Error())
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		switch {
		case m[1] == "429":
			return failureRateLimit
		case m[1][0] == '5':
			return failureServer
		default:
			return failureClient
		}
	}
	if strings.Contains(msg, "rate limit") {
		return failureRateLimit
	}
	return failureServer
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrBackendTimeout):
		return "timeout"
	case errors.Is(err, ErrBackendMalformedResponse):
		return "malformed"
	default:
		return "unavailable"
	}
}
