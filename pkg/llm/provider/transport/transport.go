// Package transport is the HTTP plumbing shared by the provider adapters:
// JSON encoding, exchange recording and status checking.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/codec"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/exchange"
)

// DefaultTimeout applies to clients built without an explicit *http.Client.
const DefaultTimeout = 120 * time.Second

// Client performs provider HTTP calls. It is safe for concurrent use.
type Client struct {
	HTTP     *http.Client
	Codec    codec.Codec
	Recorder *exchange.Recorder
	Logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithCodec overrides the JSON codec.
func WithCodec(cd codec.Codec) Option {
	return func(c *Client) { c.Codec = cd }
}

// WithRecorder overrides the exchange recorder.
func WithRecorder(r *exchange.Recorder) Option {
	return func(c *Client) { c.Recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// New creates a Client with defaults for anything not set by opts.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: DefaultTimeout}
	}
	if c.Codec == nil {
		c.Codec = codec.New()
	}
	if c.Recorder == nil {
		c.Recorder = exchange.NewRecorder()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// PostJSON encodes payload, posts it to url and returns the recorded exchange
// and the response body. Non-2xx statuses come back as *llm.StatusError.
func (c *Client) PostJSON(ctx context.Context, kind llm.ProviderKind, url string, header http.Header, payload any) (*exchange.Exchange, []byte, error) {
	body, err := c.Codec.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding %s request: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	copyHeader(req.Header, header)

	return c.do(kind, req, body)
}

// Get issues a GET against url. Non-2xx statuses come back as *llm.StatusError.
func (c *Client) Get(ctx context.Context, kind llm.ProviderKind, url string, header http.Header) (*exchange.Exchange, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s request: %w", kind, err)
	}
	copyHeader(req.Header, header)

	return c.do(kind, req, nil)
}

// Decode unmarshals a successful body, attaching the exchange on failure.
func (c *Client) Decode(kind llm.ProviderKind, ex *exchange.Exchange, body []byte, v any) error {
	if err := c.Codec.Unmarshal(body, v); err != nil {
		return &llm.RequestError{Provider: kind, Err: fmt.Errorf("decoding response: %w", err), Exchange: ex}
	}
	return nil
}

func (c *Client) do(kind llm.ProviderKind, req *http.Request, body []byte) (*exchange.Exchange, []byte, error) {
	ex, respBody, err := c.Recorder.Roundtrip(c.HTTP, req, body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ex, nil, ctxErr
		}
		c.Logger.Warn("provider request failed",
			zap.String("provider", string(kind)),
			zap.String("url", ex.URL),
			zap.Error(err),
		)
		return ex, nil, &llm.RequestError{Provider: kind, Err: err, Exchange: ex}
	}

	c.Logger.Debug("provider response",
		zap.String("provider", string(kind)),
		zap.String("method", ex.Method),
		zap.String("url", ex.URL),
		zap.Int("status", ex.StatusCode),
		zap.Duration("duration", ex.Duration),
		zap.Int("bytes", len(respBody)),
	)

	if !ex.Succeeded() {
		return ex, respBody, &llm.StatusError{
			Provider:   kind,
			StatusCode: ex.StatusCode,
			Body:       string(respBody),
			Exchange:   ex,
		}
	}

	return ex, respBody, nil
}

// JoinURL appends path to base with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
