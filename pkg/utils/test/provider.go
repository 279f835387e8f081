package testutils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/exchange"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
)

// ErrUnscripted is returned by MockProvider when Send is called more times
// than it has responders for.
var ErrUnscripted = errors.New("unscripted provider call")

// Responder answers one MockProvider.Send call.
type Responder func(ctx context.Context, call llm.Call) (*llm.Reply, error)

// MockProvider is a test provider that records calls and answers them with
// its responders in order.
type MockProvider struct {
	kind llm.ProviderKind

	mu         sync.Mutex
	calls      []llm.Call
	responders []Responder

	// Models is returned by ListModels.
	Models []string

	// FailModels causes ListModels to return it.
	FailModels error
}

// NewMockProvider creates a new mock provider answering as kind.
func NewMockProvider(kind llm.ProviderKind, responders ...Responder) *MockProvider {
	return &MockProvider{kind: kind, responders: responders}
}

func (m *MockProvider) Name() string           { return "mock" }
func (m *MockProvider) Kind() llm.ProviderKind { return m.kind }

func (m *MockProvider) Send(ctx context.Context, call llm.Call) (*llm.Reply, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if n >= len(m.responders) {
		return nil, fmt.Errorf("%w: #%d", ErrUnscripted, n+1)
	}
	return m.responders[n](ctx, call)
}

func (m *MockProvider) ListModels(context.Context, llm.ProviderConfig) ([]string, error) {
	if m.FailModels != nil {
		return nil, m.FailModels
	}
	return m.Models, nil
}

// Calls returns a copy of the calls received so far.
func (m *MockProvider) Calls() []llm.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Call(nil), m.calls...)
}

// Providers maps kinds to providers and satisfies the orchestrator's lookup.
type Providers map[llm.ProviderKind]provider.Provider

func (p Providers) For(kind llm.ProviderKind) (provider.Provider, error) {
	found, ok := p[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, kind)
	}
	return found, nil
}

// NewExchange builds a recorded exchange for tag with the given reply.
func NewExchange(tag, body string, status int) *exchange.Exchange {
	return &exchange.Exchange{
		Method:       "POST",
		URL:          "https://upstream.test/" + tag,
		Protocol:     "HTTP/1.1",
		StatusCode:   status,
		StatusText:   "status",
		ResponseBody: body,
	}
}

// Reply answers with text and an exchange tagged tag.
func Reply(tag, text string) Responder {
	return func(context.Context, llm.Call) (*llm.Reply, error) {
		return &llm.Reply{Text: text, Body: text, Exchange: NewExchange(tag, text, 200)}, nil
	}
}

// Fail answers with an upstream status error tagged tag.
func Fail(tag string, status int, body string) Responder {
	return func(context.Context, llm.Call) (*llm.Reply, error) {
		return nil, &llm.StatusError{
			Provider:   llm.OpenAICompatible,
			StatusCode: status,
			Body:       body,
			Exchange:   NewExchange(tag, body, status),
		}
	}
}
