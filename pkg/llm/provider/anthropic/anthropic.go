// Package anthropic implements the adapter for Anthropic's Messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

const (
	// DefaultBaseURL is used when a provider config leaves the base URL blank.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// FallbackMaxTokens is sent when neither an override nor an agent default
	// supplies max_tokens, which this API requires.
	FallbackMaxTokens = 4096
)

// provider implements the Provider interface for Anthropic's Claude API.
type provider struct {
	client *transport.Client
}

// New
func New(client *transport.Client) *provider {
	if client == nil {
		client = transport.New()
	}
	return &provider{client: client}
}

// Name
func (p *provider) Name() string {
	return "anthropic"
}

func (p *provider) Kind() llm.ProviderKind {
	return llm.Anthropic
}

func (p *provider) Send(ctx context.Context, call llm.Call) (*llm.Reply, error) {
	if err := image.InlineOnly(llm.Anthropic, call); err != nil {
		return nil, err
	}

	content := make([]anthropicContentBlock, 0, 2)
	if len(call.ImageBytes) > 0 {
		content = append(content, anthropicContentBlock{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: image.MediaType(call.ImageBytes),
				Data:      image.Base64(call.ImageBytes),
			},
		})
	}
	content = append(content, anthropicContentBlock{Type: "text", Text: call.UserText})

	req := messagesRequest{
		Model:       call.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
		System:      strings.TrimSpace(call.SystemPrompt),
		MaxTokens:   MaxTokens(call),
		Temperature: call.Temperature,
		TopP:        call.TopP,
	}

	url := transport.JoinURL(versionedBase(call.Config), "messages")
	ex, body, err := p.client.PostJSON(ctx, llm.Anthropic, url, headers(call.Config), req)
	if err != nil {
		return nil, err
	}

	var resp messagesResponse
	if err := p.client.Decode(llm.Anthropic, ex, body, &resp); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.Reply{
		Text:     text.String(),
		Body:     string(body),
		Exchange: ex,
	}, nil
}

func (p *provider) ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error) {
	url := transport.JoinURL(versionedBase(cfg), "models")
	_, body, err := p.client.Get(ctx, llm.Anthropic, url, headers(cfg))
	if err != nil {
		return nil, err
	}

	var list modelList
	if err := p.client.Codec.Unmarshal(body, &list); err != nil {
		return []string{}, nil
	}

	models := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

// MaxTokens returns the max_tokens value sent for call. The Messages API
// rejects requests without it, so it is never omitted.
func MaxTokens(call llm.Call) int {
	if call.MaxTokens != nil && *call.MaxTokens > 0 {
		return *call.MaxTokens
	}
	if call.DefaultMaxTokens > 0 {
		return call.DefaultMaxTokens
	}
	return FallbackMaxTokens
}

// versionedBase appends /v1 unless the configured base already ends with it.
func versionedBase(cfg llm.ProviderConfig) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func headers(cfg llm.ProviderConfig) http.Header {
	h := http.Header{}
	h.Set("x-api-key", cfg.APIKey)
	h.Set("anthropic-version", APIVersion)
	return h
}
