// Package openai implements the adapter for the OpenAI chat completions API
// and the many gateways that speak the same dialect.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

// DefaultBaseURL is used when a provider config leaves the base URL blank.
const DefaultBaseURL = "https://api.openai.com/v1"

// provider implements the Provider interface for OpenAI-compatible upstreams.
type provider struct {
	client *transport.Client
}

func New(client *transport.Client) *provider {
	if client == nil {
		client = transport.New()
	}
	return &provider{client: client}
}

func (o *provider) Name() string {
	return "openai"
}

func (o *provider) Kind() llm.ProviderKind {
	return llm.OpenAICompatible
}

func (o *provider) Send(ctx context.Context, call llm.Call) (*llm.Reply, error) {
	req := chatRequest{
		Model:       call.Model,
		Messages:    buildMessages(call),
		MaxTokens:   call.MaxTokens,
		Temperature: call.Temperature,
		TopP:        call.TopP,
	}
	if call.RequireJSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	url := transport.JoinURL(baseURL(call.Config), "chat/completions")
	ex, body, err := o.client.PostJSON(ctx, llm.OpenAICompatible, url, authHeader(call.Config), req)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := o.client.Decode(llm.OpenAICompatible, ex, body, &resp); err != nil {
		return nil, err
	}

	return &llm.Reply{
		Text:     extractText(&resp),
		Body:     string(body),
		Exchange: ex,
	}, nil
}

func (o *provider) ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error) {
	url := transport.JoinURL(baseURL(cfg), "models")
	_, body, err := o.client.Get(ctx, llm.OpenAICompatible, url, authHeader(cfg))
	if err != nil {
		return nil, err
	}

	var list modelList
	if err := o.client.Codec.Unmarshal(body, &list); err != nil {
		return []string{}, nil
	}

	entries := list.Data
	if len(entries) == 0 {
		entries = list.Models
	}

	models := make([]string, 0, len(entries))
	for _, m := range entries {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id != "" {
			models = append(models, id)
		}
	}
	return models, nil
}

func buildMessages(call llm.Call) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(call.SystemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: call.SystemPrompt})
	}

	var imageRef string
	switch {
	case call.ImageURL != "":
		imageRef = call.ImageURL
	case len(call.ImageBytes) > 0:
		imageRef = image.DataURL(call.ImageBytes)
	}

	if imageRef == "" {
		messages = append(messages, chatMessage{Role: "user", Content: call.UserText})
		return messages
	}

	messages = append(messages, chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: call.UserText},
			{Type: "image_url", ImageURL: &imageURL{URL: imageRef}},
		},
	})
	return messages
}

// extractText reads choices[0].message.content, falling back to the text of
// structured content parts when the plain string is empty.
func extractText(resp *chatResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}

	switch c := resp.Choices[0].Message.Content.(type) {
	case string:
		return c
	case []any:
		var b strings.Builder
		for _, item := range c {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				b.WriteString(text)
			}
		}
		return b.String()
	}
	return ""
}

func baseURL(cfg llm.ProviderConfig) string {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return DefaultBaseURL
	}
	return strings.TrimSpace(cfg.BaseURL)
}

func authHeader(cfg llm.ProviderConfig) http.Header {
	h := http.Header{}
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return h
}
