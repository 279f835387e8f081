// Package gemini implements the adapter for Google's Gemini generateContent API.
package gemini

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

// DefaultBaseURL is used when a provider config leaves the base URL blank.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const modelPrefix = "models/"

// provider implements the Provider interface for Gemini.
type provider struct {
	client *transport.Client
}

func New(client *transport.Client) *provider {
	if client == nil {
		client = transport.New()
	}
	return &provider{client: client}
}

func (g *provider) Name() string {
	return "gemini"
}

func (g *provider) Kind() llm.ProviderKind {
	return llm.Google
}

func (g *provider) Send(ctx context.Context, call llm.Call) (*llm.Reply, error) {
	if err := image.InlineOnly(llm.Google, call); err != nil {
		return nil, err
	}

	parts := []geminiPart{{Text: call.UserText}}
	if len(call.ImageBytes) > 0 {
		parts = append(parts, geminiPart{InlineData: &inlineData{
			MimeType: image.MediaType(call.ImageBytes),
			Data:     image.Base64(call.ImageBytes),
		}})
	}

	req := generateRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: buildGenerationConfig(call),
	}
	if system := strings.TrimSpace(call.SystemPrompt); system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	endpoint := transport.JoinURL(versionedBase(call.Config), modelPrefix+NormalizeModel(call.Model)+":generateContent")
	endpoint += "?key=" + url.QueryEscape(call.Config.APIKey)

	ex, body, err := g.client.PostJSON(ctx, llm.Google, endpoint, nil, req)
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := g.client.Decode(llm.Google, ex, body, &resp); err != nil {
		return nil, err
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
	}

	return &llm.Reply{
		Text:     text.String(),
		Body:     string(body),
		Exchange: ex,
	}, nil
}

func (g *provider) ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error) {
	endpoint := transport.JoinURL(versionedBase(cfg), "models") + "?key=" + url.QueryEscape(cfg.APIKey)
	_, body, err := g.client.Get(ctx, llm.Google, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var list modelList
	if err := g.client.Codec.Unmarshal(body, &list); err != nil {
		return []string{}, nil
	}

	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		methods := m.SupportedGenerationMethods
		if len(methods) > 0 && !slices.Contains(methods, "generateContent") {
			continue
		}
		if name := NormalizeModel(m.Name); name != "" {
			models = append(models, name)
		}
	}
	return models, nil
}

// NormalizeModel strips the "models/" resource prefix so ids compare equal
// whether or not the user typed it.
func NormalizeModel(model string) string {
	return strings.TrimPrefix(strings.TrimSpace(model), modelPrefix)
}

func buildGenerationConfig(call llm.Call) *generationConfig {
	gc := &generationConfig{
		Temperature:     call.Temperature,
		TopP:            call.TopP,
		MaxOutputTokens: call.MaxTokens,
	}
	if call.RequireJSON {
		gc.ResponseMimeType = "application/json"
		if call.EnvelopeKey != "" {
			gc.ResponseSchema = envelopeSchema(call.EnvelopeKey)
		}
	}
	if gc.Temperature == nil && gc.TopP == nil && gc.MaxOutputTokens == nil && gc.ResponseMimeType == "" {
		return nil
	}
	return gc
}

func envelopeSchema(key string) *schema {
	item := &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"title": {Type: "STRING"},
			"text":  {Type: "STRING"},
		},
		Required: []string{"text"},
	}
	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			key: {Type: "ARRAY", Items: item},
		},
		Required: []string{key},
	}
}

// versionedBase appends /v1beta unless the base already names an API version.
func versionedBase(cfg llm.ProviderConfig) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1beta") || strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1beta"
}
