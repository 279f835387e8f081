package api

import "github.com/papercomputeco/scribe/pkg/llm"

// ImagePayload carries an optional image. Base64 may be raw base64 or a
// data: URL. URL must be directly downloadable by the upstream and is only
// accepted for OpenAI-compatible providers.
type ImagePayload struct {
	Base64 string `json:"base64,omitempty"`
	URL    string `json:"url,omitempty"`
}

// QuestionsRequest is the body of POST /v1/questions.
type QuestionsRequest struct {
	Agent        string        `json:"agent,omitempty"`
	Count        int           `json:"count"`
	Topic        string        `json:"topic,omitempty"`
	Instructions string        `json:"instructions,omitempty"`
	Image        *ImagePayload `json:"image,omitempty"`
}

// PagesRequest is the body of POST /v1/pages.
type PagesRequest struct {
	Agent        string        `json:"agent,omitempty"`
	Count        int           `json:"count"`
	Text         string        `json:"text,omitempty"`
	Instructions string        `json:"instructions,omitempty"`
	Image        *ImagePayload `json:"image,omitempty"`
}

// ExplainRequest is the body of POST /v1/explain.
type ExplainRequest struct {
	Agent        string        `json:"agent,omitempty"`
	Question     string        `json:"question,omitempty"`
	Instructions string        `json:"instructions,omitempty"`
	Image        *ImagePayload `json:"image,omitempty"`
}

// ProbeRequest is the body of POST /v1/probe.
type ProbeRequest struct {
	Agent string        `json:"agent,omitempty"`
	Text  string        `json:"text"`
	Image *ImagePayload `json:"image,omitempty"`
}

// ProviderSummary describes a configured provider without its credentials.
type ProviderSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name,omitempty"`
	Kind      llm.ProviderKind `json:"kind"`
	BaseURL   string           `json:"base_url"`
	HasAPIKey bool             `json:"has_api_key"`
}

// AgentSummary describes a configured agent.
type AgentSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ModelsResponse is the body of GET /v1/providers/:id/models.
type ModelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}
