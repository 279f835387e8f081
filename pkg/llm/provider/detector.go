// Package provider
package provider

import (
	"net/url"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// hostRule maps a host suffix onto the wire format it speaks.
type hostRule struct {
	suffix string
	kind   llm.ProviderKind
}

// Detector infers a provider kind from a base URL. It is used when a provider
// config omits its kind.
type Detector struct {
	rules []hostRule
}

// NewDetector creates a new Detector with the default host rules.
// Anything that matches no rule is assumed to be OpenAI-compatible.
func NewDetector() *Detector {
	return &Detector{
		rules: []hostRule{
			{suffix: "anthropic.com", kind: llm.Anthropic},
			{suffix: "generativelanguage.googleapis.com", kind: llm.Google},
		},
	}
}

// Detect returns the provider kind for baseURL.
func (d *Detector) Detect(baseURL string) llm.ProviderKind {
	host := hostOf(baseURL)
	if host == "" {
		return llm.OpenAICompatible
	}
	for _, rule := range d.rules {
		if host == rule.suffix || strings.HasSuffix(host, "."+rule.suffix) {
			return rule.kind
		}
	}
	return llm.OpenAICompatible
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
