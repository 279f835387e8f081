package llm

import (
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm/exchange"
)

// GeneratedItem is one entry of a JSON envelope array.
type GeneratedItem struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`

	// Image is an optional image reference, either a URL or base64 data.
	Image string `json:"image,omitempty"`
}

// Blank reports whether the item has no usable text.
func (g GeneratedItem) Blank() bool {
	return strings.TrimSpace(g.Text) == ""
}

// ChatResult is produced exactly once per successful orchestration call and is
// never mutated afterwards.
type ChatResult struct {
	// Text is the payload the application uses: the canonical envelope JSON in
	// strict mode, the joined item text in lenient mode, the raw reply otherwise.
	Text string `json:"text"`

	// Items holds the decoded envelope items when JSON was requested.
	Items []GeneratedItem `json:"items,omitempty"`

	// RawResponse is the full upstream body, or both exchanges joined when a
	// repair round-trip was needed.
	RawResponse string `json:"raw_response"`

	// Exchange is the sanitized debug snapshot of every HTTP call made.
	Exchange string `json:"exchange"`

	// Repaired is set when the result came from the repair round-trip.
	Repaired bool `json:"repaired,omitempty"`
}

// Reply is what a provider adapter returns for one successful HTTP call.
type Reply struct {
	// Text is the assistant text extracted from the provider's response shape.
	Text string

	// Body is the raw upstream response body.
	Body string

	Exchange *exchange.Exchange
}

// ErrorResponse is the JSON body returned by the API on failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Debug string `json:"debug,omitempty"`
}
