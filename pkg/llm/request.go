package llm

// Image is an optional picture attached to a request. Bytes and URL are not
// mutually exclusive: a hosted URL is usually accompanied by the bytes it was
// uploaded from so a provider that rejects the URL can be retried inline.
type Image struct {
	// Bytes is the raw image (PNG in practice).
	Bytes []byte

	// URL is a directly downloadable HTTPS location of the same image.
	URL string
}

// Empty reports whether the image carries neither bytes nor a URL.
func (i *Image) Empty() bool {
	return i == nil || (len(i.Bytes) == 0 && i.URL == "")
}

// ChatRequest is one logical request handed to the orchestrator. It is built
// per invocation and discarded afterwards.
type ChatRequest struct {
	// SystemPrompt is the per-call addition composed onto the agent's prompt.
	SystemPrompt string

	// UserText is the user turn.
	UserText string

	// Image is optional.
	Image *Image

	// RequireJSON asks for a strict JSON object reply that is then validated
	// against EnvelopeKey and ExpectedCount.
	RequireJSON bool

	// EnvelopeKey is the top-level key holding the item array ("questions", "pages").
	EnvelopeKey string

	// ExpectedCount is the exact number of items required in strict mode.
	// Zero means no fixed count (lenient flows only).
	ExpectedCount int

	// RequireTitle rejects items with a blank title in strict mode.
	RequireTitle bool
}

// Call is the provider-facing form of a request after parameters and the image
// attachment have been resolved. Nil parameter pointers are omitted from the
// outgoing body.
type Call struct {
	Config       ProviderConfig
	Model        string
	SystemPrompt string
	UserText     string

	ImageBytes []byte
	ImageURL   string

	RequireJSON   bool
	EnvelopeKey   string
	ExpectedCount int

	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// DefaultMaxTokens is the agent default, used by providers that require
	// max_tokens when no value was resolved.
	DefaultMaxTokens int
}

// WithoutImageURL returns a copy of the call that sends the image inline only.
func (c Call) WithoutImageURL() Call {
	c.ImageURL = ""
	return c
}
