// Package envelope validates model output against a JSON envelope such as
// {"questions":[{"title":"...","text":"..."}]}.
package envelope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/scribe/pkg/codec"
	"github.com/papercomputeco/scribe/pkg/jsonrepair"
	"github.com/papercomputeco/scribe/pkg/llm"
)

// ErrNoCandidates is returned when no candidate satisfies the expectation.
var ErrNoCandidates = errors.New("no valid JSON envelope found")

// Expectation describes the envelope a caller requires.
type Expectation struct {
	// Key is the top-level key holding the item array.
	Key string

	// Count is the exact number of items required. Zero means any count
	// (lenient only).
	Count int

	// RequireTitle rejects items with a blank title.
	RequireTitle bool
}

// Describe renders the expected shape for prompts and error messages.
func (e Expectation) Describe() string {
	item := `{"text": "<non-empty>"}`
	if e.RequireTitle {
		item = `{"title": "<non-empty>", "text": "<non-empty>"}`
	}
	count := "items"
	if e.Count > 0 {
		count = fmt.Sprintf("exactly %d items", e.Count)
	}
	return fmt.Sprintf(`{"%s": [%s, ...]} with %s`, e.Key, item, count)
}

// Result is a validated envelope.
type Result struct {
	Items []llm.GeneratedItem

	// Text is the canonical envelope JSON in strict mode and the joined item
	// text in lenient mode.
	Text string
}

// Validator runs extraction, repair and validation. It holds no mutable state
// and is safe for concurrent use.
type Validator struct {
	codec    codec.Codec
	repairer *jsonrepair.Repairer
}

// NewValidator creates a Validator. A nil codec selects codec.New().
func NewValidator(c codec.Codec) *Validator {
	if c == nil {
		c = codec.New()
	}
	return &Validator{codec: c, repairer: jsonrepair.NewRepairer(c)}
}

// Strict returns the items of the first candidate that matches exp exactly.
// Object candidates are tried before bare arrays.
func (v *Validator) Strict(text string, exp Expectation) (*Result, error) {
	var lastReason error

	for _, cand := range jsonrepair.Candidates(text, '{', exp.Key) {
		for _, variant := range v.repairer.Variants(cand) {
			items, err := v.decodeObject(variant, exp.Key)
			if err != nil {
				lastReason = err
				continue
			}
			if err := Check(items, exp); err != nil {
				lastReason = err
				continue
			}
			return v.strictResult(items, exp)
		}
	}

	for _, cand := range jsonrepair.Candidates(text, '[', exp.Key) {
		for _, variant := range v.repairer.Variants(cand) {
			items, err := v.decodeArray(variant)
			if err != nil {
				lastReason = err
				continue
			}
			if err := Check(items, exp); err != nil {
				lastReason = err
				continue
			}
			return v.strictResult(items, exp)
		}
	}

	if lastReason == nil {
		return nil, fmt.Errorf("%w: expected %s, found no JSON in the response", ErrNoCandidates, exp.Describe())
	}
	return nil, fmt.Errorf("%w: expected %s, last candidate: %v", ErrNoCandidates, exp.Describe(), lastReason)
}

// Check validates decoded items against exp.
func Check(items []llm.GeneratedItem, exp Expectation) error {
	if exp.Count > 0 && len(items) != exp.Count {
		return fmt.Errorf("got %d items, want %d", len(items), exp.Count)
	}
	for i, item := range items {
		if item.Blank() {
			return fmt.Errorf("item %d has blank text", i+1)
		}
		if exp.RequireTitle && strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("item %d has blank title", i+1)
		}
	}
	return nil
}

func (v *Validator) strictResult(items []llm.GeneratedItem, exp Expectation) (*Result, error) {
	canonical, err := v.codec.Marshal(map[string][]llm.GeneratedItem{exp.Key: items})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return &Result{Items: items, Text: string(canonical)}, nil
}

func (v *Validator) decodeObject(s, key string) ([]llm.GeneratedItem, error) {
	var parsed any
	if err := v.codec.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, errors.New("not a JSON object")
	}
	raw, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing key %q", key)
	}
	return decodeItems(raw)
}

func (v *Validator) decodeArray(s string) ([]llm.GeneratedItem, error) {
	var parsed any
	if err := v.codec.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return decodeItems(parsed)
}

// decodeItems converts a decoded JSON array into items. Elements may be
// objects with string title/text/image fields, or bare strings taken as text.
func decodeItems(raw any) ([]llm.GeneratedItem, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, errors.New("envelope value is not an array")
	}

	items := make([]llm.GeneratedItem, 0, len(arr))
	for i, el := range arr {
		switch e := el.(type) {
		case string:
			items = append(items, llm.GeneratedItem{Text: e})
		case map[string]any:
			var item llm.GeneratedItem
			var err error
			if item.Title, err = stringField(e, "title"); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			if item.Text, err = stringField(e, "text"); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			if item.Image, err = stringField(e, "image"); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			items = append(items, item)
		default:
			return nil, fmt.Errorf("item %d is neither an object nor a string", i+1)
		}
	}
	return items, nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s, nil
}
