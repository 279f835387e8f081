package envelope

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/scribe/pkg/jsonrepair"
	"github.com/papercomputeco/scribe/pkg/llm"
)

const (
	exactCountBonus    = 10000
	countMismatchCost  = 1000
	placeholderPenalty = 5000

	// EmptyResponseText is the single item returned for a blank reply.
	EmptyResponseText = "(empty response)"
)

// placeholderPattern matches items whose entire text is an ellipsis, which is
// what models emit when they echo the prompt's example envelope.
var placeholderPattern = regexp.MustCompile(`^[\s"'\[\](){}<>]*(?:\.{3,}|…+|(?:\.\s+){2,}\.)[\s"'\[\](){}<>]*$`)

// IsPlaceholder reports whether text is a bare ellipsis variant.
func IsPlaceholder(text string) bool {
	return placeholderPattern.MatchString(text)
}

// Score ranks a decoded candidate. Longer answers score higher, an exact item
// count earns a large bonus when target > 0, each item of mismatch costs, and
// placeholder items are heavily penalized.
func Score(items []llm.GeneratedItem, target int) int {
	score := 0
	for _, item := range items {
		score += utf8.RuneCountInString(strings.TrimSpace(item.Text))
		if IsPlaceholder(item.Text) {
			score -= placeholderPenalty
		}
	}

	if target > 0 {
		diff := len(items) - target
		if diff == 0 {
			score += exactCountBonus
		} else {
			if diff < 0 {
				diff = -diff
			}
			score -= countMismatchCost * diff
		}
	}
	return score
}

// Lenient returns the best scoring candidate, or a single item built from the
// cleaned reply when nothing usable was decoded. It never fails.
func (v *Validator) Lenient(text string, exp Expectation) *Result {
	var (
		best      []llm.GeneratedItem
		bestScore int
		found     bool
	)

	consider := func(items []llm.GeneratedItem) {
		items = dropBlank(items)
		if substantiveLength(items) < 1 {
			return
		}
		s := Score(items, exp.Count)
		if !found || s > bestScore {
			best, bestScore, found = items, s, true
		}
	}

	for _, cand := range jsonrepair.Candidates(text, '{', exp.Key) {
		for _, variant := range v.repairer.Variants(cand) {
			if items, err := v.decodeObject(variant, exp.Key); err == nil {
				consider(items)
				break
			}
		}
	}
	for _, cand := range jsonrepair.Candidates(text, '[', exp.Key) {
		for _, variant := range v.repairer.Variants(cand) {
			if items, err := v.decodeArray(variant); err == nil {
				consider(items)
				break
			}
		}
	}

	if !found {
		cleaned := jsonrepair.StripCodeFence(text)
		if cleaned == "" {
			cleaned = EmptyResponseText
		}
		best = []llm.GeneratedItem{{Text: cleaned}}
	}

	return &Result{Items: best, Text: joinText(best)}
}

func dropBlank(items []llm.GeneratedItem) []llm.GeneratedItem {
	out := make([]llm.GeneratedItem, 0, len(items))
	for _, item := range items {
		if !item.Blank() {
			out = append(out, item)
		}
	}
	return out
}

// substantiveLength counts text runes outside placeholder items.
func substantiveLength(items []llm.GeneratedItem) int {
	n := 0
	for _, item := range items {
		if !IsPlaceholder(item.Text) {
			n += utf8.RuneCountInString(strings.TrimSpace(item.Text))
		}
	}
	return n
}

func joinText(items []llm.GeneratedItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if title := strings.TrimSpace(item.Title); title != "" {
			text = title + "\n" + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
