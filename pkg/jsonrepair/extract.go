// Package jsonrepair recovers JSON from free-form model output: it finds
// balanced JSON spans in surrounding prose and fixes the escaping mistakes
// models commonly make.
package jsonrepair

import (
	"strings"
)

// knownKeys are envelope and item keys whose escaped form signals that the
// model double-escaped its structural quotes.
var knownKeys = []string{"questions", "pages", "title", "text"}

// StripCodeFence removes one surrounding ``` fenced block, with or without a
// language tag. Text that is not fenced is returned trimmed.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...).
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Extract returns every balanced top-level span opened by open ('{' or '[')
// in order of first appearance, trimmed and without duplicates. Brackets
// inside JSON string literals are ignored.
//
// Scanning resumes after each span's closer, so objects nested in a span are
// never returned on their own, even when the outer span is not valid JSON.
func Extract(text string, open byte) []string {
	closer := closing(open)
	if closer == 0 {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		end := matchClose(text, i, open, closer)
		if end < 0 {
			continue
		}
		span := strings.TrimSpace(text[i : end+1])
		if _, dup := seen[span]; !dup {
			seen[span] = struct{}{}
			out = append(out, span)
		}
		i = end
	}
	return out
}

// LooksDoubleEscaped reports whether text carries JSON whose structural
// quotes were escaped, e.g. {\"questions\":[...]}. Extra keys may be given
// in addition to the built-in envelope and item keys.
func LooksDoubleEscaped(text string, keys ...string) bool {
	if strings.Contains(text, `{\"`) || strings.Contains(text, `[\"`) {
		return true
	}
	for _, k := range append(keys, knownKeys...) {
		if k != "" && strings.Contains(text, `\"`+k+`\"`) {
			return true
		}
	}
	return false
}

// Unescape removes one level of escaping from quotes, backslashes and slashes.
// Other escape sequences are kept so they stay valid one level down.
func Unescape(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			switch text[i+1] {
			case '"', '\\', '/':
				b.WriteByte(text[i+1])
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Candidates runs extraction on the fence-stripped text, then, when the text
// looks double-escaped, again on its unescaped form. The direct pool comes
// first; duplicates across pools are dropped.
func Candidates(text string, open byte, keys ...string) []string {
	stripped := StripCodeFence(text)
	out := Extract(stripped, open)
	if !LooksDoubleEscaped(stripped, keys...) {
		return out
	}

	seen := make(map[string]struct{}, len(out))
	for _, c := range out {
		seen[c] = struct{}{}
	}
	for _, c := range Extract(Unescape(stripped), open) {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// matchClose returns the index of the bracket closing text[start], or -1.
func matchClose(text string, start int, open, closer byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func closing(open byte) byte {
	switch open {
	case '{':
		return '}'
	case '[':
		return ']'
	}
	return 0
}
