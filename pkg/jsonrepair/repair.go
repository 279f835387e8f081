package jsonrepair

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/scribe/pkg/codec"
)

// smartQuotes are replaced by an ASCII double quote.
var smartQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
)

// NormalizeQuotes replaces typographic double quotes with '"'.
func NormalizeQuotes(s string) string {
	return smartQuotes.Replace(s)
}

// EscapeInvalidBackslashes makes every backslash inside a string literal
// begin a valid escape. Valid escapes are \" \\ \/ \b \n \r \t and \uXXXX;
// any other backslash is doubled so LaTeX such as \frac or \lim survives as
// literal text. \f is treated as invalid for that reason. Raw control
// characters inside strings are escaped as well. Text outside string
// literals is copied unchanged.
//
// Valid JSON parses to the same value after this pass, with one known
// exception: a \f form-feed escape comes back as the two characters `\f`.
func EscapeInvalidBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/16)

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch {
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\\':
			n := validEscapeLen(s, i)
			if n == 0 {
				b.WriteString(`\\`)
				continue
			}
			b.WriteString(s[i : i+n])
			i += n - 1
		case c < 0x20:
			b.WriteString(controlEscape(c))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// validEscapeLen returns the length of the valid escape starting at s[i], or 0.
func validEscapeLen(s string, i int) int {
	if i+1 >= len(s) {
		return 0
	}
	switch s[i+1] {
	case '"', '\\', '/', 'b', 'n', 'r', 't':
		return 2
	case 'u':
		if i+6 <= len(s) && isHex4(s[i+2:i+6]) {
			return 6
		}
	}
	return 0
}

func isHex4(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return len(s) == 4
}

func controlEscape(c byte) string {
	switch c {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	return fmt.Sprintf(`\u%04x`, c)
}

// Repairer applies the repair passes and checks the outcome with a codec.
type Repairer struct {
	codec codec.Codec
}

// NewRepairer creates a Repairer. A nil codec selects codec.New().
func NewRepairer(c codec.Codec) *Repairer {
	if c == nil {
		c = codec.New()
	}
	return &Repairer{codec: c}
}

// Repair returns the escaped form of s. Quote normalization is only applied
// when escaping alone does not yield valid JSON, so typographic quotes inside
// valid strings are preserved.
func (r *Repairer) Repair(s string) string {
	escaped := EscapeInvalidBackslashes(s)
	if r.codec.Valid([]byte(escaped)) {
		return escaped
	}
	normalized := EscapeInvalidBackslashes(NormalizeQuotes(s))
	if r.codec.Valid([]byte(normalized)) {
		return normalized
	}
	return escaped
}

// Variants returns the distinct repaired forms of s worth trying to parse,
// escape-only first.
func (r *Repairer) Variants(s string) []string {
	escaped := EscapeInvalidBackslashes(s)
	normalized := EscapeInvalidBackslashes(NormalizeQuotes(s))
	if normalized == escaped {
		return []string{escaped}
	}
	return []string{escaped, normalized}
}
