package image

import (
	"errors"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// unsupportedImageURLSignatures are lower-cased fragments of error bodies
// returned by upstreams that cannot fetch a hosted image. This is a
// best-effort heuristic; wording differs across gateways and changes over time.
var unsupportedImageURLSignatures = []string{
	"unsupported image url",
	"image url is not supported",
	"image_url is not supported",
	"invalid image url",
	"failed to download image",
	"unable to download image",
	"could not download image",
	"failed to fetch image",
}

// MatchesUnsupportedImageURL reports whether body looks like an image URL rejection.
func MatchesUnsupportedImageURL(body string) bool {
	lower := strings.ToLower(body)
	for _, sig := range unsupportedImageURLSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// IsUnsupportedImageURL reports whether err is a provider status error whose
// body matches an image URL rejection.
func IsUnsupportedImageURL(err error) bool {
	var se *llm.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return MatchesUnsupportedImageURL(se.Body)
}
