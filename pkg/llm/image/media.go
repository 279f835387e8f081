package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// ErrInvalidImage is returned for payloads that cannot be attached.
var ErrInvalidImage = errors.New("invalid image")

// DefaultMediaType is assumed when the bytes are not a recognizable image.
const DefaultMediaType = "image/png"

// MediaType sniffs the image media type of b.
func MediaType(b []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(b).String(), ";")
	if !strings.HasPrefix(mt, "image/") {
		return DefaultMediaType
	}
	return mt
}

// Base64 encodes b with standard padding.
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DataURL renders b as a data: URL suitable for OpenAI-style image_url parts.
func DataURL(b []byte) string {
	return "data:" + MediaType(b) + ";base64," + Base64(b)
}

// Decode builds an llm.Image from wire fields. data may be raw base64 or a
// data: URL; url must be http(s). Both empty yields nil.
func Decode(data, url string) (*llm.Image, error) {
	img := &llm.Image{URL: strings.TrimSpace(url)}

	if data = strings.TrimSpace(data); data != "" {
		if strings.HasPrefix(data, "data:") {
			_, after, ok := strings.Cut(data, ",")
			if !ok {
				return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
			}
			data = after
		}
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		img.Bytes = raw
	}
	if img.URL != "" && !strings.HasPrefix(img.URL, "https://") && !strings.HasPrefix(img.URL, "http://") {
		return nil, fmt.Errorf("%w: url must be http(s)", ErrInvalidImage)
	}

	if img.Empty() {
		return nil, nil
	}
	return img, nil
}

// InlineOnly rejects a call whose image is a bare URL. Anthropic and Gemini
// only receive image bytes, so a URL without bytes would be silently dropped.
func InlineOnly(kind llm.ProviderKind, call llm.Call) error {
	if call.ImageURL != "" && len(call.ImageBytes) == 0 {
		return bytesRequired(kind)
	}
	return nil
}

func bytesRequired(kind llm.ProviderKind) error {
	return fmt.Errorf("%w: %s providers need the image bytes, not a URL", ErrInvalidImage, kind)
}
