// Package image decides how an image reaches a provider: inline as base64, or
// uploaded to an anonymous host and referenced by URL.
package image

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// DefaultHostedGateways are OpenAI-compatible gateways known to mishandle
// data: URLs. They are matched case-insensitively against the base URL.
var DefaultHostedGateways = []string{
	"dashscope.aliyuncs.com",
	"api.siliconflow.cn",
	"ark.cn-beijing.volces.com",
	"open.bigmodel.cn",
}

// Attachment is the resolved form of an image for one call.
type Attachment struct {
	Bytes []byte
	URL   string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHostedGateways replaces the default gateway list.
func WithHostedGateways(hosts []string) Option {
	return func(r *Resolver) {
		r.gateways = normalizeHosts(hosts)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver resolves image attachments. It is safe for concurrent use.
type Resolver struct {
	uploader Uploader
	gateways []string
	logger   *zap.Logger
}

// NewResolver creates a Resolver. A nil uploader disables hosting: every image
// is sent inline.
func NewResolver(uploader Uploader, opts ...Option) *Resolver {
	r := &Resolver{
		uploader: uploader,
		gateways: normalizeHosts(DefaultHostedGateways),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Resolve returns the attachment to send to cfg. Upload failures fall back to
// inline bytes and are never returned to the caller. A URL-only image for a
// provider that takes bytes only is ErrInvalidImage.
func (r *Resolver) Resolve(ctx context.Context, cfg llm.ProviderConfig, img *llm.Image) (Attachment, error) {
	if img.Empty() {
		return Attachment{}, nil
	}

	att := Attachment{Bytes: img.Bytes, URL: img.URL}
	if cfg.Kind != llm.OpenAICompatible {
		if len(att.Bytes) == 0 {
			return Attachment{}, bytesRequired(cfg.Kind)
		}
		att.URL = ""
		return att, nil
	}
	if att.URL != "" || len(att.Bytes) == 0 {
		return att, nil
	}
	if !r.wantsHosted(cfg) || r.uploader == nil {
		return att, nil
	}

	filename := "scribe-" + uuid.NewString() + extension(att.Bytes)
	hosted, err := r.uploader.Upload(ctx, att.Bytes, filename)
	if err != nil {
		r.logger.Warn("image upload failed, sending inline",
			zap.String("provider", cfg.ID),
			zap.Error(err),
		)
		return att, nil
	}

	r.logger.Debug("image hosted",
		zap.String("provider", cfg.ID),
		zap.String("url", hosted),
	)
	att.URL = hosted
	return att, nil
}

// UsesHostedGateway reports whether baseURL matches the gateway list.
func (r *Resolver) UsesHostedGateway(baseURL string) bool {
	lower := strings.ToLower(baseURL)
	for _, host := range r.gateways {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func (r *Resolver) wantsHosted(cfg llm.ProviderConfig) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.ImageTransport)) {
	case llm.ImageTransportInline:
		return false
	case llm.ImageTransportHosted:
		return true
	default:
		return r.UsesHostedGateway(cfg.BaseURL)
	}
}

func extension(b []byte) string {
	_, sub, ok := strings.Cut(MediaType(b), "/")
	if !ok || sub == "" {
		return ".png"
	}
	if sub == "jpeg" {
		return ".jpg"
	}
	return "." + sub
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
