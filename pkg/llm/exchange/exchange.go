// Package exchange records sanitized, human-readable snapshots of the HTTP
// request/response pairs sent to LLM providers.
//
// A snapshot is built once per physical HTTP call. When the orchestrator has to
// make a second call for the same logical request, the two snapshots are joined
// with Separator so a failure always carries the full history.
package exchange

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/papercomputeco/scribe/pkg/utils"
)

const (
	// DefaultPreviewLimit bounds the request body preview.
	DefaultPreviewLimit = 4096

	// Separator joins the snapshots of consecutive round-trips.
	Separator = "\n\n==================== next round-trip ====================\n\n"

	redacted = "[REDACTED]"
)

// sensitiveHeaders never appear in a snapshot with their real value.
var sensitiveHeaders = map[string]struct{}{
	"Authorization":  {},
	"X-Api-Key":      {},
	"X-Goog-Api-Key": {},
	"Api-Key":        {},
	"Cookie":         {},
	"Set-Cookie":     {},
}

// sensitiveQuery are query parameters carrying credentials (Gemini's ?key=).
var sensitiveQuery = []string{"key", "api_key"}

// base64Run matches long base64 payloads such as inline images.
var base64Run = regexp.MustCompile(`[A-Za-z0-9+/]{256,}={0,2}`)

// Exchange is one recorded request/response pair.
type Exchange struct {
	Method         string
	URL            string
	RequestHeaders http.Header

	// RequestPreview is the sanitized request body, truncated to the
	// recorder's preview limit.
	RequestPreview string

	// RequestBody is the full raw request body, only kept when the recorder was
	// built WithFullBody(true).
	RequestBody string

	Protocol        string
	StatusCode      int
	StatusText      string
	ResponseHeaders http.Header
	ResponseBody    string

	Duration time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithPreviewLimit sets the maximum request preview length in bytes.
func WithPreviewLimit(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.previewLimit = n
		}
	}
}

// WithFullBody keeps the unsanitized request body on each Exchange.
func WithFullBody(keep bool) Option {
	return func(r *Recorder) {
		r.keepFullBody = keep
	}
}

// Recorder builds Exchange snapshots. It holds no per-call state and is safe
// for concurrent use.
type Recorder struct {
	previewLimit int
	keepFullBody bool
}

// NewRecorder creates a Recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{previewLimit: DefaultPreviewLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record snapshots req and resp. resp may be nil when the call failed before
// any response arrived.
func (r *Recorder) Record(req *http.Request, reqBody []byte, resp *http.Response, respBody []byte) *Exchange {
	ex := &Exchange{}

	if req != nil {
		ex.Method = req.Method
		if req.URL != nil {
			ex.URL = sanitizeURL(req.URL)
		}
		ex.RequestHeaders = sanitizeHeaders(req.Header)
	}

	ex.RequestPreview = utils.Truncate(sanitizeBody(string(reqBody)), r.previewLimit)
	if r.keepFullBody {
		ex.RequestBody = string(reqBody)
	}

	if resp != nil {
		ex.Protocol = resp.Proto
		ex.StatusCode = resp.StatusCode
		ex.StatusText = http.StatusText(resp.StatusCode)
		ex.ResponseHeaders = sanitizeHeaders(resp.Header)
	}
	ex.ResponseBody = string(respBody)

	return ex
}

// Succeeded reports whether the response status was 2xx.
func (e *Exchange) Succeeded() bool {
	return e != nil && e.StatusCode >= 200 && e.StatusCode < 300
}

// String renders the snapshot for logs and error messages.
func (e *Exchange) String() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--> %s %s\n", e.Method, e.URL)
	writeHeaders(&b, e.RequestHeaders)
	if e.RequestPreview != "" {
		b.WriteString("\n")
		b.WriteString(e.RequestPreview)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if e.StatusCode == 0 {
		b.WriteString("<-- (no response)\n")
		return b.String()
	}

	proto := e.Protocol
	if proto == "" {
		proto = "HTTP"
	}
	fmt.Fprintf(&b, "<-- %s %d %s", proto, e.StatusCode, e.StatusText)
	if e.Duration > 0 {
		fmt.Fprintf(&b, " (%s)", e.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")
	writeHeaders(&b, e.ResponseHeaders)
	if e.ResponseBody != "" {
		b.WriteString("\n")
		b.WriteString(e.ResponseBody)
		b.WriteString("\n")
	}

	return b.String()
}

// Join concatenates rendered snapshots with Separator, skipping blanks.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

func writeHeaders(b *strings.Builder, h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %s\n", k, strings.Join(h[k], ", "))
	}
}

func sanitizeHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		key := http.CanonicalHeaderKey(k)
		if _, secret := sensitiveHeaders[key]; secret {
			out[key] = []string{redacted}
			continue
		}
		out[key] = append([]string(nil), v...)
	}
	return out
}

func sanitizeURL(u *url.URL) string {
	clone := *u
	q := clone.Query()
	changed := false
	for _, name := range sensitiveQuery {
		if q.Has(name) {
			q.Set(name, redacted)
			changed = true
		}
	}
	if changed {
		clone.RawQuery = q.Encode()
	}
	return clone.String()
}

func sanitizeBody(body string) string {
	return base64Run.ReplaceAllStringFunc(body, func(m string) string {
		return fmt.Sprintf("<base64: %d chars>", len(m))
	})
}
