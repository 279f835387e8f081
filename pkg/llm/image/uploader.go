package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/scribe/pkg/codec"
	"github.com/papercomputeco/scribe/pkg/utils"
)

// DefaultUploadEndpoint is the anonymous tmpfiles.org upload API.
const DefaultUploadEndpoint = "https://tmpfiles.org/api/v1/upload"

// ErrUploadFailed wraps every failure to obtain a hosted URL.
var ErrUploadFailed = errors.New("image upload failed")

// Uploader publishes image bytes and returns a directly downloadable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// TmpfilesUploader uploads to tmpfiles.org, or any host answering with the
// same response shape.
type TmpfilesUploader struct {
	Endpoint string
	HTTP     *http.Client
	Codec    codec.Codec
}

// NewTmpfilesUploader creates an uploader for endpoint (DefaultUploadEndpoint when blank).
func NewTmpfilesUploader(endpoint string, hc *http.Client, cd codec.Codec) *TmpfilesUploader {
	if endpoint == "" {
		endpoint = DefaultUploadEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if cd == nil {
		cd = codec.New()
	}
	return &TmpfilesUploader{Endpoint: endpoint, HTTP: hc, Codec: cd}
}

type tmpfilesResponse struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (u *TmpfilesUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrUploadFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, utils.Truncate(string(respBody), 200))
	}

	var parsed tmpfilesResponse
	if err := u.Codec.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrUploadFailed, err)
	}
	if parsed.Status != "success" || parsed.Data.URL == "" {
		return "", fmt.Errorf("%w: unexpected response: %s", ErrUploadFailed, utils.Truncate(string(respBody), 200))
	}

	return DirectDownloadURL(parsed.Data.URL)
}

// DirectDownloadURL rewrites a tmpfiles.org page URL into its direct download
// form: the scheme becomes https and "/dl" is inserted after the host.
//
//	http://tmpfiles.org/123/page.png -> https://tmpfiles.org/dl/123/page.png
func DirectDownloadURL(page string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(page))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid page url %q", ErrUploadFailed, page)
	}

	u.Scheme = "https"
	if !strings.HasPrefix(u.Path, "/dl/") {
		u.Path = "/dl" + u.Path
	}
	return u.String(), nil
}
