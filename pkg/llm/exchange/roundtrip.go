package exchange

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Roundtrip executes req with client and records the pair. body must be the
// bytes req was built from. The returned Exchange is non-nil even when the
// transport fails so callers can attach it to their error.
//
// Cancellation is carried by the request's context.
func (r *Recorder) Roundtrip(client *http.Client, req *http.Request, body []byte) (*Exchange, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		ex := r.Record(req, body, nil, nil)
		ex.Duration = time.Since(start)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ex, nil, ctxErr
		}
		// url.Error prints the raw URL, query credentials included.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = ex.URL
		}
		return ex, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	ex := r.Record(req, body, resp, respBody)
	ex.Duration = time.Since(start)
	if err != nil {
		return ex, respBody, fmt.Errorf("reading response: %w", err)
	}

	return ex, respBody, nil
}
