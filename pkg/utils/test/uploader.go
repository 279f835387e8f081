package testutils

import (
	"context"
	"sync"
)

// MockUploader records uploads and returns URL, or Err when set.
type MockUploader struct {
	URL string
	Err error

	mu        sync.Mutex
	filenames []string
}

func (u *MockUploader) Upload(_ context.Context, _ []byte, filename string) (string, error) {
	u.mu.Lock()
	u.filenames = append(u.filenames, filename)
	u.mu.Unlock()
	if u.Err != nil {
		return "", u.Err
	}
	return u.URL, nil
}

// Uploads returns the filenames uploaded so far.
func (u *MockUploader) Uploads() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.filenames...)
}
