package service

import (
	"errors"
	"fmt"
)

// ErrAccountNotFound marks a data error: a post references an account id
// that no longer exists. It fails the attempt for that account only.
var ErrAccountNotFound = errors.New("account not found")

// DownloadError is a network failure while fetching media: a non-2xx
// response or a connection problem. It aborts the publish attempt for the
// (post, account) pair it happened in.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s failed", e.URL)
}
