package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/endyji01/fb-buffer/pkg/directurl"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// copyBufferSize is the chunk size for streaming downloads. Large enough
// for video throughput without ever holding the whole payload in memory.
const copyBufferSize = 8 * 1024 * 1024

// MediaService downloads remote media to local scratch storage. The caller
// owns the returned file and must Remove it on every exit path.
type MediaService interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
	Remove(path string)
}

type mediaService struct {
	client  *http.Client
	tempDir string
}

func NewMediaService(timeout time.Duration, tempDir string) MediaService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &mediaService{
		client:  &http.Client{Timeout: timeout},
		tempDir: tempDir,
	}
}

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {},
}

func (s *mediaService) Fetch(ctx context.Context, rawURL string) (string, error) {
	directURL := directurl.Normalize(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", &DownloadError{URL: directURL}, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{URL: directURL, StatusCode: resp.StatusCode}
	}

	// Nanoid-derived names cannot collide across concurrent fetches within
	// one tick, unlike a coarse timestamp.
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.tempDir, fmt.Sprintf("fb_%s.tmp", id))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	_, err = io.CopyBuffer(f, resp.Body, buf)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("stream media to %s: %w", path, err)
	}

	if err := validateMediaFile(path); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}

// validateMediaFile sniffs the downloaded content and rejects anything the
// platform endpoints would not accept anyway.
func validateMediaFile(path string) error {
	t, err := filetype.MatchFile(path)
	if err != nil || t == types.Unknown {
		return fmt.Errorf("unsupported media type for %s", path)
	}
	if _, ok := allowedMediaTypes[t.Extension]; !ok {
		return fmt.Errorf("media type %s is not allowed", t.Extension)
	}
	return nil
}

func (s *mediaService) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Info(err.Error())
	}
}
