package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/endyji01/fb-buffer/internal/transfer"
)

const (
	defaultGraphHost  = "https://graph.facebook.com"
	defaultUploadHost = "https://rupload.facebook.com"
)

// graphClient speaks the Facebook Graph API: form-encoded POSTs against the
// versioned graph host, plus the binary upload host used by the phased
// (start/upload/finish) protocol. Hosts are injectable so tests can point
// the client at a local server.
type graphClient struct {
	client     *http.Client
	graphBase  string // e.g. https://graph.facebook.com/v24.0
	uploadBase string // e.g. https://rupload.facebook.com/video-upload/v24.0
}

func newGraphClient(version string, timeout time.Duration) *graphClient {
	return &graphClient{
		client:     &http.Client{Timeout: timeout},
		graphBase:  fmt.Sprintf("%s/%s", defaultGraphHost, version),
		uploadBase: fmt.Sprintf("%s/video-upload/%s", defaultUploadHost, version),
	}
}

// PostForm sends a form-encoded POST to a graph path ("/{page_id}/feed" etc.)
// and decodes the response into the shared graph schema. A non-2xx status or
// an error-shaped body comes back as *transfer.GraphAPIError with the body
// captured verbatim.
func (c *graphClient) PostForm(ctx context.Context, step, path string, form url.Values) (*transfer.GraphResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("build %s request: %w", step, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s request: %w", step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", step, err)
	}
	raw := string(body)

	var gr transfer.GraphResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, raw, &transfer.GraphAPIError{Step: step, StatusCode: resp.StatusCode, Body: raw}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || gr.Error != nil {
		return nil, raw, &transfer.GraphAPIError{Step: step, StatusCode: resp.StatusCode, Body: raw}
	}

	return &gr, raw, nil
}

// StartUploadSession runs upload_phase=start against a phased edge
// (video_reels, video_stories, photo_stories) and returns the session's
// media identifier.
func (c *graphClient) StartUploadSession(ctx context.Context, pageID, edge, token string) (string, error) {
	form := url.Values{
		"upload_phase": {"start"},
		"access_token": {token},
	}
	gr, _, err := c.PostForm(ctx, edge+" start", fmt.Sprintf("/%s/%s", pageID, edge), form)
	if err != nil {
		return "", err
	}
	mediaID := gr.MediaID()
	if mediaID == "" {
		return "", &transfer.GraphAPIError{Step: edge + " start", StatusCode: http.StatusOK, Body: "response carries no media id"}
	}
	return mediaID, nil
}

// UploadFile streams the downloaded file's bytes to the binary upload host.
// The whole file goes in one shot (offset 0), authenticated via the OAuth
// authorization header rather than the form access_token.
func (c *graphClient) UploadFile(ctx context.Context, mediaID, token, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat media file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"/"+mediaID, f)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", "OAuth "+token)
	req.Header.Set("offset", "0")
	req.Header.Set("file_size", strconv.FormatInt(info.Size(), 10))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload media bytes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &transfer.GraphAPIError{Step: "upload", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// FinishUploadSession runs upload_phase=finish with whatever extra fields
// the edge needs (description, media id key, scheduling metadata).
func (c *graphClient) FinishUploadSession(ctx context.Context, pageID, edge, token string, extra url.Values) (*transfer.GraphResponse, string, error) {
	form := url.Values{
		"upload_phase": {"finish"},
		"access_token": {token},
	}
	for k, vs := range extra {
		for _, v := range vs {
			form.Add(k, v)
		}
	}
	return c.PostForm(ctx, edge+" finish", fmt.Sprintf("/%s/%s", pageID, edge), form)
}

// Comment posts one comment against a published object.
func (c *graphClient) Comment(ctx context.Context, objectID, message, token string) error {
	form := url.Values{
		"message":      {message},
		"access_token": {token},
	}
	_, _, err := c.PostForm(ctx, "comment", fmt.Sprintf("/%s/comments", objectID), form)
	return err
}
