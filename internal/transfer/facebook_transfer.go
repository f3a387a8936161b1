package transfer

import "fmt"

// GraphResponse covers the success shapes the Graph API returns across the
// feed, photo, reel and story endpoints. The phased endpoints hand back
// video_id or photo_id depending on the media variant; publish calls hand
// back id or post_id.
type GraphResponse struct {
	ID      string      `json:"id"`
	PostID  string      `json:"post_id"`
	VideoID string      `json:"video_id"`
	PhotoID string      `json:"photo_id"`
	Success bool        `json:"success"`
	Error   *GraphError `json:"error"`
}

type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FbtraceID    string `json:"fbtrace_id"`
}

// PublishedID returns the identifier of the published content, preferring
// the post-level id over the raw media id.
func (r *GraphResponse) PublishedID() string {
	switch {
	case r.PostID != "":
		return r.PostID
	case r.ID != "":
		return r.ID
	case r.VideoID != "":
		return r.VideoID
	case r.PhotoID != "":
		return r.PhotoID
	}
	return ""
}

// MediaID returns the upload-session identifier from a phase=start response.
func (r *GraphResponse) MediaID() string {
	if r.VideoID != "" {
		return r.VideoID
	}
	return r.PhotoID
}

// GraphAPIError is an upload-protocol failure: the platform answered with a
// non-2xx status or an error-shaped body at some step of a publish flow.
// Body keeps the response verbatim for diagnosis.
type GraphAPIError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *GraphAPIError) Error() string {
	return fmt.Sprintf("graph api %s failed (status %d): %s", e.Step, e.StatusCode, e.Body)
}

// PublishResult is what the publisher reports back to the scheduler loop
// for a successful attempt.
type PublishResult struct {
	PostID string `json:"post_id"`
	Raw    string `json:"raw"`
}
