package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
	"github.com/endyji01/fb-buffer/internal/transfer"
)

// movPayload carries a quicktime ftyp box header.
func movPayload() []byte {
	header := []byte{0x00, 0x00, 0x00, 0x14, 'f', 't', 'y', 'p', 'q', 't', ' ', ' '}
	return append(header, bytes.Repeat([]byte{0xEE}, 300)...)
}

func jpegPayload() []byte {
	header := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	return append(header, bytes.Repeat([]byte{0x11}, 128)...)
}

// newPublisher wires a facebookService against test graph/upload servers
// and a media server serving payload for every path.
func newPublisher(t *testing.T, graphHandler, uploadHandler http.HandlerFunc, payload []byte) (*facebookService, *httptest.Server, string) {
	t.Helper()

	graphSrv := httptest.NewServer(graphHandler)
	t.Cleanup(graphSrv.Close)

	uploadSrv := httptest.NewServer(uploadHandler)
	t.Cleanup(uploadSrv.Close)

	mediaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(mediaSrv.Close)

	dir := t.TempDir()
	svc := &facebookService{
		graph: &graphClient{
			client:     &http.Client{Timeout: 5 * time.Second},
			graphBase:  graphSrv.URL + "/v24.0",
			uploadBase: uploadSrv.URL + "/video-upload/v24.0",
		},
		media: NewMediaService(5*time.Second, dir),
	}
	return svc, mediaSrv, dir
}

func testAccount() *models.Account {
	return &models.Account{ID: 1, Name: "My Page", PageID: "page1", Token: "tok"}
}

func TestPublishReelOverdueRunsImmediately(t *testing.T) {
	payload := mp4Payload()
	var startForm, finishForm url.Values
	var uploadAuth, uploadOffset, uploadSize string
	var uploadedBytes int

	graph := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v24.0/page1/video_reels" {
			t.Errorf("unexpected graph path %s", r.URL.Path)
		}
		r.ParseForm()
		switch r.PostForm.Get("upload_phase") {
		case "start":
			startForm = r.PostForm
			json.NewEncoder(w).Encode(map[string]string{"video_id": "v1"})
		case "finish":
			finishForm = r.PostForm
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		default:
			t.Errorf("unexpected upload_phase %q", r.PostForm.Get("upload_phase"))
		}
	}
	upload := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v24.0/v1" && !strings.HasSuffix(r.URL.Path, "/v1") {
			t.Errorf("unexpected upload path %s", r.URL.Path)
		}
		uploadAuth = r.Header.Get("Authorization")
		uploadOffset = r.Header.Get("offset")
		uploadSize = r.Header.Get("file_size")
		body := new(bytes.Buffer)
		body.ReadFrom(r.Body)
		uploadedBytes = body.Len()
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}

	svc, mediaSrv, dir := newPublisher(t, graph, upload, payload)

	post := &models.Post{
		ID:          10,
		PostType:    models.PostTypeReel,
		MediaURL:    mediaSrv.URL + "/clip.mp4",
		Caption:     "my reel",
		ScheduledAt: time.Now().Add(-time.Hour), // overdue
	}

	res, err := svc.Publish(context.Background(), post, testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if startForm.Get("access_token") != "tok" {
		t.Errorf("start missing access_token")
	}
	if uploadAuth != "OAuth tok" {
		t.Errorf("upload Authorization = %q, want OAuth tok", uploadAuth)
	}
	if uploadOffset != "0" {
		t.Errorf("upload offset = %q, want 0", uploadOffset)
	}
	if uploadSize != strconv.Itoa(len(payload)) || uploadedBytes != len(payload) {
		t.Errorf("upload size header %q / body %d, want %d", uploadSize, uploadedBytes, len(payload))
	}
	if finishForm.Get("video_id") != "v1" || finishForm.Get("description") != "my reel" {
		t.Errorf("unexpected finish form: %v", finishForm)
	}
	// overdue post must not request a past-dated schedule
	if finishForm.Get("video_state") != "" || finishForm.Get("scheduled_publish_time") != "" {
		t.Errorf("overdue reel carried scheduling metadata: %v", finishForm)
	}
	if res.PostID != "v1" {
		t.Errorf("PostID = %q, want v1", res.PostID)
	}

	assertDirEmpty(t, dir)
}

func TestPublishReelFutureIsScheduled(t *testing.T) {
	var finishForm url.Values
	graph := func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("upload_phase") == "start" {
			json.NewEncoder(w).Encode(map[string]string{"video_id": "v2"})
			return
		}
		finishForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
	upload := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}

	svc, mediaSrv, _ := newPublisher(t, graph, upload, mp4Payload())

	scheduledAt := time.Now().Add(2 * time.Hour)
	post := &models.Post{
		PostType:    models.PostTypeReel,
		MediaURL:    mediaSrv.URL + "/clip.mp4",
		Caption:     "later",
		ScheduledAt: scheduledAt,
	}

	if _, err := svc.Publish(context.Background(), post, testAccount()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if finishForm.Get("video_state") != "SCHEDULED" {
		t.Errorf("video_state = %q, want SCHEDULED", finishForm.Get("video_state"))
	}
	if finishForm.Get("scheduled_publish_time") != strconv.FormatInt(scheduledAt.Unix(), 10) {
		t.Errorf("scheduled_publish_time = %q, want %d", finishForm.Get("scheduled_publish_time"), scheduledAt.Unix())
	}
}

func TestPublishStoryPicksVideoEdge(t *testing.T) {
	var edges []string
	graph := func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("upload_phase") == "start" {
			edges = append(edges, r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"video_id": "vs1"})
			return
		}
		if r.PostForm.Get("video_id") != "vs1" {
			t.Errorf("finish missing video_id: %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
	upload := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}

	svc, mediaSrv, _ := newPublisher(t, graph, upload, movPayload())

	// uppercase extension and query string must not confuse the sniff
	post := &models.Post{
		PostType:    models.PostTypeStory,
		MediaURL:    mediaSrv.URL + "/story.MOV?raw=1",
		ScheduledAt: time.Now().Add(-time.Minute),
	}

	if _, err := svc.Publish(context.Background(), post, testAccount()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 1 || edges[0] != "/v24.0/page1/video_stories" {
		t.Errorf("start edges = %v, want video_stories", edges)
	}
}

func TestPublishStoryPicksPhotoEdge(t *testing.T) {
	var finishForm url.Values
	graph := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/photo_stories") {
			t.Errorf("unexpected edge %s", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("upload_phase") == "start" {
			json.NewEncoder(w).Encode(map[string]string{"photo_id": "ph1"})
			return
		}
		finishForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
	upload := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}

	svc, mediaSrv, _ := newPublisher(t, graph, upload, jpegPayload())

	post := &models.Post{
		PostType:    models.PostTypeStory,
		MediaURL:    mediaSrv.URL + "/pic.jpg",
		ScheduledAt: time.Now().Add(-time.Minute),
	}

	res, err := svc.Publish(context.Background(), post, testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finishForm.Get("photo_id") != "ph1" {
		t.Errorf("finish form = %v, want photo_id=ph1", finishForm)
	}
	if res.PostID != "ph1" {
		t.Errorf("PostID = %q, want ph1", res.PostID)
	}
}

func TestPublishFeedTextOnly(t *testing.T) {
	var form url.Values
	graph := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v24.0/page1/feed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		form = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{"id": "fp1"})
	}

	svc, _, _ := newPublisher(t, graph, func(w http.ResponseWriter, r *http.Request) {}, nil)

	post := &models.Post{
		PostType:    models.PostTypeImageFeed,
		Caption:     "just words",
		ScheduledAt: time.Now().Add(-time.Minute),
	}

	res, err := svc.Publish(context.Background(), post, testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Get("message") != "just words" || form.Get("published") != "true" {
		t.Errorf("unexpected feed form: %v", form)
	}
	if res.PostID != "fp1" {
		t.Errorf("PostID = %q, want fp1", res.PostID)
	}
}

func TestPublishFeedRemoteImageIsNormalized(t *testing.T) {
	var form url.Values
	graph := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v24.0/page1/photos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		form = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{"id": "fp2", "post_id": "page1_fp2"})
	}

	svc, _, dir := newPublisher(t, graph, func(w http.ResponseWriter, r *http.Request) {}, nil)

	scheduledAt := time.Now().Add(time.Hour)
	post := &models.Post{
		PostType:    models.PostTypeImageFeed,
		Caption:     "pic",
		MediaURL:    "https://www.dropbox.com/s/abc/pic.jpg?dl=0",
		ScheduledAt: scheduledAt,
	}

	res, err := svc.Publish(context.Background(), post, testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Get("url") != "https://dl.dropboxusercontent.com/s/abc/pic.jpg?dl=1" {
		t.Errorf("url param = %q", form.Get("url"))
	}
	if form.Get("published") != "false" || form.Get("scheduled_publish_time") == "" {
		t.Errorf("future feed post not scheduled: %v", form)
	}
	if res.PostID != "page1_fp2" {
		t.Errorf("PostID = %q, want page1_fp2", res.PostID)
	}

	// the single-phase path never downloads anything
	assertDirEmpty(t, dir)
}

func TestFirstCommentPostedExactlyOnce(t *testing.T) {
	var commentCalls atomic.Int32
	var commentForm url.Values
	graph := func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if strings.HasSuffix(r.URL.Path, "/comments") {
			commentCalls.Add(1)
			commentForm = r.PostForm
			if r.URL.Path != "/v24.0/fp1/comments" {
				t.Errorf("comment path = %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "c1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "fp1"})
	}

	svc, _, _ := newPublisher(t, graph, func(w http.ResponseWriter, r *http.Request) {}, nil)

	post := &models.Post{
		PostType:     models.PostTypeImageFeed,
		Caption:      "hello",
		FirstComment: "  follow the link!  ",
		ScheduledAt:  time.Now().Add(-time.Minute),
	}

	if _, err := svc.Publish(context.Background(), post, testAccount()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := commentCalls.Load(); n != 1 {
		t.Errorf("comment calls = %d, want 1", n)
	}
	if commentForm.Get("message") != "follow the link!" {
		t.Errorf("comment message = %q", commentForm.Get("message"))
	}
}

func TestFirstCommentFailureKeepsPublishSuccessful(t *testing.T) {
	graph := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/comments") {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"comment rejected"}}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "fp1"})
	}

	svc, _, _ := newPublisher(t, graph, func(w http.ResponseWriter, r *http.Request) {}, nil)

	post := &models.Post{
		PostType:     models.PostTypeImageFeed,
		Caption:      "hello",
		FirstComment: "will fail",
		ScheduledAt:  time.Now().Add(-time.Minute),
	}

	res, err := svc.Publish(context.Background(), post, testAccount())
	if err != nil {
		t.Fatalf("comment failure leaked into publish outcome: %v", err)
	}
	if res.PostID != "fp1" {
		t.Errorf("PostID = %q, want fp1", res.PostID)
	}
}

func TestUploadFailureCleansUpTempFile(t *testing.T) {
	graph := func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("upload_phase") == "start" {
			json.NewEncoder(w).Encode(map[string]string{"video_id": "v9"})
			return
		}
		t.Error("finish must not run after a failed upload")
	}
	upload := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upload refused"}}`)
	}

	svc, mediaSrv, dir := newPublisher(t, graph, upload, mp4Payload())

	post := &models.Post{
		PostType:    models.PostTypeReel,
		MediaURL:    mediaSrv.URL + "/clip.mp4",
		ScheduledAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Publish(context.Background(), post, testAccount())
	if err == nil {
		t.Fatal("expected an upload error")
	}
	var ge *transfer.GraphAPIError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *transfer.GraphAPIError, got %T", err)
	}
	if !strings.Contains(ge.Body, "upload refused") {
		t.Errorf("error body not captured verbatim: %q", ge.Body)
	}

	assertDirEmpty(t, dir)
}

func TestErrorShapedStartResponse(t *testing.T) {
	graph := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	}

	svc, mediaSrv, dir := newPublisher(t, graph, func(w http.ResponseWriter, r *http.Request) {}, mp4Payload())

	post := &models.Post{
		PostType:    models.PostTypeReel,
		MediaURL:    mediaSrv.URL + "/clip.mp4",
		ScheduledAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Publish(context.Background(), post, testAccount())
	var ge *transfer.GraphAPIError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *transfer.GraphAPIError, got %T: %v", err, err)
	}
	if !strings.Contains(ge.Body, "Invalid OAuth access token") {
		t.Errorf("body = %q", ge.Body)
	}

	assertDirEmpty(t, dir)
}

func TestPublishRejectsIncompleteAccount(t *testing.T) {
	svc, _, _ := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, func(w http.ResponseWriter, r *http.Request) {}, nil)

	post := &models.Post{PostType: models.PostTypeImageFeed, Caption: "x"}
	if _, err := svc.Publish(context.Background(), post, &models.Account{ID: 7, PageID: "p"}); err == nil {
		t.Fatal("expected an error for an account without a token")
	}
}
