package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/endyji01/fb-buffer/configs"
	"github.com/endyji01/fb-buffer/internal/models"
	"github.com/endyji01/fb-buffer/internal/transfer"
	"github.com/endyji01/fb-buffer/pkg/directurl"
	"github.com/endyji01/fb-buffer/pkg/utils"
)

// videoSuffixes decides the story variant: URLs ending in one of these run
// the video protocol, anything else is treated as a photo story.
var videoSuffixes = []string{".mp4", ".mov"}

// FacebookService publishes one post to one page account, running the
// protocol that matches the post type and firing the optional first comment
// after a successful publish.
type FacebookService interface {
	Publish(ctx context.Context, post *models.Post, account *models.Account) (*transfer.PublishResult, error)
}

type facebookService struct {
	graph     *graphClient
	media     MediaService
	secretKey string
}

func NewFacebookService(cfg config.Config, media MediaService) FacebookService {
	return &facebookService{
		graph:     newGraphClient(cfg.GraphAPIVersion, cfg.PublishTimeout),
		media:     media,
		secretKey: cfg.SecretKey,
	}
}

func (s *facebookService) Publish(ctx context.Context, post *models.Post, account *models.Account) (*transfer.PublishResult, error) {
	if account.PageID == "" || account.Token == "" {
		return nil, fmt.Errorf("account %d has no page id or token", account.ID)
	}

	if s.secretKey != "" {
		token, err := utils.Decrypt(account.Token, []byte(s.secretKey))
		if err != nil {
			return nil, fmt.Errorf("decrypt token for account %d: %w", account.ID, err)
		}
		acc := *account
		acc.Token = token
		account = &acc
	}

	var res *transfer.PublishResult
	var err error

	switch post.PostType {
	case models.PostTypeReel:
		res, err = s.publishReel(ctx, post, account)
	case models.PostTypeStory:
		res, err = s.publishStory(ctx, post, account)
	case models.PostTypeImageFeed:
		res, err = s.publishFeed(ctx, post, account)
	default:
		err = fmt.Errorf("unhandled post type %q", post.PostType)
	}
	if err != nil {
		return nil, err
	}

	s.postFirstComment(ctx, post, account, res.PostID)

	return res, nil
}

// publishReel runs the phased protocol against the video_reels edge,
// attaching scheduling metadata only when the post is still in the future.
func (s *facebookService) publishReel(ctx context.Context, post *models.Post, account *models.Account) (*transfer.PublishResult, error) {
	path, err := s.media.Fetch(ctx, post.MediaURL)
	if err != nil {
		return nil, err
	}
	defer s.media.Remove(path)

	mediaID, err := s.graph.StartUploadSession(ctx, account.PageID, "video_reels", account.Token)
	if err != nil {
		return nil, err
	}

	if err := s.graph.UploadFile(ctx, mediaID, account.Token, path); err != nil {
		return nil, err
	}

	finish := url.Values{
		"video_id":    {mediaID},
		"description": {post.Caption},
	}
	if ts, future := schedulingTimestamp(post.ScheduledAt); future {
		finish.Set("video_state", "SCHEDULED")
		finish.Set("scheduled_publish_time", strconv.FormatInt(ts, 10))
	}

	gr, raw, err := s.graph.FinishUploadSession(ctx, account.PageID, "video_reels", account.Token, finish)
	if err != nil {
		return nil, err
	}

	return phasedResult(gr, raw, mediaID), nil
}

// publishStory sniffs the media URL's suffix to pick the video or photo
// story edge. Stories always publish immediately; the platform offers no
// scheduled state for them.
func (s *facebookService) publishStory(ctx context.Context, post *models.Post, account *models.Account) (*transfer.PublishResult, error) {
	edge, idKey := "photo_stories", "photo_id"
	if isVideoURL(post.MediaURL) {
		edge, idKey = "video_stories", "video_id"
	}

	path, err := s.media.Fetch(ctx, post.MediaURL)
	if err != nil {
		return nil, err
	}
	defer s.media.Remove(path)

	mediaID, err := s.graph.StartUploadSession(ctx, account.PageID, edge, account.Token)
	if err != nil {
		return nil, err
	}

	if err := s.graph.UploadFile(ctx, mediaID, account.Token, path); err != nil {
		return nil, err
	}

	gr, raw, err := s.graph.FinishUploadSession(ctx, account.PageID, edge, account.Token, url.Values{idKey: {mediaID}})
	if err != nil {
		return nil, err
	}

	return phasedResult(gr, raw, mediaID), nil
}

// publishFeed is the single-phase protocol: one POST against feed (text
// only) or photos (remote media URL), no local upload.
func (s *facebookService) publishFeed(ctx context.Context, post *models.Post, account *models.Account) (*transfer.PublishResult, error) {
	edge := "feed"
	form := url.Values{
		"message":      {post.Caption},
		"access_token": {account.Token},
		"published":    {"true"},
	}
	if ts, future := schedulingTimestamp(post.ScheduledAt); future {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(ts, 10))
	}
	if post.MediaURL != "" {
		edge = "photos"
		form.Set("url", directurl.Normalize(post.MediaURL))
	}

	gr, raw, err := s.graph.PostForm(ctx, edge, fmt.Sprintf("/%s/%s", account.PageID, edge), form)
	if err != nil {
		return nil, err
	}

	id := gr.PublishedID()
	if id == "" {
		return nil, &transfer.GraphAPIError{Step: edge, StatusCode: 200, Body: raw}
	}
	return &transfer.PublishResult{PostID: id, Raw: raw}, nil
}

// postFirstComment is fire and forget: it runs at most once per successful
// publish and its failure never touches the post's own outcome.
func (s *facebookService) postFirstComment(ctx context.Context, post *models.Post, account *models.Account, postID string) {
	comment := strings.TrimSpace(post.FirstComment)
	if comment == "" || postID == "" {
		return
	}
	if err := s.graph.Comment(ctx, postID, comment, account.Token); err != nil {
		slog.Info("first comment failed", "post_id", post.ID, "error", err.Error())
	}
}

// phasedResult derives the publish identifier from a finish response,
// falling back to the upload session's media id when the response carries
// only a success flag.
func phasedResult(gr *transfer.GraphResponse, raw, mediaID string) *transfer.PublishResult {
	id := gr.PublishedID()
	if id == "" {
		id = mediaID
	}
	return &transfer.PublishResult{PostID: id, Raw: raw}
}

// schedulingTimestamp reports whether t merits the platform's scheduled
// state. Overdue posts publish immediately; a past-dated schedule would be
// rejected outright.
func schedulingTimestamp(t time.Time) (int64, bool) {
	if t.IsZero() || !t.After(time.Now()) {
		return 0, false
	}
	return t.Unix(), true
}

func isVideoURL(rawURL string) bool {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	for _, suffix := range videoSuffixes {
		if strings.HasSuffix(u, suffix) {
			return true
		}
	}
	return false
}
