package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
	"github.com/endyji01/fb-buffer/internal/repository"
	"github.com/endyji01/fb-buffer/internal/transfer"
)

// scheduledTimeLayout is the form/CSV timestamp layout for scheduled posts.
const scheduledTimeLayout = "2006-01-02T15:04"

// postNowDelay is how far out "post now" ingestion lands: close enough to
// feel immediate, far enough that the next tick picks it up cleanly.
const postNowDelay = 5 * time.Minute

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (int64, error)
	ImportCSV(ctx context.Context, accountID int64, r io.Reader) (*transfer.ImportSummary, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Outcomes(ctx context.Context, postID int64) ([]*models.PostOutcome, error)
	Stats(ctx context.Context) (*transfer.QueueStats, error)
}

type postService struct {
	pr repository.PostRepository
	ar repository.AccountRepository
	or repository.PostOutcomeRepository
}

func NewPostService(
	pr repository.PostRepository,
	ar repository.AccountRepository,
	or repository.PostOutcomeRepository) PostService {
	return &postService{
		pr: pr,
		ar: ar,
		or: or,
	}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}

	postType, err := models.ParsePostType(pc.PostType)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if len(pc.AccountIDs) == 0 {
		err := errors.New("no target accounts selected")
		slog.Info(err.Error())
		return 0, err
	}

	// Media is mandatory except for text-only feed posts.
	mediaURL := strings.TrimSpace(pc.MediaURL)
	if mediaURL == "" && postType != models.PostTypeImageFeed {
		err := fmt.Errorf("media url is required for %s posts", postType)
		slog.Info(err.Error())
		return 0, err
	}

	scheduledAt := time.Now().Add(postNowDelay)
	if pc.ScheduledAt != "" {
		scheduledAt, err = time.Parse(scheduledTimeLayout, pc.ScheduledAt)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, err
		}
	}

	if err := s.checkAccountsExist(ctx, pc.AccountIDs); err != nil {
		return 0, err
	}

	post := models.Post{
		AccountIDs:   models.JoinAccountIDs(pc.AccountIDs),
		PostType:     postType,
		MediaURL:     mediaURL,
		Caption:      pc.Caption,
		FirstComment: pc.FirstComment,
		StoryLink:    pc.StoryLink,
		ScheduledAt:  scheduledAt,
	}

	return s.pr.Create(ctx, &post)
}

func (s *postService) checkAccountsExist(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		acc, err := s.ar.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("error checking account %d: %w", id, err)
		}
		if acc == nil {
			return fmt.Errorf("account %d does not exist", id)
		}
	}
	return nil
}

// ImportCSV bulk-schedules rows of (post_type, media_url, caption,
// first_comment, story_link) against one target account. Every row lands
// on the "post now" delay; malformed rows are skipped and counted.
func (s *postService) ImportCSV(ctx context.Context, accountID int64, r io.Reader) (*transfer.ImportSummary, error) {
	if err := s.checkAccountsExist(ctx, []int64{accountID}); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	summary := &transfer.ImportSummary{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(record, "post_type") {
				continue
			}
		}

		if len(record) < 3 {
			summary.Skipped++
			continue
		}

		pc := transfer.PostCreation{
			AccountIDs: []int64{accountID},
			PostType:   record[0],
			MediaURL:   record[1],
			Caption:    record[2],
		}
		if len(record) > 3 {
			pc.FirstComment = record[3]
		}
		if len(record) > 4 {
			pc.StoryLink = record[4]
		}

		if _, err := s.Create(ctx, &pc); err != nil {
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	return summary, nil
}

func (s *postService) List(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.pr.List(ctx, limit)
}

func (s *postService) Outcomes(ctx context.Context, postID int64) ([]*models.PostOutcome, error) {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	return s.or.ListByPostID(ctx, postID)
}

func (s *postService) Stats(ctx context.Context) (*transfer.QueueStats, error) {
	accounts, err := s.ar.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.pr.CountByStatus(ctx, models.PostStatusPending)
	if err != nil {
		return nil, err
	}
	published, err := s.pr.CountByStatus(ctx, models.PostStatusPublished)
	if err != nil {
		return nil, err
	}
	failed, err := s.pr.CountByStatus(ctx, models.PostStatusFailed)
	if err != nil {
		return nil, err
	}

	return &transfer.QueueStats{
		Accounts:  accounts,
		Pending:   pending,
		Published: published,
		Failed:    failed,
	}, nil
}
