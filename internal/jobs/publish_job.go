package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
	"github.com/endyji01/fb-buffer/internal/repository"
	"github.com/endyji01/fb-buffer/internal/service"
)

// PublishJob is the scheduler loop: each tick it drains due pending posts
// and publishes them account by account. It owns its repository handles;
// nothing else writes post status.
type PublishJob struct {
	pr repository.PostRepository
	ar repository.AccountRepository
	or repository.PostOutcomeRepository
	fb service.FacebookService

	accountPause   time.Duration
	publishTimeout time.Duration

	running atomic.Bool
}

func NewPublishJob(
	pr repository.PostRepository,
	ar repository.AccountRepository,
	or repository.PostOutcomeRepository,
	fb service.FacebookService,
	accountPause, publishTimeout time.Duration) *PublishJob {
	return &PublishJob{
		pr:             pr,
		ar:             ar,
		or:             or,
		fb:             fb,
		accountPause:   accountPause,
		publishTimeout: publishTimeout,
	}
}

// Run executes one tick. The cron timer fires on a fixed interval with no
// reentrancy protection of its own, so a slow tick (large download, slow
// upload) is guarded here: an overlapping firing is skipped outright.
func (j *PublishJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		slog.Info("publish tick still running, skipping this firing")
		return
	}
	defer j.running.Store(false)

	ctx := context.Background()

	posts, err := j.pr.ListDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		ids := post.TargetAccountIDs()
		if len(ids) == 0 {
			j.record(ctx, post, 0, models.PostStatusFailed, "post references no accounts")
			continue
		}

		// Sequential fan-out with a pause between accounts keeps the
		// request rate against the platform in check. Each pair is
		// independent: one account failing never blocks the rest.
		for i, accountID := range ids {
			status, result := j.attempt(ctx, post, accountID)
			j.record(ctx, post, accountID, status, result)

			if i < len(ids)-1 {
				time.Sleep(j.accountPause)
			}
		}
	}
}

// attempt publishes one post to one account and reduces everything that
// can go wrong to a (status, result) pair. Nothing escapes to crash the
// loop.
func (j *PublishJob) attempt(ctx context.Context, post *models.Post, accountID int64) (string, string) {
	account, err := j.ar.GetByID(ctx, accountID)
	if err != nil {
		return models.PostStatusFailed, fmt.Sprintf("resolve account %d: %v", accountID, err)
	}
	if account == nil {
		return models.PostStatusFailed, fmt.Sprintf("%v: %d", service.ErrAccountNotFound, accountID)
	}

	pctx, cancel := context.WithTimeout(ctx, j.publishTimeout)
	defer cancel()

	res, err := j.fb.Publish(pctx, post, account)
	if err != nil {
		slog.Info("publish attempt failed", "post_id", post.ID, "account_id", accountID, "error", err.Error())
		return models.PostStatusFailed, err.Error()
	}

	return models.PostStatusPublished, res.Raw
}

// record persists one attempt: an outcome row for the (post, account) pair
// plus the post-level status. With several target accounts the post column
// ends up holding the last attempt in iteration order; the outcome rows
// keep the full picture.
func (j *PublishJob) record(ctx context.Context, post *models.Post, accountID int64, status, result string) {
	outcome := models.PostOutcome{
		PostID:    post.ID,
		AccountID: accountID,
		Status:    status,
		Response:  result,
	}
	if _, err := j.or.Create(ctx, &outcome); err != nil {
		slog.Info("saving outcome failed", "post_id", post.ID, "error", err.Error())
	}

	if err := j.pr.SetOutcome(ctx, post.ID, status, result); err != nil {
		slog.Info("updating post status failed", "post_id", post.ID, "error", err.Error())
	}
}
