package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PostType is the closed set of content kinds the publisher knows how to
// handle. Anything else is rejected at ingestion time.
type PostType string

const (
	PostTypeReel      PostType = "Reel"
	PostTypeStory     PostType = "Story"
	PostTypeImageFeed PostType = "Image Feed"
)

func ParsePostType(s string) (PostType, error) {
	switch PostType(strings.TrimSpace(s)) {
	case PostTypeReel:
		return PostTypeReel, nil
	case PostTypeStory:
		return PostTypeStory, nil
	case PostTypeImageFeed:
		return PostTypeImageFeed, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

const (
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// Post is one scheduled unit of content, possibly targeting several pages.
// Status is monotonic: pending -> published or failed, terminal either way.
// Result holds the raw platform response or error text of the last attempt.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	AccountIDs   string    `db:"account_ids" json:"account_ids"`
	PostType     PostType  `db:"post_type" json:"post_type"`
	MediaURL     string    `db:"media_url" json:"media_url"`
	Caption      string    `db:"caption" json:"caption"`
	FirstComment string    `db:"first_comment" json:"first_comment"`
	StoryLink    string    `db:"story_link" json:"story_link"`
	ScheduledAt  time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status       string    `db:"status" json:"status"`
	Result       string    `db:"result" json:"result"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TargetAccountIDs parses the comma-joined account id list. Malformed
// entries come back as zero ids so the caller can record a data error for
// that slot instead of silently skipping it.
func (p *Post) TargetAccountIDs() []int64 {
	parts := strings.Split(p.AccountIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			ids = append(ids, 0)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// JoinAccountIDs builds the comma-joined storage form of an id set.
func JoinAccountIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
