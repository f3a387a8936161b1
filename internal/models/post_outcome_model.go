package models

import "time"

// PostOutcome records the result of one publish attempt for one
// (post, account) pair. A multi-target post gets one row per account, so
// divergent results stay visible even though the post row itself keeps a
// single status column.
type PostOutcome struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	Status    string    `db:"status" json:"status"`
	Response  string    `db:"response" json:"response"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
