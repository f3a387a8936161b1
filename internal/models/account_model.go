package models

import "time"

// Account is a Facebook page the scheduler can publish to. Accounts are
// immutable once created; there is no edit path.
type Account struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PageID    string    `db:"page_id" json:"page_id"`
	Token     string    `db:"token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
