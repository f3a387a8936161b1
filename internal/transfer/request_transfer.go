package transfer

// AccountCreation is the JSON body of POST /api/accounts.
type AccountCreation struct {
	Name   string `json:"name"`
	PageID string `json:"page_id"`
	Token  string `json:"token"`
}

// PostCreation is the JSON body of POST /api/posts. ScheduledAt uses the
// 2006-01-02T15:04 layout; empty means "post now" (now plus five minutes).
type PostCreation struct {
	AccountIDs   []int64 `json:"account_ids"`
	PostType     string  `json:"post_type"`
	MediaURL     string  `json:"media_url"`
	Caption      string  `json:"caption"`
	FirstComment string  `json:"first_comment"`
	StoryLink    string  `json:"story_link"`
	ScheduledAt  string  `json:"scheduled_at"`
}

// ImportSummary reports how a CSV bulk import went. Bad rows are skipped,
// not fatal, matching the forgiving import of the dashboard flows.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// QueueStats backs GET /api/stats.
type QueueStats struct {
	Accounts  int64 `json:"accounts"`
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}
