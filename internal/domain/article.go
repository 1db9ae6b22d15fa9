package domain

import "time"

// Article is a single news item scraped from the site. Title is the natural
// key: two articles with the same title are the same logical article, and the
// store enforces that with a unique constraint.
type Article struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Link      string    `db:"link"`
	Text      string    `db:"body"`
	Date      time.Time `db:"published_on"`
	CreatedAt time.Time `db:"created_at"`
}

// Subscriber is a Telegram chat that receives the daily voice digest.
type Subscriber struct {
	ID           int64     `db:"id"`
	ChatID       int64     `db:"chat_id"`
	SubscribedAt time.Time `db:"subscribed_at"`
}

// IngestState tracks per-source ingestion bookkeeping across runs.
type IngestState struct {
	ID            int64     `db:"id"`
	SourceID      string    `db:"source_id"`
	LastRunAt     time.Time `db:"last_run_at"`
	TotalIngested int64     `db:"total_ingested"`
}

// Day truncates t to a calendar date (midnight UTC). Article.Date values are
// always normalized through this so equality checks compare dates, not times.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
