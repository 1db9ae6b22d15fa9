package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"news_digest/internal/domain"
)

// Source scrapes the news site: a listing scan for candidates and a body
// fetch per article page.
type Source interface {
	ID() string
	FetchListing(ctx context.Context, today time.Time) ([]domain.Article, error)
	FetchBody(ctx context.Context, link string) (string, error)
}

// ArticleStore is the persisted set of seen articles, keyed by title.
// GetOrCreate is the single place duplicate prevention is enforced.
type ArticleStore interface {
	GetOrCreate(ctx context.Context, article *domain.Article) (domain.Article, bool, error)
	ListAll(ctx context.Context) ([]domain.Article, error)
}

type SubscriberStore interface {
	GetOrCreate(ctx context.Context, chatID int64) (domain.Subscriber, bool, error)
	Delete(ctx context.Context, chatID int64) (bool, error)
	List(ctx context.Context) ([]domain.Subscriber, error)
}

type IngestStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.IngestState, error)
	Update(ctx context.Context, state *domain.IngestState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher emits an event for every newly ingested article.
type Publisher interface {
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}

// Ingestor runs one ingestion pass and returns the articles relevant to the
// current digest.
type Ingestor interface {
	Ingest(ctx context.Context, today time.Time) ([]domain.Article, *domain.IngestStats, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type VoiceSender interface {
	SendVoice(ctx context.Context, chatID int64, voice []byte, caption string) error
}
