//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"news_digest/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_articles.up.sql"),
			filepath.Join(migrationsPath, "002_create_subscribers.up.sql"),
			filepath.Join(migrationsPath, "003_create_ingest_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM articles")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM subscribers")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM ingest_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) testArticle(title string) *domain.Article {
	return &domain.Article{
		Title: title,
		Link:  "/en/" + title,
		Text:  "Body of " + title,
		Date:  time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresIntegrationSuite) TestArticleStore_GetOrCreate_Insert() {
	store := NewArticleStore(s.db)

	stored, created, err := store.GetOrCreate(s.ctx, s.testArticle("berlin-vote"))
	s.NoError(err)
	s.True(created)
	s.Greater(stored.ID, int64(0))
	s.Equal("berlin-vote", stored.Title)
	s.Equal("Body of berlin-vote", stored.Text)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestArticleStore_GetOrCreate_FirstWins() {
	store := NewArticleStore(s.db)

	first, created, err := store.GetOrCreate(s.ctx, s.testArticle("berlin-vote"))
	s.NoError(err)
	s.True(created)

	// Second insert with the same title must return the original row
	// unchanged, whatever the other fields say.
	dup := s.testArticle("berlin-vote")
	dup.Text = "different body"
	dup.Link = "/en/other-link"

	second, created, err := store.GetOrCreate(s.ctx, dup)
	s.NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)
	s.Equal("Body of berlin-vote", second.Text)
	s.Equal("/en/berlin-vote", second.Link)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestArticleStore_GetOrCreate_DateRoundTrip() {
	store := NewArticleStore(s.db)

	stored, _, err := store.GetOrCreate(s.ctx, s.testArticle("dated"))
	s.NoError(err)
	s.Equal(time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC), domain.Day(stored.Date))
}

func (s *PostgresIntegrationSuite) TestArticleStore_ListAll() {
	store := NewArticleStore(s.db)

	for _, title := range []string{"first", "second", "third"} {
		_, _, err := store.GetOrCreate(s.ctx, s.testArticle(title))
		s.NoError(err)
	}

	articles, err := store.ListAll(s.ctx)
	s.NoError(err)
	s.Len(articles, 3)
	s.Equal("first", articles[0].Title)
	s.Equal("third", articles[2].Title)
}

func (s *PostgresIntegrationSuite) TestArticleStore_ContainsTitle() {
	store := NewArticleStore(s.db)

	_, _, err := store.GetOrCreate(s.ctx, s.testArticle("known"))
	s.NoError(err)

	exists, err := store.ContainsTitle(s.ctx, "known")
	s.NoError(err)
	s.True(exists)

	exists, err = store.ContainsTitle(s.ctx, "unknown")
	s.NoError(err)
	s.False(exists)
}

func (s *PostgresIntegrationSuite) TestSubscriberStore_GetOrCreate() {
	store := NewSubscriberStore(s.db)

	sub, created, err := store.GetOrCreate(s.ctx, 42)
	s.NoError(err)
	s.True(created)
	s.Equal(int64(42), sub.ChatID)
	s.False(sub.SubscribedAt.IsZero())

	again, created, err := store.GetOrCreate(s.ctx, 42)
	s.NoError(err)
	s.False(created)
	s.Equal(sub.ID, again.ID)
}

func (s *PostgresIntegrationSuite) TestSubscriberStore_Delete() {
	store := NewSubscriberStore(s.db)

	_, _, err := store.GetOrCreate(s.ctx, 42)
	s.NoError(err)

	deleted, err := store.Delete(s.ctx, 42)
	s.NoError(err)
	s.True(deleted)

	deleted, err = store.Delete(s.ctx, 42)
	s.NoError(err)
	s.False(deleted)
}

func (s *PostgresIntegrationSuite) TestSubscriberStore_List() {
	store := NewSubscriberStore(s.db)

	for _, chatID := range []int64{1, 2, 3} {
		_, _, err := store.GetOrCreate(s.ctx, chatID)
		s.NoError(err)
	}

	subs, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(subs, 3)
	s.Equal(int64(1), subs[0].ChatID)
}

func (s *PostgresIntegrationSuite) TestIngestStateStore_GetNew() {
	store := NewIngestStateStore(s.db)

	state, err := store.Get(s.ctx, "new-source")
	s.NoError(err)
	s.NotNil(state)
	s.Equal("new-source", state.SourceID)
	s.True(state.LastRunAt.IsZero())
	s.Equal(int64(0), state.TotalIngested)
}

func (s *PostgresIntegrationSuite) TestIngestStateStore_UpdateAndGet() {
	store := NewIngestStateStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	state := &domain.IngestState{
		SourceID:      "dw",
		LastRunAt:     now,
		TotalIngested: 7,
	}
	s.NoError(store.Update(s.ctx, state))

	state.TotalIngested = 9
	s.NoError(store.Update(s.ctx, state))

	retrieved, err := store.Get(s.ctx, "dw")
	s.NoError(err)
	s.Equal(int64(9), retrieved.TotalIngested)
	s.WithinDuration(now, retrieved.LastRunAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestTransaction_RollbackOnError() {
	tm := NewTransactionManager(s.db)
	store := NewArticleStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, _, err := store.GetOrCreate(ctx, s.testArticle("rolled-back")); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles WHERE title = 'rolled-back'")
	s.NoError(err)
	s.Equal(0, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	store := NewArticleStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		_, _, err := store.GetOrCreate(ctx, s.testArticle("committed"))
		return err
	})
	s.NoError(err)

	exists, err := store.ContainsTitle(s.ctx, "committed")
	s.NoError(err)
	s.True(exists)
}
