package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_digest/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = "id, title, link, body, published_on, created_at"

// GetOrCreate inserts the article unless a row with the same title already
// exists, in which case the existing row is returned unchanged. The
// ON CONFLICT DO NOTHING path makes the check-and-create atomic: even if two
// runs race on the same title, at most one row is ever created.
func (s *ArticleStore) GetOrCreate(ctx context.Context, article *domain.Article) (domain.Article, bool, error) {
	exec := GetExecutor(ctx, s.db)

	insert := `
		INSERT INTO articles (title, link, body, published_on)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO NOTHING
		RETURNING ` + articleColumns

	var stored domain.Article
	err := sqlx.GetContext(ctx, exec, &stored, insert,
		article.Title,
		article.Link,
		article.Text,
		article.Date,
	)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, false, fmt.Errorf("insert article: %w", err)
	}

	// Conflict: the title is already stored, fetch the original row.
	query := `SELECT ` + articleColumns + ` FROM articles WHERE title = $1`
	if err := sqlx.GetContext(ctx, exec, &stored, query, article.Title); err != nil {
		return domain.Article{}, false, fmt.Errorf("select existing article: %w", err)
	}

	return stored, false, nil
}

// ListAll returns every stored article. The ingestion pipeline uses it for
// membership testing before deciding whether a body fetch is needed.
func (s *ArticleStore) ListAll(ctx context.Context) ([]domain.Article, error) {
	exec := GetExecutor(ctx, s.db)

	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY id`

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, exec, &articles, query); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// ContainsTitle reports whether an article with that exact title exists.
func (s *ArticleStore) ContainsTitle(ctx context.Context, title string) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE title = $1)`, title)
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return exists, nil
}
