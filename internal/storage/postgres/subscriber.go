package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_digest/internal/domain"
)

type SubscriberStore struct {
	db *sqlx.DB
}

func NewSubscriberStore(db *sqlx.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

const subscriberColumns = "id, chat_id, subscribed_at"

// GetOrCreate subscribes a chat, returning the existing row when the chat is
// already subscribed. Atomic in the same way as the article store.
func (s *SubscriberStore) GetOrCreate(ctx context.Context, chatID int64) (domain.Subscriber, bool, error) {
	exec := GetExecutor(ctx, s.db)

	insert := `
		INSERT INTO subscribers (chat_id)
		VALUES ($1)
		ON CONFLICT (chat_id) DO NOTHING
		RETURNING ` + subscriberColumns

	var sub domain.Subscriber
	err := sqlx.GetContext(ctx, exec, &sub, insert, chatID)
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Subscriber{}, false, fmt.Errorf("insert subscriber: %w", err)
	}

	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE chat_id = $1`
	if err := sqlx.GetContext(ctx, exec, &sub, query, chatID); err != nil {
		return domain.Subscriber{}, false, fmt.Errorf("select existing subscriber: %w", err)
	}

	return sub, false, nil
}

// Delete unsubscribes a chat; deleted is false when it was not subscribed.
func (s *SubscriberStore) Delete(ctx context.Context, chatID int64) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	res, err := exec.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("delete subscriber: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns all subscribers in subscription order.
func (s *SubscriberStore) List(ctx context.Context) ([]domain.Subscriber, error) {
	exec := GetExecutor(ctx, s.db)

	var subs []domain.Subscriber
	query := `SELECT ` + subscriberColumns + ` FROM subscribers ORDER BY id`
	if err := sqlx.SelectContext(ctx, exec, &subs, query); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subs, nil
}
