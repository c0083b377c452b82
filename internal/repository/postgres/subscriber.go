package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresSubscriberRepository implements repositories.SubscriberRepository
type PostgresSubscriberRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSubscriberRepository creates a new PostgresSubscriberRepository
func NewSubscriberRepository(config *RepositoryConfig) repositories.SubscriberRepository {
	return &PostgresSubscriberRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresSubscriberRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresSubscriberRepository) GetByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	return r.getBy(ctx, "token", token)
}

func (r *PostgresSubscriberRepository) getBy(ctx context.Context, column, value string) (*models.Subscriber, error) {
	query := fmt.Sprintf(`
		SELECT id, email, confirmed, token, created_at FROM %s WHERE %s = $1
	`, r.tables.Subscribers, column)

	var sub models.Subscriber
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, value).Scan(&sub.ID, &sub.Email, &sub.Confirmed, &sub.Token, &sub.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("subscriber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return &sub, nil
}

func (r *PostgresSubscriberRepository) CreateSubscriber(ctx context.Context, sub *models.Subscriber) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, confirmed, token) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.Subscribers)

	sub.ID = NewID()
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, sub.ID, sub.Email, sub.Confirmed, sub.Token).Scan(&sub.CreatedAt); err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{Message: "subscriber already exists", ResourceType: "subscriber"}
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

func (r *PostgresSubscriberRepository) UpdateToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, fmt.Sprintf(`UPDATE %s SET token = $2 WHERE id = $1`, r.tables.Subscribers), id, token)
}

func (r *PostgresSubscriberRepository) MarkConfirmed(ctx context.Context, id string) error {
	return r.exec(ctx, fmt.Sprintf(`UPDATE %s SET confirmed = true WHERE id = $1`, r.tables.Subscribers), id)
}

func (r *PostgresSubscriberRepository) DeleteSubscriber(ctx context.Context, id string) error {
	return r.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Subscribers), id)
}

func (r *PostgresSubscriberRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriber: %w", domain.ErrNotFound)
	}
	return nil
}
