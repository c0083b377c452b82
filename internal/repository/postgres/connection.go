package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix      string
	Users       string
	Chats       string
	Messages    string
	Votes       string
	Documents   string
	Suggestions string
	Streams     string
	Files       string
	FileBlobs   string
	Subscribers string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:      prefix,
		Users:       prefix + "users",
		Chats:       prefix + "chats",
		Messages:    prefix + "messages",
		Votes:       prefix + "votes",
		Documents:   prefix + "documents",
		Suggestions: prefix + "suggestions",
		Streams:     prefix + "streams",
		Files:       prefix + "files",
		FileBlobs:   prefix + "file_blobs",
		Subscribers: prefix + "subscribers",
	}
}

// All returns every table in dependency order (parents first).
func (t *TableNames) All() []string {
	return []string{
		t.Users, t.Chats, t.Messages, t.Votes, t.Documents, t.Suggestions,
		t.Streams, t.FileBlobs, t.Files, t.Subscribers,
	}
}

// CreateConnectionPool creates a pgx pool and verifies connectivity.
//
// PgBouncer in transaction pooling mode (port 6543) does not support prepared
// statements, so that port switches to QueryExecModeCacheDescribe unless the
// connection string already chose a mode via default_query_exec_mode.
// Prefixed table names are interpolated before statements are prepared, so
// each environment gets its own statement cache entries.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}

// NewID returns a storage id. Internal ids never contain a hyphen, which is
// what lets the resolver tell them apart from client-chosen UUIDs.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
