package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL with table names prefixed.
func Schema(tables *TableNames) string {
	return strings.ReplaceAll(schemaSQL, "{{prefix}}", tables.Prefix)
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if _, err := pool.Exec(ctx, Schema(tables)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// DropAll removes every table owned by the prefix.
func DropAll(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	// Children first
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, all[i])); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}
