package database

import (
	"context"
	_ "embed"

	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by Migrate.
func Schema() string {
	return schemaSQL
}

// Migrate creates the tables and indexes if they do not exist. Every
// statement is idempotent, so it is safe to run on each start.
func Migrate(ctx context.Context, client *postgres.Client) error {
	if _, err := client.DB().ExecContext(ctx, schemaSQL); err != nil {
		return apperrors.NewInternalError("failed to apply schema", err)
	}
	return nil
}
