package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateSite inserts a site row so site-scoped tables can reference it. Returns its id.
func CreateSite(t *testing.T, ctx context.Context, db *pgxpool.Pool, name string) int {
	t.Helper()
	var id int
	err := db.QueryRow(ctx, `INSERT INTO site (uid, name, timezone) VALUES ($1, $2, $3) RETURNING id`,
		uuid.NewString(), name, "Asia/Kolkata").Scan(&id)
	require.NoError(t, err)
	return id
}
