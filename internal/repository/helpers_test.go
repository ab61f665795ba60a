package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(ctx, db, zap.NewNop()))
	return db
}

func createTestUser(t *testing.T, db *sql.DB, id string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{ID: id, Email: id + "@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(db).CreateUser(context.Background(), u))
	return u
}
