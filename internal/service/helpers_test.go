package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"commtracker-backend/internal/config"
	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

type notification struct {
	userID  string
	msgType string
	data    interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(userID, msgType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID, msgType, data})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	db        *sql.DB
	contacts  *ContactService
	dashboard *DashboardService
	auth      *AuthService
	notifier  *recordingNotifier
	userID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(ctx, db, zap.NewNop()))

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	spendingRepo := repository.NewSpendingRepository(db)

	f := &fixture{db: db, notifier: &recordingNotifier{}, userID: "user-1"}

	require.NoError(t, userRepo.CreateUser(ctx, &model.User{
		ID: f.userID, Email: "owner@example.com", PasswordHash: "x", CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	clock := func() time.Time { return fixedNow }

	f.contacts = NewContactService(contactRepo, commRepo, f.notifier, zap.NewNop())
	f.contacts.Now = clock

	f.dashboard = NewDashboardService(commRepo, spendingRepo, zap.NewNop())
	f.dashboard.Now = clock

	f.auth = NewAuthService(userRepo, &config.Config{JWTSecret: "test-secret"}, zap.NewNop())
	f.auth.BcryptCost = bcrypt.MinCost
	f.auth.Now = clock

	return f
}

func (f *fixture) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
