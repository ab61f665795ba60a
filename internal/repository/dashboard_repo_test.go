package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"commtracker-backend/internal/commlog"
	"commtracker-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunicationRepository_LatestAndSince(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1")
	repo := NewCommunicationRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.LogCommunication(ctx, &model.CommunicationRecord{
			ID:          fmt.Sprintf("r%d", i),
			UserID:      "u1",
			ContactID:   "bob",
			ContactName: "Bob",
			Kind:        commlog.KindMessage,
			Timestamp:   base.Add(time.Duration(i) * 24 * time.Hour),
			Pinned:      i%2 == 0,
		}))
	}

	latest, err := repo.LatestCommunications(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, latest, 5)
	assert.Equal(t, "r6", latest[0].ID)
	assert.Equal(t, "r2", latest[4].ID)
	assert.True(t, latest[0].Pinned)
	assert.Equal(t, commlog.KindMessage, latest[0].Kind)

	since, err := repo.CommunicationsSince(ctx, "u1", base.Add(5*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 2)

	require.NoError(t, repo.DeleteByContact(ctx, "u1", "bob"))
	latest, err = repo.LatestCommunications(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestCommunicationRepository_DeleteEntry(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1")
	repo := NewCommunicationRepository(db)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.LogCommunication(ctx, &model.CommunicationRecord{
			ID: fmt.Sprintf("c%d", i), UserID: "u1", ContactID: "bob", ContactName: "Bob",
			Kind: commlog.KindCall, Timestamp: at,
		}))
	}

	require.NoError(t, repo.DeleteEntry(ctx, "u1", "bob", commlog.KindMessage, at))
	require.NoError(t, repo.DeleteEntry(ctx, "u1", "bob", commlog.KindCall, at.Add(time.Hour)))
	latest, err := repo.LatestCommunications(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, latest, 2, "non-matching deletes are no-ops")

	require.NoError(t, repo.DeleteEntry(ctx, "u1", "bob", commlog.KindCall, at))
	latest, err = repo.LatestCommunications(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, latest, 1, "only one of two identical records is removed")
}

func TestSpendingRepository(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1")
	repo := NewSpendingRepository(db)
	ctx := context.Background()

	entries := []struct {
		id    string
		cents int64
		at    time.Time
	}{
		{"s1", 1000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"s2", 250, time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)},
		{"s3", 9999, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"s4", 500, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		require.NoError(t, repo.AddSpending(ctx, &model.SpendingEntry{ID: e.id, UserID: "u1", AmountCents: e.cents, Timestamp: e.at}))
	}

	total, err := repo.SumSpending(ctx, "u1",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1250), total)

	latest, err := repo.LatestSpending(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "s3", latest[0].ID)
	assert.Equal(t, "s2", latest[1].ID)

	empty, err := repo.SumSpending(ctx, "nobody", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, empty)
}
