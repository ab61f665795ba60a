package service

import (
	"context"
	"testing"
	"time"

	"commtracker-backend/internal/commlog"
	"commtracker-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Bob", "Carol"} {
		_, err := f.contacts.CreateContact(ctx, f.userID, name, nil)
		require.NoError(t, err)
	}
	pinned := true
	_, err := f.contacts.UpdateContact(ctx, f.userID, "carol", model.ContactPatch{Pinned: &pinned}, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.contacts.LogCommunication(ctx, f.userID, "bob", commlog.KindCall, fixedNow.Add(time.Duration(-i)*24*time.Hour))
		require.NoError(t, err)
	}
	_, err = f.contacts.LogCommunication(ctx, f.userID, "carol", commlog.KindMessage, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	_, err = f.contacts.LogCommunication(ctx, f.userID, "carol", commlog.KindMessage, fixedNow.Add(-30*24*time.Hour))
	require.NoError(t, err)

	spending := []struct {
		cents int64
		at    time.Time
	}{
		{1500, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)},
		{250, time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC)},
		{9900, time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC)},
		{700, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, s := range spending {
		_, err := f.dashboard.AddSpending(ctx, f.userID, s.cents, "lunch", s.at)
		require.NoError(t, err)
	}

	summary, err := f.dashboard.Summary(ctx, f.userID)
	require.NoError(t, err)

	require.Len(t, summary.PinnedCommunications, 1)
	assert.Equal(t, "Carol", summary.PinnedCommunications[0].ContactName)
	assert.Len(t, summary.Communications, 4)
	assert.Equal(t, "Bob", summary.Communications[0].ContactName)

	assert.Len(t, summary.Spending, 4)
	assert.Equal(t, int64(700), summary.Spending[0].AmountCents)
	assert.Equal(t, "17.50", summary.LastMonthSpending, "April of last year is excluded")

	require.Len(t, summary.DailyStats, 7)
	assert.Equal(t, "2024-05-09", summary.DailyStats[0].Date)
	assert.Equal(t, "2024-05-15", summary.DailyStats[6].Date)
	assert.Equal(t, 2, summary.DailyStats[6].Count)
	assert.Equal(t, 1, summary.DailyStats[5].Count)
	assert.Equal(t, 0, summary.DailyStats[0].Count)
}

func TestDashboardSummary_Empty(t *testing.T) {
	f := newFixture(t)

	summary, err := f.dashboard.Summary(context.Background(), f.userID)
	require.NoError(t, err)
	assert.NotNil(t, summary.PinnedCommunications)
	assert.NotNil(t, summary.Communications)
	assert.NotNil(t, summary.Spending)
	assert.Equal(t, "0.00", summary.LastMonthSpending)
}

func TestAddSpending_Validation(t *testing.T) {
	f := newFixture(t)

	for _, cents := range []int64{0, -100} {
		_, err := f.dashboard.AddSpending(context.Background(), f.userID, cents, "", time.Time{})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	assert.Zero(t, f.countRows(t, "spending"))
}

func TestPreviousMonth(t *testing.T) {
	from, to := previousMonth(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), to)
}
