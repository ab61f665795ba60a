package service

import (
	"context"
	"strings"
	"time"

	"commtracker-backend/internal/model"
	"commtracker-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dashboardLimit = 5
	statsDays      = 7
)

type DashboardService struct {
	CommRepo     *repository.CommunicationRepository
	SpendingRepo *repository.SpendingRepository
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewDashboardService(commRepo *repository.CommunicationRepository, spendingRepo *repository.SpendingRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		CommRepo:     commRepo,
		SpendingRepo: spendingRepo,
		Logger:       logger,
		Now:          time.Now,
	}
}

// Summary collects the latest communications and spending, last calendar
// month's spending total and per-day communication counts for the past week.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*model.DashboardSummary, error) {
	now := s.Now().UTC()
	summary := &model.DashboardSummary{
		PinnedCommunications: []*model.CommunicationRecord{},
		Communications:       []*model.CommunicationRecord{},
	}

	latest, err := s.CommRepo.LatestCommunications(ctx, userID, dashboardLimit)
	if err != nil {
		return nil, storeErr("latest communications", err)
	}
	for _, rec := range latest {
		if rec.Pinned {
			summary.PinnedCommunications = append(summary.PinnedCommunications, rec)
		} else {
			summary.Communications = append(summary.Communications, rec)
		}
	}

	summary.Spending, err = s.SpendingRepo.LatestSpending(ctx, userID, dashboardLimit)
	if err != nil {
		return nil, storeErr("latest spending", err)
	}

	from, to := previousMonth(now)
	total, err := s.SpendingRepo.SumSpending(ctx, userID, from, to)
	if err != nil {
		return nil, storeErr("sum spending", err)
	}
	summary.LastMonthSpending = model.FormatCents(total)

	summary.DailyStats, err = s.dailyStats(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// previousMonth returns [first day of last month, first day of this month).
func previousMonth(now time.Time) (time.Time, time.Time) {
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, -1, 0), to
}

func (s *DashboardService) dailyStats(ctx context.Context, userID string, now time.Time) ([]model.DailyStat, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(statsDays - 1))

	records, err := s.CommRepo.CommunicationsSince(ctx, userID, start)
	if err != nil {
		return nil, storeErr("communications since", err)
	}

	counts := make(map[string]int, statsDays)
	for _, rec := range records {
		counts[rec.Timestamp.UTC().Format(time.DateOnly)]++
	}

	stats := make([]model.DailyStat, 0, statsDays)
	for d := 0; d < statsDays; d++ {
		date := start.AddDate(0, 0, d).Format(time.DateOnly)
		stats = append(stats, model.DailyStat{Date: date, Count: counts[date]})
	}
	return stats, nil
}

// AddSpending records an amount in cents. A zero timestamp means now.
func (s *DashboardService) AddSpending(ctx context.Context, userID string, amountCents int64, description string, timestamp time.Time) (*model.SpendingEntry, error) {
	if amountCents <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	if timestamp.IsZero() {
		timestamp = s.Now()
	}

	entry := &model.SpendingEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountCents: amountCents,
		Description: strings.TrimSpace(description),
		Timestamp:   timestamp.UTC(),
	}
	if err := s.SpendingRepo.AddSpending(ctx, entry); err != nil {
		return nil, storeErr("add spending", err)
	}
	s.Logger.Debug("Spending recorded", zap.String("user_id", userID), zap.Int64("amount_cents", amountCents))
	return entry, nil
}
