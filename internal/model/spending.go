package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SpendingEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// FormatCents renders an amount in cents as a decimal with two places.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var ErrInvalidAmount = errors.New("amount must be a decimal with at most two places")

// ParseCents parses a non-negative decimal amount such as "12", "12.5" or
// "12.50" into cents.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if (whole == "" && !hasFrac) || len(frac) > 2 || (hasFrac && frac == "") {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, ErrInvalidAmount
			}
		}
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (1<<63-1)/100-1 {
		return 0, ErrInvalidAmount
	}
	cents := int64(0)
	if frac != "" {
		frac += strings.Repeat("0", 2-len(frac))
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	return units*100 + cents, nil
}

type DashboardSummary struct {
	PinnedCommunications []*CommunicationRecord `json:"pinned_communications"`
	Communications       []*CommunicationRecord `json:"communications"`
	Spending             []*SpendingEntry       `json:"spending"`
	LastMonthSpending    string                 `json:"last_month_spending"`
	DailyStats           []DailyStat            `json:"daily_stats"`
}

type DailyStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
