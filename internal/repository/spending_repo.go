package repository

import (
	"context"
	"database/sql"
	"time"

	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"
)

type SpendingRepository struct {
	DB *sql.DB
}

func NewSpendingRepository(db *sql.DB) *SpendingRepository {
	return &SpendingRepository{DB: db}
}

func (r *SpendingRepository) AddSpending(ctx context.Context, e *model.SpendingEntry) error {
	query := `
		INSERT INTO spending (id, user_id, amount_cents, description, timestamp)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, e.ID, e.UserID, e.AmountCents, e.Description, database.ToMillis(e.Timestamp))
	return err
}

func (r *SpendingRepository) LatestSpending(ctx context.Context, userID string, limit int) ([]*model.SpendingEntry, error) {
	query := `
		SELECT id, user_id, amount_cents, description, timestamp
		FROM spending
		WHERE user_id = $1
		ORDER BY timestamp DESC, id ASC
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.SpendingEntry{}
	for rows.Next() {
		var e model.SpendingEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.AmountCents, &e.Description, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = database.FromMillis(ts)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SumSpending totals the entries in [from, to).
func (r *SpendingRepository) SumSpending(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM spending
		WHERE user_id = $1 AND timestamp >= $2 AND timestamp < $3`

	var total int64
	err := r.DB.QueryRowContext(ctx, query, userID, database.ToMillis(from), database.ToMillis(to)).Scan(&total)
	return total, err
}
