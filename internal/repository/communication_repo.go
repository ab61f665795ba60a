package repository

import (
	"context"
	"database/sql"
	"time"

	"commtracker-backend/internal/commlog"
	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"
)

// CommunicationRepository stores the dashboard's communication feed.
type CommunicationRepository struct {
	DB *sql.DB
}

func NewCommunicationRepository(db *sql.DB) *CommunicationRepository {
	return &CommunicationRepository{DB: db}
}

func (r *CommunicationRepository) LogCommunication(ctx context.Context, rec *model.CommunicationRecord) error {
	query := `
		INSERT INTO communications (id, user_id, contact_id, contact_name, kind, timestamp, pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.ContactID,
		rec.ContactName,
		string(rec.Kind),
		database.ToMillis(rec.Timestamp),
		rec.Pinned,
	)
	return err
}

// LatestCommunications returns up to limit records, newest first.
func (r *CommunicationRepository) LatestCommunications(ctx context.Context, userID string, limit int) ([]*model.CommunicationRecord, error) {
	query := `
		SELECT id, user_id, contact_id, contact_name, kind, timestamp, pinned
		FROM communications
		WHERE user_id = $1
		ORDER BY timestamp DESC, id ASC
		LIMIT $2`
	return r.query(ctx, query, userID, limit)
}

// CommunicationsSince returns the records at or after since, newest first.
func (r *CommunicationRepository) CommunicationsSince(ctx context.Context, userID string, since time.Time) ([]*model.CommunicationRecord, error) {
	query := `
		SELECT id, user_id, contact_id, contact_name, kind, timestamp, pinned
		FROM communications
		WHERE user_id = $1 AND timestamp >= $2
		ORDER BY timestamp DESC, id ASC`
	return r.query(ctx, query, userID, database.ToMillis(since))
}

func (r *CommunicationRepository) DeleteByContact(ctx context.Context, userID, contactID string) error {
	query := `DELETE FROM communications WHERE user_id = $1 AND contact_id = $2`
	_, err := r.DB.ExecContext(ctx, query, userID, contactID)
	return err
}

// DeleteEntry removes one feed record of contactID matching the event's kind
// and timestamp. It is a no-op when none matches.
func (r *CommunicationRepository) DeleteEntry(ctx context.Context, userID, contactID string, kind commlog.Kind, at time.Time) error {
	query := `
		DELETE FROM communications
		WHERE id = (
			SELECT id FROM communications
			WHERE user_id = $1 AND contact_id = $2 AND kind = $3 AND timestamp = $4
			ORDER BY id
			LIMIT 1
		)`
	_, err := r.DB.ExecContext(ctx, query, userID, contactID, string(kind), database.ToMillis(at))
	return err
}

func (r *CommunicationRepository) query(ctx context.Context, query string, args ...any) ([]*model.CommunicationRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.CommunicationRecord{}
	for rows.Next() {
		var rec model.CommunicationRecord
		var kind string
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ContactID, &rec.ContactName, &kind, &ts, &rec.Pinned); err != nil {
			return nil, err
		}
		rec.Kind = commlog.Kind(kind)
		rec.Timestamp = database.FromMillis(ts)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
