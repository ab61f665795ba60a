package repository

import (
	"context"
	"database/sql"
	"errors"

	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"
)

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

const contactColumns = `id, user_id, name, image_url, communication_log, pinned, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var imageURL sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&imageURL,
		&c.CommunicationLog,
		&c.Pinned,
		&c.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		c.ImageURL = &imageURL.String
	}
	c.CreatedAt = database.FromMillis(createdAt)
	c.UpdatedAt = database.FromMillis(updatedAt)
	return &c, nil
}

func (r *ContactRepository) ListContacts(ctx context.Context, userID string) ([]*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY pinned DESC, name ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// GetContact returns nil, nil when the contact does not exist.
func (r *ContactRepository) GetContact(ctx context.Context, userID, id string) (*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1 AND id = $2`

	c, err := scanContact(r.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) CreateContact(ctx context.Context, c *model.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, name, image_url, communication_log, pinned, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if c.CommunicationLog == nil {
		c.CommunicationLog = model.CommunicationLog{}
	}
	c.Version = 1

	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.ImageURL,
		c.CommunicationLog,
		c.Pinned,
		c.Version,
		database.ToMillis(c.CreatedAt),
		database.ToMillis(c.UpdatedAt),
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateContact writes the mutable fields of c when the stored version still
// equals c.Version, then advances c.Version. A stale or missing row yields
// ErrVersionConflict.
func (r *ContactRepository) UpdateContact(ctx context.Context, c *model.Contact) error {
	query := `
		UPDATE contacts
		SET name = $1, image_url = $2, communication_log = $3, pinned = $4, version = version + 1, updated_at = $5
		WHERE user_id = $6 AND id = $7 AND version = $8`

	res, err := r.DB.ExecContext(ctx, query,
		c.Name,
		c.ImageURL,
		c.CommunicationLog,
		c.Pinned,
		database.ToMillis(c.UpdatedAt),
		c.UserID,
		c.ID,
		c.Version,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	c.Version++
	return nil
}

// DeleteContact reports whether a row was removed.
func (r *ContactRepository) DeleteContact(ctx context.Context, userID, id string) (bool, error) {
	query := `DELETE FROM contacts WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
