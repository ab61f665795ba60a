package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"commtracker-backend/internal/database"
	"commtracker-backend/internal/model"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		database.ToMillis(user.CreatedAt),
		database.ToMillis(user.UpdatedAt),
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `
		SELECT id, email, password_hash, created_at, updated_at, last_login
		FROM users
		WHERE email = $1`, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `
		SELECT id, email, password_hash, created_at, updated_at, last_login
		FROM users
		WHERE id = $1`, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var user model.User
	var createdAt, updatedAt int64
	var lastLogin sql.NullInt64

	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
		&lastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user.CreatedAt = database.FromMillis(createdAt)
	user.UpdatedAt = database.FromMillis(updatedAt)
	if lastLogin.Valid {
		t := database.FromMillis(lastLogin.Int64)
		user.LastLogin = &t
	}

	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, database.ToMillis(at), userID)
	return err
}
