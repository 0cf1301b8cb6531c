package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/storage"
)

const userColumns = `id, name, email, income_bracket, goal, lock_preference_days, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, email, income_bracket, goal, lock_preference_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.IncomeBracket, user.Goal, user.LockPreferenceDays)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// UpdateProfile overwrites the non-nil profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	const query = `
		UPDATE users SET
			name = COALESCE($2, name),
			income_bracket = COALESCE($3, income_bracket),
			goal = COALESCE($4, goal),
			lock_preference_days = COALESCE($5, lock_preference_days),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query,
		id, update.Name, update.IncomeBracket, update.Goal, update.LockPreferenceDays)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.IncomeBracket, &user.Goal,
		&user.LockPreferenceDays, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
