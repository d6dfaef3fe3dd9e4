// Package repository reads the user metadata source: accounts registered
// through the signup form land in postgres together with their refresh
// tokens, and processed correlation ids are tracked so each account is
// collected once.
package repository

import (
	"context"
	"database/sql"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

// UserRepository is the postgres-backed metadata source.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// AllKnownUsers returns every registered account.
func (r *UserRepository) AllKnownUsers(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT correlation_id, refresh_token, COALESCE(email, ''), registered_at
		FROM collector_users
		ORDER BY registered_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.RefreshToken, &u.Email, &u.RegisteredAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// ProcessedIDs returns the set of correlation ids already collected.
func (r *UserRepository) ProcessedIDs(ctx context.Context) (map[string]struct{}, error) {
	const query = `SELECT correlation_id FROM collector_processed`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkProcessed records a successful collection for the correlation id.
func (r *UserRepository) MarkProcessed(ctx context.Context, correlationID string) error {
	const query = `
		INSERT INTO collector_processed (correlation_id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (correlation_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, correlationID)
	return err
}
