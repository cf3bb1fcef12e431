package db

import (
	"context"
	"time"
)

type UserRow struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

func (s *Store) CreateUser(ctx context.Context, u UserRow) (UserRow, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name, created_at`,
		u.ID, u.Email, u.Password, u.DisplayName)
	var out UserRow
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`, email)
	var out UserRow
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`, id)
	var out UserRow
	err := row.Scan(&out.ID, &out.Email, &out.Password, &out.DisplayName, &out.CreatedAt)
	return out, err
}
