package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"unipark/internal/db"
	apperr "unipark/internal/errors"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *db.User) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (name, email, phone, password_hash, role) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, role, created_at FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*db.User, error) {
	return r.get(ctx, `SELECT id, name, email, phone, password_hash, role, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg interface{}) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return &u, nil
}
