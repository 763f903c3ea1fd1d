package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

const pgUniqueViolation = "23505"

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, log logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: log}
}

func (r *postgresUserRepo) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewConflict("User", "email", u.Email)
		}
		return apperror.NewInternal("failed to insert user", err)
	}
	return nil
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(ctx, email, query, email)
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, id.String(), query, id)
}

func (r *postgresUserRepo) scanOne(ctx context.Context, ident, query string, arg any) (*user.User, error) {
	u := &user.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("User", ident)
		}
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return u, nil
}

func (r *postgresUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return apperror.NewInternal("failed to update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("User", id.String())
	}
	return nil
}
