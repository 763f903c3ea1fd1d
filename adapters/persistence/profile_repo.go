package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

// GetByUserID reads the user row and its certificates from one snapshot, so
// a concurrent update is observed either entirely or not at all.
func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, apperror.NewInternal("failed to begin read transaction", err)
	}
	defer tx.Rollback(ctx)

	p, err := r.scanProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if p.Certificates, err = listCertificates(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewInternal("failed to finish read transaction", err)
	}
	return p, nil
}

func (r *postgresProfileRepo) scanProfile(ctx context.Context, q querier, userID uuid.UUID) (*profile.Profile, error) {
	query, args, err := psql.Select(
		"id", "email", "first_name", "last_name", "phone", "address", "bio",
		"skills", "education", "profile_photo", "resume_file", "created_at", "updated_at",
	).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile query", err)
	}

	p := &profile.Profile{}
	var skillsBytes, educationBytes []byte
	err = q.QueryRow(ctx, query, args...).Scan(
		&p.UserID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.Address,
		&p.Bio,
		&skillsBytes,
		&educationBytes,
		&p.ProfilePhoto,
		&p.ResumeFile,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("User", userID.String())
		}
		return nil, apperror.NewInternal("failed to query profile", err)
	}

	if skillsBytes != nil {
		if err := json.Unmarshal(skillsBytes, &p.Skills); err != nil {
			r.logger.Warn("Failed to unmarshal skills", zap.String("user_id", userID.String()), zap.Error(err))
			p.Skills = nil
		}
	}
	if educationBytes != nil {
		if err := json.Unmarshal(educationBytes, &p.Education); err != nil {
			r.logger.Warn("Failed to unmarshal education", zap.String("user_id", userID.String()), zap.Error(err))
			p.Education = nil
		}
	}
	return p, nil
}

func (r *postgresProfileRepo) ListCertificates(ctx context.Context, userID uuid.UUID) ([]profile.Certificate, error) {
	return listCertificates(ctx, r.db, userID)
}

func listCertificates(ctx context.Context, q querier, userID uuid.UUID) ([]profile.Certificate, error) {
	query, args, err := psql.Select("id", "user_id", "certificate_name", "start_date", "end_date", "description", "created_at").
		From("certificates").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build certificate query", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query certificates", err)
	}
	defer rows.Close()

	certs := make([]profile.Certificate, 0)
	for rows.Next() {
		var c profile.Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.StartDate, &c.EndDate, &c.Description, &c.CreatedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan certificate row", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating certificate rows", err)
	}
	return certs, nil
}

// Update runs the scalar write, the certificate delete and every certificate
// insert in one transaction. Any failure rolls all of it back.
func (r *postgresProfileRepo) Update(ctx context.Context, upd *profile.Update) (*profile.UpdateResult, error) {
	skillsArg, err := jsonbArg(upd.Skills)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal skills", err)
	}
	educationArg, err := jsonbArg(upd.Education)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal education", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewInternal("could not start transaction", err)
	}
	defer tx.Rollback(ctx)

	var oldPhoto, oldResume *string
	err = tx.QueryRow(ctx,
		`SELECT profile_photo, resume_file FROM users WHERE id = $1 FOR UPDATE`,
		upd.UserID,
	).Scan(&oldPhoto, &oldResume)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("User", upd.UserID.String())
		}
		return nil, apperror.NewInternal("failed to lock user row", err)
	}

	query, args, err := psql.Update("users").
		Set("first_name", upd.FirstName).
		Set("last_name", upd.LastName).
		Set("phone", upd.Phone).
		Set("address", upd.Address).
		Set("bio", upd.Bio).
		Set("skills", skillsArg).
		Set("education", educationArg).
		Set("profile_photo", sq.Expr("COALESCE(?, profile_photo)", upd.ProfilePhoto)).
		Set("resume_file", sq.Expr("COALESCE(?, resume_file)", upd.ResumeFile)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": upd.UserID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile update", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, apperror.NewInternal("failed to update profile", err)
	}

	if upd.ReplaceCertificates {
		if _, err := tx.Exec(ctx, `DELETE FROM certificates WHERE user_id = $1`, upd.UserID); err != nil {
			return nil, apperror.NewInternal("failed to delete certificates", err)
		}
		for i, c := range upd.Certificates {
			_, err := tx.Exec(ctx,
				`INSERT INTO certificates (user_id, certificate_name, start_date, end_date, description)
				 VALUES ($1, $2, $3, $4, $5)`,
				upd.UserID, c.Name, c.StartDate, c.EndDate, c.Description,
			)
			if err != nil {
				return nil, apperror.NewInternal(fmt.Sprintf("failed to insert certificate %d", i+1), err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewInternal("failed to commit profile update", err)
	}

	return &profile.UpdateResult{
		ReplacedFiles: profile.Superseded(oldPhoto, oldResume, upd.ProfilePhoto, upd.ResumeFile),
	}, nil
}

func (r *postgresProfileRepo) Delete(ctx context.Context, userID uuid.UUID) (*profile.Deleted, error) {
	var photo, resume *string
	err := r.db.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING profile_photo, resume_file`,
		userID,
	).Scan(&photo, &resume)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("User", userID.String())
		}
		return nil, apperror.NewInternal("failed to delete user", err)
	}

	p := profile.Profile{ProfilePhoto: photo, ResumeFile: resume}
	return &profile.Deleted{Files: p.FilePaths()}, nil
}

// jsonbArg maps a nil slice to SQL NULL and anything else to its JSON text.
func jsonbArg[T any](v []T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
