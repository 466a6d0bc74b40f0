package userrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	querybuilder "gitlab.com/magneto-ui.net/internal/utils"
)

var _ secondary.UserPort = &userRepo{}

type userRepo struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) secondary.UserPort {
	return &userRepo{
		db:     db,
		logger: logger,
		schema: schema,
	}
}

func (u userRepo) Create(ctx context.Context, user *domain.Users) error {
	userTbl := domain.GetUserTable()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	query, args := querybuilder.NewQueryBuilder(u.schema).
		Insert(userTbl.Columns()...).
		Into(userTbl.GetTableName()).
		Values(
			user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
			user.AuthProvider, user.GoogleID, user.IsVerified,
			user.VerificationCode, user.VerificationExpiresAt,
			user.ResetToken, user.ResetExpiresAt,
			user.CreatedAt, user.UpdatedAt,
		).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, u.db).ExecContext(ctx, query, args...); err != nil {
		u.logger.Error("Failed to insert user", "email", user.Email, "error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Save overwrites every mutable column of an existing user
func (u userRepo) Save(ctx context.Context, user *domain.Users) error {
	userTbl := domain.GetUserTable()
	user.UpdatedAt = time.Now().UTC()

	query, args := querybuilder.NewQueryBuilder(u.schema).
		Update(userTbl.GetTableName(), querybuilder.UpdateData{
			userTbl.Email:                 user.Email,
			userTbl.PasswordHash:          user.PasswordHash,
			userTbl.FirstName:             user.FirstName,
			userTbl.LastName:              user.LastName,
			userTbl.AuthProvider:          user.AuthProvider,
			userTbl.GoogleID:              user.GoogleID,
			userTbl.IsVerified:            user.IsVerified,
			userTbl.VerificationCode:      user.VerificationCode,
			userTbl.VerificationExpiresAt: user.VerificationExpiresAt,
			userTbl.ResetToken:            user.ResetToken,
			userTbl.ResetExpiresAt:        user.ResetExpiresAt,
			userTbl.UpdatedAt:             user.UpdatedAt,
		}).
		Where(fmt.Sprintf("%s = ?", userTbl.ID), user.ID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	res, err := dbx.Conn(ctx, u.db).ExecContext(ctx, query, args...)
	if err != nil {
		u.logger.Error("Failed to update user", "userID", user.ID, "error", err)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update user %s: no matching row", user.ID)
	}
	return nil
}

func (u userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	userTbl := domain.GetUserTable()
	query, args := querybuilder.NewQueryBuilder(u.schema).
		Delete(userTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", userTbl.ID), id).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, u.db).ExecContext(ctx, query, args...); err != nil {
		u.logger.Error("Failed to delete user", "userID", id, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (u userRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().ID, id)
}

func (u userRepo) GetByEmail(ctx context.Context, email string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().Email, email)
}

func (u userRepo) GetByGoogleID(ctx context.Context, googleID string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().GoogleID, googleID)
}

func (u userRepo) GetByResetToken(ctx context.Context, token string) (*domain.Users, error) {
	return u.getBy(ctx, domain.GetUserTable().ResetToken, token)
}

func (u userRepo) getBy(ctx context.Context, col string, value interface{}) (*domain.Users, error) {
	userTbl := domain.GetUserTable()
	query, args := querybuilder.NewQueryBuilder(u.schema).
		Select(userTbl.Columns()...).
		From(userTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", col), value).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var user domain.Users
	err := dbx.Conn(ctx, u.db).GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		u.logger.Error("Failed to get user", "by", col, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
