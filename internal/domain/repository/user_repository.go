package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	// FindByIdentifier matches a username or email case-insensitively, or the
	// normalised phone exactly.
	FindByIdentifier(ctx context.Context, identifier, phone string) (*model.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateEmail(ctx context.Context, id string, email *string) error
	UpdatePhone(ctx context.Context, id string, phone *string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// SyncModerator flags the user named moderator and clears everyone else.
	SyncModerator(ctx context.Context, moderator string) error
	Delete(ctx context.Context, id string) (int64, error)
}

type sqlUserRepository struct {
	db      database.DBTX
	dialect database.Dialect
}

func NewSQLUserRepository(db database.DBTX, dialect database.Dialect) UserRepository {
	return &sqlUserRepository{db: db, dialect: dialect}
}

const userColumns = `id, username, password_hash, email, phone, role, is_moderator, created_at`

func (r *sqlUserRepository) Create(ctx context.Context, user *model.User) error {
	query := r.dialect.Rebind(`INSERT INTO users (id, username, password_hash, email, phone, role, is_moderator, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Email, user.Phone, user.Role, user.IsModerator, user.CreatedAt)
	if err != nil {
		if conflict := translateUserConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("sqlUserRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "FindByID", `WHERE id = ?`, id)
}

func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "FindByUsername", `WHERE LOWER(username) = LOWER(?)`, username)
}

func (r *sqlUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", `WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *sqlUserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.findOne(ctx, "FindByPhone", `WHERE phone = ?`, phone)
}

func (r *sqlUserRepository) FindByIdentifier(ctx context.Context, identifier, phone string) (*model.User, error) {
	return r.findOne(ctx, "FindByIdentifier",
		`WHERE LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?) OR phone = ? ORDER BY created_at LIMIT 1`,
		identifier, identifier, phone)
}

func (r *sqlUserRepository) findOne(ctx context.Context, op, where string, args ...any) (*model.User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users ` + where)
	user := &model.User{}
	var email, phone sql.NullString
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &email, &phone, &user.Role, &user.IsModerator, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlUserRepository.%s: %w", op, err)
	}
	user.Email = nullableString(email)
	user.Phone = nullableString(phone)
	return user, nil
}

func (r *sqlUserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	return r.updateColumn(ctx, "UpdateUsername", "username", id, username)
}

func (r *sqlUserRepository) UpdateEmail(ctx context.Context, id string, email *string) error {
	return r.updateColumn(ctx, "UpdateEmail", "email", id, email)
}

func (r *sqlUserRepository) UpdatePhone(ctx context.Context, id string, phone *string) error {
	return r.updateColumn(ctx, "UpdatePhone", "phone", id, phone)
}

func (r *sqlUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumn(ctx, "UpdatePassword", "password_hash", id, passwordHash)
}

// column is always one of the literals above.
func (r *sqlUserRepository) updateColumn(ctx context.Context, op, column, id string, value any) error {
	query := r.dialect.Rebind(`UPDATE users SET ` + column + ` = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		if conflict := translateUserConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("sqlUserRepository.%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlUserRepository.%s: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqlUserRepository) SyncModerator(ctx context.Context, moderator string) error {
	query := r.dialect.Rebind(`UPDATE users SET is_moderator = (? <> '' AND LOWER(username) = LOWER(?))`)
	if _, err := r.db.ExecContext(ctx, query, moderator, moderator); err != nil {
		return fmt.Errorf("sqlUserRepository.SyncModerator: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("sqlUserRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlUserRepository.Delete: %w", err)
	}
	return n, nil
}

// translateUserConflict maps a storage unique violation onto the same
// conflict the service pre-checks return.
func translateUserConflict(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch {
	case strings.Contains(constraint, "users_username_lower_idx"), strings.Contains(constraint, "users.username"):
		return common.ErrUsernameTaken
	case strings.Contains(constraint, "users_email_lower_idx"), strings.Contains(constraint, "users.email"):
		return common.ErrEmailTaken
	case strings.Contains(constraint, "users_phone_idx"), strings.Contains(constraint, "users.phone"):
		return common.ErrPhoneTaken
	}
	return fmt.Errorf("%s: %w", constraint, common.ErrConflict)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
