package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sousadrivikis20-lab/Alugabv/internal/app/authz"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/blobstore"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

var errUserNotFound = common.NotFound("user not found")

// UserService handles account self-service. Every method acts on behalf of
// the session owner and refreshes the session snapshots it changes.
type UserService struct {
	db       *database.DB
	repos    *repository.Manager
	sessions repository.SessionStore
	blobs    blobstore.Store
	filter   ContentFilter
	log      logging.Logger
}

func NewUserService(
	db *database.DB,
	repos *repository.Manager,
	sessions repository.SessionStore,
	blobs blobstore.Store,
	filter ContentFilter,
	log logging.Logger,
) *UserService {
	return &UserService{db: db, repos: repos, sessions: sessions, blobs: blobs, filter: filter, log: log}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

func (s *UserService) users() repository.UserRepository {
	return s.repos.Users(s.db)
}

func (s *UserService) findUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users().FindByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, errUserNotFound
	}
	return user, err
}

// ChangeUsername renames the user and every listing they own in one transaction.
func (s *UserService) ChangeUsername(ctx context.Context, sess *model.Session, targetID, newName string) (string, error) {
	if err := authz.CanManageAccount(sessionUser(sess), targetID); err != nil {
		return "", err
	}
	newName = strings.TrimSpace(newName)
	switch n := utf8.RuneCountInString(newName); {
	case n < 3:
		return "", common.Validation("username must be at least 3 characters")
	case n > 100:
		return "", common.Validation("username must be at most 100 characters")
	}
	if s.filter.IsProfane(newName) {
		return "", common.Validation("username contains disallowed words")
	}
	if _, err := s.findUser(ctx, targetID); err != nil {
		return "", err
	}
	if err := checkAvailable(ctx, s.users(), targetID, newName, nil, nil); err != nil {
		return "", err
	}

	err := database.WithTx(ctx, s.db.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := s.repos.Users(tx).UpdateUsername(ctx, targetID, newName); err != nil {
			return err
		}
		_, err := s.repos.Properties(tx).RenameOwner(ctx, targetID, newName)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to rename user: %w", err)
	}

	s.refreshSessions(ctx, sess, func(u *model.SessionUser) { u.Username = newName })
	s.log.Info(ctx, "username changed", "user_id", targetID)
	return newName, nil
}

// ChangeEmail sets the email; an empty value clears it.
func (s *UserService) ChangeEmail(ctx context.Context, sess *model.Session, targetID, raw string) (*string, error) {
	if err := authz.CanManageAccount(sessionUser(sess), targetID); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(raw)
	if err != nil {
		return nil, err
	}
	if email != nil {
		if err := checkAvailable(ctx, s.users(), targetID, "", email, nil); err != nil {
			return nil, err
		}
	}
	if err := s.users().UpdateEmail(ctx, targetID, email); err != nil {
		return nil, fmt.Errorf("failed to update email: %w", err)
	}
	s.refreshSessions(ctx, sess, func(u *model.SessionUser) { u.Email = email })
	return email, nil
}

// ChangePhone sets the phone; an empty value clears it.
func (s *UserService) ChangePhone(ctx context.Context, sess *model.Session, targetID, raw string) (*string, error) {
	if err := authz.CanManageAccount(sessionUser(sess), targetID); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(raw)
	if err != nil {
		return nil, err
	}
	if phone != nil {
		if err := checkAvailable(ctx, s.users(), targetID, "", nil, phone); err != nil {
			return nil, err
		}
	}
	if err := s.users().UpdatePhone(ctx, targetID, phone); err != nil {
		return nil, fmt.Errorf("failed to update phone: %w", err)
	}
	return phone, nil
}

func (s *UserService) ChangePassword(ctx context.Context, sess *model.Session, targetID string, req ChangePasswordRequest) error {
	if err := authz.CanManageAccount(sessionUser(sess), targetID); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	user, err := s.findUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !security.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return common.Unauthorized("current password is incorrect")
	}
	hashed, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users().UpdatePassword(ctx, targetID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.log.Info(ctx, "password changed", "user_id", targetID)
	return nil
}

// DeleteAccount removes the user with their listings and sessions. The rows go
// in one transaction; stored images are reclaimed after commit.
func (s *UserService) DeleteAccount(ctx context.Context, sess *model.Session, targetID string) error {
	if err := authz.CanDeleteAccount(sessionUser(sess), targetID); err != nil {
		return err
	}
	if _, err := s.findUser(ctx, targetID); err != nil {
		return err
	}

	txSessions, sessionsInTx := s.sessions.(repository.TxSessionStore)
	var owned []model.PropertyImages
	err := database.WithTx(ctx, s.db.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		props := s.repos.Properties(tx)
		var err error
		if owned, err = props.ListByOwner(ctx, targetID); err != nil {
			return err
		}
		if _, err := props.DeleteByOwner(ctx, targetID); err != nil {
			return err
		}
		if sessionsInTx {
			if err := txSessions.Bind(tx).DeleteByUser(ctx, targetID); err != nil {
				return err
			}
		}
		n, err := s.repos.Users(tx).Delete(ctx, targetID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errUserNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if !sessionsInTx {
		if err := s.sessions.DeleteByUser(ctx, targetID); err != nil {
			s.log.Error(ctx, "failed to drop sessions of deleted user", "user_id", targetID, "err", err)
		}
	}
	for _, p := range owned {
		if len(p.Images) == 0 {
			continue
		}
		if err := s.blobs.DeleteMany(ctx, p.Images); err != nil {
			s.log.Warn(ctx, "failed to reclaim listing images", "property_id", p.ID, "err", err)
		}
	}
	s.log.Info(ctx, "account deleted", "user_id", targetID, "properties", len(owned))
	return nil
}

// refreshSessions applies change to sess and to every other live session of
// the same user. A failed rewrite leaves that snapshot stale until its next login.
func (s *UserService) refreshSessions(ctx context.Context, sess *model.Session, change func(*model.SessionUser)) {
	change(&sess.User)
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn(ctx, "failed to refresh session", "user_id", sess.User.ID, "err", err)
	}

	others, err := s.sessions.ListByUser(ctx, sess.User.ID)
	if err != nil {
		s.log.Warn(ctx, "failed to list sessions", "user_id", sess.User.ID, "err", err)
		return
	}
	for _, other := range others {
		if other.ID == sess.ID {
			continue
		}
		change(&other.User)
		if err := s.sessions.Save(ctx, other); err != nil {
			s.log.Warn(ctx, "failed to refresh session", "user_id", sess.User.ID, "err", err)
		}
	}
}

func sessionUser(sess *model.Session) *model.SessionUser {
	if sess == nil {
		return nil
	}
	return &sess.User
}
