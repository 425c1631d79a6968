package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

var errInvalidCredentials = common.Unauthorized("invalid username or password")

type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionStore
	filter    ContentFilter
	moderator string
	ttl       time.Duration
	log       logging.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	filter ContentFilter,
	moderator string,
	ttl time.Duration,
	log logging.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		filter:    filter,
		moderator: moderator,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=100"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     string  `json:"role" validate:"required,oneof=owner user"`
	Email    *string `json:"email" validate:"omitempty,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	// Identifier is a username, email or phone. "username" is accepted for
	// older clients.
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(optionalString(req.Email))
	if err != nil {
		return nil, err
	}
	phone, err := normalizePhone(optionalString(req.Phone))
	if err != nil {
		return nil, err
	}
	if s.filter.IsProfane(req.Username) {
		return nil, common.Validation("username contains disallowed words")
	}

	if err := checkAvailable(ctx, s.users, "", req.Username, email, phone); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hashedPassword,
		Email:        email,
		Phone:        phone,
		Role:         req.Role,
		IsModerator:  model.IsModeratorName(req.Username, s.moderator),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// checkAvailable fails with the matching conflict when an account other than
// selfID already holds username, email or phone.
func checkAvailable(ctx context.Context, users repository.UserRepository, selfID, username string, email, phone *string) error {
	type lookup struct {
		value    string
		find     func(context.Context, string) (*model.User, error)
		conflict error
	}
	var checks []lookup
	if username != "" {
		checks = append(checks, lookup{username, users.FindByUsername, common.ErrUsernameTaken})
	}
	if email != nil {
		checks = append(checks, lookup{*email, users.FindByEmail, common.ErrEmailTaken})
	}
	if phone != nil {
		checks = append(checks, lookup{*phone, users.FindByPhone, common.ErrPhoneTaken})
	}
	for _, c := range checks {
		existing, err := c.find(ctx, c.value)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return err
		}
		if existing.ID != selfID {
			return c.conflict
		}
	}
	return nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.Session, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" || req.Password == "" {
		return nil, common.Validation("username and password are required")
	}

	// stored phones are normalised, so match the same form
	phone := identifier
	if p, err := normalizePhone(identifier); err == nil && p != nil {
		phone = *p
	}
	user, err := s.users.FindByIdentifier(ctx, identifier, phone)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.BurnPasswordCheck(req.Password)
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	if isMod := model.IsModeratorName(user.Username, s.moderator); isMod != user.IsModerator {
		if err := s.users.SyncModerator(ctx, s.moderator); err != nil {
			return nil, err
		}
		user.IsModerator = isMod
	}

	if n, err := s.sessions.PruneExpired(ctx); err != nil {
		s.log.Warn(ctx, "pruning expired sessions failed", "err", err)
	} else if n > 0 {
		s.log.Info(ctx, "pruned expired sessions", "count", n)
	}

	sess := &model.Session{
		ID:      uuid.NewString(),
		User:    user.SessionUser(),
		Expires: s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// SyncModerator aligns every stored moderator flag with the configured name.
func (s *AuthService) SyncModerator(ctx context.Context) error {
	return s.users.SyncModerator(ctx, s.moderator)
}
