package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleOwner = "owner"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	Role         string    `json:"role"`
	IsModerator  bool      `json:"isModerator"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleUser
}

// IsModeratorName reports whether username names the configured moderator.
func IsModeratorName(username, moderator string) bool {
	return moderator != "" && strings.EqualFold(strings.TrimSpace(username), moderator)
}

// SessionUser is the user snapshot kept in a session.
type SessionUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Role        string  `json:"role"`
	IsModerator bool    `json:"isModerator"`
	Email       *string `json:"email"`
}

func (u *User) SessionUser() SessionUser {
	return SessionUser{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsModerator: u.IsModerator,
		Email:       u.Email,
	}
}

// Actor identifies who performs a repository mutation.
type Actor struct {
	UserID      string
	IsModerator bool
}

func (u *SessionUser) Actor() Actor {
	return Actor{UserID: u.ID, IsModerator: u.IsModerator}
}
