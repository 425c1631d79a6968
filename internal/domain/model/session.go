package model

import "time"

type Session struct {
	ID      string      `json:"sid"`
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expire"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
