package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
)

// SessionStore keeps server-side sessions. Get hides expired sessions and
// reports them as common.ErrNotFound.
type SessionStore interface {
	Save(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, sid string) (*model.Session, error)
	Delete(ctx context.Context, sid string) error
	// ListByUser returns the user's unexpired sessions.
	ListByUser(ctx context.Context, userID string) ([]*model.Session, error)
	DeleteByUser(ctx context.Context, userID string) error
	PruneExpired(ctx context.Context) (int64, error)
}

// TxSessionStore is a session store living in the relational database, so
// its writes can join a transaction.
type TxSessionStore interface {
	SessionStore
	Bind(db database.DBTX) SessionStore
}

type SQLSessionStore struct {
	db      database.DBTX
	dialect database.Dialect
	now     func() time.Time
}

func NewSQLSessionStore(db database.DBTX, dialect database.Dialect) *SQLSessionStore {
	return &SQLSessionStore{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLSessionStore) Bind(db database.DBTX) SessionStore {
	return &SQLSessionStore{db: db, dialect: s.dialect, now: s.now}
}

// session timestamps are stored as UTC seconds so both dialects compare them alike
func sessionTime(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

func (s *SQLSessionStore) Save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("SQLSessionStore.Save: %w", err)
	}
	query := s.dialect.Rebind(`INSERT INTO user_sessions (sid, user_id, sess, expire) VALUES (?, ?, ?, ?)
	          ON CONFLICT (sid) DO UPDATE SET user_id = excluded.user_id, sess = excluded.sess, expire = excluded.expire`)
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.User.ID, string(data), sessionTime(sess.Expires)); err != nil {
		return fmt.Errorf("SQLSessionStore.Save: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) Get(ctx context.Context, sid string) (*model.Session, error) {
	query := s.dialect.Rebind(`SELECT sess, expire FROM user_sessions WHERE sid = ? AND expire > ?`)
	var data string
	sess := &model.Session{ID: sid}
	err := s.db.QueryRowContext(ctx, query, sid, sessionTime(s.now())).Scan(&data, &sess.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("SQLSessionStore.Get: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &sess.User); err != nil {
		return nil, fmt.Errorf("SQLSessionStore.Get: decode session: %w", err)
	}
	return sess, nil
}

func (s *SQLSessionStore) Delete(ctx context.Context, sid string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM user_sessions WHERE sid = ?`), sid); err != nil {
		return fmt.Errorf("SQLSessionStore.Delete: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) ListByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	query := s.dialect.Rebind(`SELECT sid, sess, expire FROM user_sessions WHERE user_id = ? AND expire > ?`)
	rows, err := s.db.QueryContext(ctx, query, userID, sessionTime(s.now()))
	if err != nil {
		return nil, fmt.Errorf("SQLSessionStore.ListByUser: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var data string
		sess := &model.Session{}
		if err := rows.Scan(&sess.ID, &data, &sess.Expires); err != nil {
			return nil, fmt.Errorf("SQLSessionStore.ListByUser: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sess.User); err != nil {
			return nil, fmt.Errorf("SQLSessionStore.ListByUser: decode session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SQLSessionStore.ListByUser: %w", err)
	}
	return sessions, nil
}

func (s *SQLSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM user_sessions WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("SQLSessionStore.DeleteByUser: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) PruneExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM user_sessions WHERE expire <= ?`), sessionTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("SQLSessionStore.PruneExpired: %w", err)
	}
	return res.RowsAffected()
}
