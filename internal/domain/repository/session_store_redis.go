package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
)

const (
	sessionKeyPrefix     = "sess:"
	userSessionKeyPrefix = "user_sess:"
)

// RedisSessionStore keeps each session under sess:<sid> with a TTL matching
// its expiry, plus a user_sess:<userID> set used by DeleteByUser.
type RedisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, now: time.Now}
}

func sessionKey(sid string) string { return sessionKeyPrefix + sid }
func userSessionsKey(userID string) string { return userSessionKeyPrefix + userID }

func (s *RedisSessionStore) Save(ctx context.Context, sess *model.Session) error {
	ttl := sess.Expires.Sub(s.now())
	if ttl <= 0 {
		return common.Validation("session already expired")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("RedisSessionStore.Save: %w", err)
	}

	userKey := userSessionsKey(sess.User.ID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), data, ttl)
		pipe.SAdd(ctx, userKey, sess.ID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("RedisSessionStore.Save: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sid string) (*model.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("RedisSessionStore.Get: %w", err)
	}
	sess := &model.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("RedisSessionStore.Get: decode session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, common.ErrNotFound
	}
	return sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sid string) error {
	sess, err := s.Get(ctx, sid)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("RedisSessionStore.Delete: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sid))
		if sess != nil {
			pipe.SRem(ctx, userSessionsKey(sess.User.ID), sid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("RedisSessionStore.Delete: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) ListByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	sids, err := s.rdb.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("RedisSessionStore.ListByUser: %w", err)
	}
	var sessions []*model.Session
	for _, sid := range sids {
		sess, err := s.Get(ctx, sid)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("RedisSessionStore.ListByUser: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *RedisSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	userKey := userSessionsKey(userID)
	sids, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("RedisSessionStore.DeleteByUser: %w", err)
	}
	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, sessionKey(sid))
	}
	keys = append(keys, userKey)
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("RedisSessionStore.DeleteByUser: %w", err)
	}
	return nil
}

// PruneExpired is a no-op: Redis expires session keys on its own.
func (s *RedisSessionStore) PruneExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
