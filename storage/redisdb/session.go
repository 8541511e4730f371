// Package redisdb stores session state in redis.
package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
)

// Open connects to redis and pings it.
func Open(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// SessionStore keeps each session in a redis hash (`session:<sid>`) expiring `ttl` after its last write.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func (s *SessionStore) Load(ctx context.Context, sid, key string, dst interface{}) (bool, error) {
	b, err := s.client.HGet(ctx, sessionKey(sid), key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "loading session value %q", key)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, errors.Wrapf(err, "decoding session value %q", key)
	}
	return true, nil
}

func (s *SessionStore) Save(ctx context.Context, sid, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding session value %q", key)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(sid), key, b)
		if s.ttl > 0 {
			pipe.Expire(ctx, sessionKey(sid), s.ttl)
		}
		return nil
	})
	return errors.Wrapf(err, "saving session value %q", key)
}

func (s *SessionStore) Delete(ctx context.Context, sid, key string) error {
	return errors.Wrapf(s.client.HDel(ctx, sessionKey(sid), key).Err(), "deleting session value %q", key)
}

func (s *SessionStore) Clear(ctx context.Context, sid string) error {
	return errors.Wrap(s.client.Del(ctx, sessionKey(sid)).Err(), "clearing session")
}
