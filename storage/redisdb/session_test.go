package redisdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
)

// Runs against a live redis only: TEST_REDIS_ADDRESS=localhost:6379 go test ./storage/redisdb
func TestSessionStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}

	ctx := context.Background()
	client, err := Open(ctx, core.RedisConfig{Address: addr, DB: 15})
	require.NoError(t, err)
	defer client.Close()

	s := NewSessionStore(client, time.Minute)
	sid := session.NewID()
	defer s.Clear(ctx, sid)

	var got map[string]bool
	ok, err := s.Load(ctx, sid, "teachers", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, sid, "teachers", map[string]bool{"open_dialog": true}))
	ok, err = s.Load(ctx, sid, "teachers", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got["open_dialog"])

	ttl, err := client.TTL(ctx, sessionKey(sid)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, s.Delete(ctx, sid, "teachers"))
	ok, _ = s.Load(ctx, sid, "teachers", &got)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, sid, "other", 1))
	require.NoError(t, s.Clear(ctx, sid))
	var n int
	ok, _ = s.Load(ctx, sid, "other", &n)
	assert.False(t, ok)
}
