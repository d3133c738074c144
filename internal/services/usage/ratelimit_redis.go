package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhub/pkg/errors"
)

// Lua script for atomic fixed-window check-and-increment.
// KEYS[1] = window key
// ARGV[1] = max requests per window
// ARGV[2] = window length in milliseconds
// Returns: {count, ttl_ms, limited}
const luaFixedWindowScript = `
local key = KEYS[1]
local max = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key))

if not count then
    redis.call('SET', key, 1, 'PX', window_ms)
    return {1, window_ms, 0}
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
    ttl = window_ms
end

if count < max then
    count = redis.call('INCR', key)
    return {count, ttl, 0}
end

return {count, ttl, 1}
`

// RedisWindowStore implements WindowStore on Redis so the window survives
// process restarts and is shared across instances. Same fixed-window
// semantics as MemoryWindowStore, enforced atomically by a Lua script.
type RedisWindowStore struct {
	client    *redis.Client
	keyPrefix string
	script    *redis.Script
}

// NewRedisWindowStore creates a Redis-backed fixed-window store
func NewRedisWindowStore(client *redis.Client) *RedisWindowStore {
	return &RedisWindowStore{
		client:    client,
		keyPrefix: "rate_limit:chat:",
		script:    redis.NewScript(luaFixedWindowScript),
	}
}

// Hit registers one request attempt
func (s *RedisWindowStore) Hit(ctx context.Context, identifier string, max int, window time.Duration) (WindowState, error) {
	result, err := s.script.Run(
		ctx,
		s.client,
		[]string{s.key(identifier)},
		max,
		window.Milliseconds(),
	).Int64Slice()

	if err != nil {
		return WindowState{}, errors.Wrap(err, "failed to execute fixed window script")
	}
	if len(result) != 3 {
		return WindowState{}, errors.Newf("unexpected fixed window script reply: %v", result)
	}

	return WindowState{
		Count:   int(result[0]),
		ResetAt: time.Now().Add(time.Duration(result[1]) * time.Millisecond),
		Limited: result[2] == 1,
	}, nil
}

// Reset evicts the window for an identifier
func (s *RedisWindowStore) Reset(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, s.key(identifier)).Err()
}

func (s *RedisWindowStore) key(identifier string) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, identifier)
}
