package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rentalhub/pkg/logger"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + (intervals * refill_tokens))
    last_refill = last_refill + (intervals * interval_ms)
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RedisLimiter shares token buckets across instances through a Lua script.
// Redis failures fail open.
type RedisLimiter struct {
	client   redis.Scripter
	policies map[string]Policy
	prefix   string
	now      func() time.Time
}

func NewRedisLimiter(client redis.Scripter, policies map[string]Policy) *RedisLimiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &RedisLimiter{
		client:   client,
		policies: policies,
		prefix:   "rl",
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, userID, action string) (bool, time.Duration, error) {
	p := policyFor(l.policies, action)
	key := bucketKey(l.prefix, userID, action)

	ttl := 5 * p.RefillInterval * time.Duration(p.Capacity)
	if ttl < time.Minute {
		ttl = time.Minute
	}

	vals, err := tokenBucketScript.Run(ctx, l.client, []string{key},
		l.now().UnixMilli(),
		p.Capacity,
		p.RefillTokens,
		p.RefillInterval.Milliseconds(),
		int64(ttl/time.Second),
	).Result()
	if err != nil {
		logger.Warn("Rate limiter redis error for %s: %v", key, err)
		return true, 0, nil
	}

	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		logger.Warn("Rate limiter unexpected script result for %s: %#v", key, vals)
		return true, 0, nil
	}

	allowed, err := asInt64(arr[0])
	if err != nil {
		return true, 0, nil
	}
	retryMs, _ := asInt64(arr[2])
	if allowed == 1 {
		return true, 0, nil
	}
	return false, time.Duration(retryMs) * time.Millisecond, nil
}

func asInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
