package leaderboard

import "github.com/redis/go-redis/v9"

// rebuildingKey counts the rebuilds in progress.
func rebuildingKey(key string) string {
	return key + ":rebuilding"
}

// pendingKey holds the scores upserted while a rebuild is in progress.
func pendingKey(key string) string {
	return key + ":pending"
}

// KEYS: live, rebuilding, pending. ARGV: score, user id.
var upsertScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	redis.call("ZADD", KEYS[3], ARGV[1], ARGV[2])
end
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
end
return 1
`)

// KEYS: tmp, live, rebuilding, pending.
var swapScript = redis.NewScript(`
local pending = redis.call("ZRANGE", KEYS[4], 0, -1, "WITHSCORES")
for i = 1, #pending, 2 do
	redis.call("ZADD", KEYS[1], pending[i + 1], pending[i])
end
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("RENAME", KEYS[1], KEYS[2])
else
	redis.call("DEL", KEYS[2])
end
if redis.call("DECR", KEYS[3]) <= 0 then
	redis.call("DEL", KEYS[3], KEYS[4])
end
return 1
`)

// KEYS: tmp, rebuilding, pending.
var abortScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
if redis.call("DECR", KEYS[2]) <= 0 then
	redis.call("DEL", KEYS[2], KEYS[3])
end
return 1
`)
