package xredis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type object struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func newTestClient(t *testing.T) (*client, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	return NewClientFrom(redis.NewClient(&redis.Options{Addr: s.Addr()})), s
}

func TestClient_SetNXObjAndGetDelObj(t *testing.T) {
	ctx := context.Background()
	c, s := newTestClient(t)

	ok, err := c.SetNXObj(ctx, "k", object{Name: "a", Value: 1}, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.SetNXObj(ctx, "k", object{Name: "b", Value: 2}, time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Hour, s.TTL("k"))

	var got object
	require.NoError(t, c.GetDelObj(ctx, "k", &got))
	require.Equal(t, object{Name: "a", Value: 1}, got)

	err = c.GetDelObj(ctx, "k", &got)
	require.ErrorIs(t, err, redis.Nil)
}

func TestClient_IncrWithTTL(t *testing.T) {
	ctx := context.Background()
	c, s := newTestClient(t)

	n, err := c.IncrWithTTL(ctx, "counter", 100, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(100), n)
	require.Equal(t, time.Minute, s.TTL("counter"))

	s.FastForward(30 * time.Second)
	n, err = c.IncrWithTTL(ctx, "counter", 50, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(150), n)
	require.Equal(t, 30*time.Second, s.TTL("counter"))

	s.FastForward(31 * time.Second)
	ok, err := c.Exist(ctx, "counter")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClient_SortedSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	require.NoError(t, c.ZAdd(ctx, "board",
		redis.Z{Member: "u1", Score: 10},
		redis.Z{Member: "u2", Score: 30},
		redis.Z{Member: "u3", Score: 20},
	))

	zs, err := c.ZRevRangeWithScores(ctx, "board", 0, 2)
	require.NoError(t, err)
	require.Equal(t, []redis.Z{{Member: "u2", Score: 30}, {Member: "u3", Score: 20}}, zs)

	rank, err := c.ZRevRank(ctx, "board", "u1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), rank)

	_, err = c.ZRevRank(ctx, "board", "nobody")
	require.ErrorIs(t, err, redis.Nil)

	require.NoError(t, c.Rename(ctx, "board", "board2"))
	ok, err := c.Exist(ctx, "board")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClient_Scan(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	require.NoError(t, c.SetObj(ctx, "risk:u1:a", object{}, time.Hour))
	require.NoError(t, c.SetObj(ctx, "risk:u1:b", object{}, time.Hour))
	require.NoError(t, c.SetObj(ctx, "risk:u2:a", object{}, time.Hour))

	keys, err := c.Scan(ctx, "risk:u1:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"risk:u1:a", "risk:u1:b"}, keys)

	require.NoError(t, c.Del(ctx, keys...))
	keys, err = c.Scan(ctx, "risk:*")
	require.NoError(t, err)
	require.Equal(t, []string{"risk:u2:a"}, keys)
}

func TestClient_RunScript(t *testing.T) {
	ctx := context.Background()
	c, s := newTestClient(t)

	script := redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
end
`)

	// The script returns nothing.
	require.NoError(t, c.RunScript(ctx, script, []string{"board"}, 10, "u1"))
	require.False(t, s.Exists("board"))

	require.NoError(t, c.ZAdd(ctx, "board", redis.Z{Member: "u2", Score: 5}))
	require.NoError(t, c.RunScript(ctx, script, []string{"board"}, 10, "u1"))

	zs, err := c.ZRevRangeWithScores(ctx, "board", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []redis.Z{{Member: "u1", Score: 10}, {Member: "u2", Score: 5}}, zs)

	err = c.RunScript(ctx, redis.NewScript(`return redis.call("INCR", KEYS[1])`), []string{"board"})
	require.Error(t, err)
}
