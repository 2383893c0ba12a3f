package repository

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

type StreakRepository interface {
	// Get returns nil without error if the user has no streak state.
	Get(ctx context.Context, userID string) (*entity.StreakState, error)
	Set(ctx context.Context, userID string, state entity.StreakState, ttl time.Duration) error
}

type streakRepository struct {
	redisClient xredis.Client
}

func NewStreakRepository(redisClient xredis.Client) *streakRepository {
	return &streakRepository{redisClient: redisClient}
}

func (r *streakRepository) Get(ctx context.Context, userID string) (*entity.StreakState, error) {
	var state entity.StreakState
	if err := r.redisClient.GetObj(ctx, common.RedisKeyStreak(userID), &state); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	return &state, nil
}

func (r *streakRepository) Set(
	ctx context.Context, userID string, state entity.StreakState, ttl time.Duration,
) error {
	return r.redisClient.SetObj(ctx, common.RedisKeyStreak(userID), state, ttl)
}
