package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

var ErrRiskChallengeExisted = errors.New("risk challenge existed")

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

type RiskChallengeRepository interface {
	// Create returns ErrRiskChallengeExisted if the user already bet on the
	// source challenge within ttl, even if that bet is resolved.
	Create(ctx context.Context, rc *entity.RiskChallenge, ttl time.Duration) error
	// Take atomically reads and removes the challenge. It returns redis.Nil
	// if the challenge doesn't exist.
	Take(ctx context.Context, userID, riskChallengeID string) (*entity.RiskChallenge, error)
	Restore(ctx context.Context, rc *entity.RiskChallenge, ttl time.Duration) error
	// Delete removes the challenge and its reservation, the user can bet on the
	// source challenge again.
	Delete(ctx context.Context, rc *entity.RiskChallenge) error
	GetListByUserID(ctx context.Context, userID string) ([]entity.RiskChallenge, error)
	IncreaseDailyBet(ctx context.Context, userID string, amount int64, at time.Time) (int64, error)
}

type riskChallengeRepository struct {
	redisClient xredis.Client
}

func NewRiskChallengeRepository(redisClient xredis.Client) *riskChallengeRepository {
	return &riskChallengeRepository{redisClient: redisClient}
}

func (r *riskChallengeRepository) Create(
	ctx context.Context, rc *entity.RiskChallenge, ttl time.Duration,
) error {
	seenKey := common.RedisKeyRiskChallengeSeen(rc.UserID, rc.OriginalChallengeID)
	ok, err := r.redisClient.SetNXObj(ctx, seenKey, rc.ID, ttl)
	if err != nil {
		return err
	}

	if !ok {
		return ErrRiskChallengeExisted
	}

	ok, err = r.redisClient.SetNXObj(ctx, common.RedisKeyRiskChallenge(rc.UserID, rc.ID), rc, ttl)
	if err != nil {
		return errors.Join(err, r.redisClient.Del(ctx, seenKey))
	}

	if !ok {
		return ErrRiskChallengeExisted
	}

	return nil
}

func (r *riskChallengeRepository) Take(
	ctx context.Context, userID, riskChallengeID string,
) (*entity.RiskChallenge, error) {
	var rc entity.RiskChallenge
	key := common.RedisKeyRiskChallenge(userID, riskChallengeID)
	if err := r.redisClient.GetDelObj(ctx, key, &rc); err != nil {
		return nil, err
	}

	return &rc, nil
}

func (r *riskChallengeRepository) Restore(
	ctx context.Context, rc *entity.RiskChallenge, ttl time.Duration,
) error {
	return r.redisClient.SetObj(ctx, common.RedisKeyRiskChallenge(rc.UserID, rc.ID), rc, ttl)
}

func (r *riskChallengeRepository) Delete(ctx context.Context, rc *entity.RiskChallenge) error {
	return r.redisClient.Del(ctx,
		common.RedisKeyRiskChallenge(rc.UserID, rc.ID),
		common.RedisKeyRiskChallengeSeen(rc.UserID, rc.OriginalChallengeID),
	)
}

func (r *riskChallengeRepository) GetListByUserID(
	ctx context.Context, userID string,
) ([]entity.RiskChallenge, error) {
	keys, err := r.redisClient.Scan(ctx, common.RedisKeyRiskChallenge(globEscaper.Replace(userID), "*"))
	if err != nil {
		return nil, err
	}

	result := []entity.RiskChallenge{}
	for _, key := range keys {
		var rc entity.RiskChallenge
		if err := r.redisClient.GetObj(ctx, key, &rc); err != nil {
			// The challenge may be resolved or expired after scanning.
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, err
		}

		// The pattern of user "a" also matches keys of user "a:b".
		if rc.UserID != userID {
			continue
		}

		result = append(result, rc)
	}

	return result, nil
}

// IncreaseDailyBet adds amount to the total bet of the user in the UTC day of
// at and returns the new total.
func (r *riskChallengeRepository) IncreaseDailyBet(
	ctx context.Context, userID string, amount int64, at time.Time,
) (int64, error) {
	return r.redisClient.IncrWithTTL(ctx, common.RedisKeyDailyBet(userID, at), amount, 25*time.Hour)
}
