package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/internal/model"
	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/questx-lab/gamification/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

const (
	rebuildBatchSize = 1000

	// A crashed rebuild leaves its mark for at most this long.
	rebuildingTTL = 10 * time.Minute
)

type Leaderboard interface {
	// Upsert replaces the score of the user.
	Upsert(ctx context.Context, userID string, score int64) error

	// TopN returns at most n entries with the highest scores.
	TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error)

	// RankOf returns the 1-based rank of the user.
	RankOf(ctx context.Context, userID string) (int, error)

	// Rebuild reloads the whole leaderboard from the database.
	Rebuild(ctx context.Context) error
}

type leaderboard struct {
	userProgressRepo repository.UserProgressRepository
	redisClient      xredis.Client
}

func New(
	userProgressRepo repository.UserProgressRepository,
	redisClient xredis.Client,
) *leaderboard {
	return &leaderboard{userProgressRepo: userProgressRepo, redisClient: redisClient}
}

func (l *leaderboard) key(ctx context.Context) string {
	return xcontext.Configs(ctx).Gamification.LeaderboardKey
}

func (l *leaderboard) Upsert(ctx context.Context, userID string, score int64) error {
	key := l.key(ctx)

	// If the key didn't exist in redis, it is not written. It will be loaded
	// from database, which already contains the score, on the next read.
	err := l.redisClient.RunScript(ctx, upsertScript,
		[]string{key, rebuildingKey(key), pendingKey(key)}, score, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert leaderboard: %v", err)
		return errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	return nil
}

func (l *leaderboard) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	cfg := xcontext.Configs(ctx).Gamification
	if n <= 0 {
		n = cfg.DefaultLeaderboardN
	}

	if cfg.MaxLeaderboardN > 0 && n > cfg.MaxLeaderboardN {
		n = cfg.MaxLeaderboardN
	}

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	results, err := l.redisClient.ZRevRangeWithScores(ctx, l.key(ctx), 0, n)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get revrange redis: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	userIDs := []string{}
	for _, z := range results {
		userIDs = append(userIDs, z.Member.(string))
	}

	progresses, err := l.userProgressRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user progresses: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot get user progresses")
	}

	progressMap := map[string]entity.UserProgress{}
	for _, p := range progresses {
		progressMap[p.UserID] = p
	}

	entries := []model.LeaderboardEntry{}
	for i, z := range results {
		userID := z.Member.(string)
		progress := progressMap[userID]
		entries = append(entries, model.LeaderboardEntry{
			UserID:      userID,
			DisplayName: progress.DisplayName,
			AvatarURL:   progress.AvatarURL,
			Score:       int64(z.Score),
			Level:       progress.Level,
			Rank:        i + 1,
		})
	}

	return entries, nil
}

func (l *leaderboard) RankOf(ctx context.Context, userID string) (int, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	rank, err := l.redisClient.ZRevRank(ctx, l.key(ctx), userID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, errorx.New(errorx.NotFound, "Not found user in leaderboard")
		}

		xcontext.Logger(ctx).Errorf("Cannot get rev rank redis: %v", err)
		return 0, errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	return int(rank) + 1, nil
}

func (l *leaderboard) Rebuild(ctx context.Context) error {
	key := l.key(ctx)
	tmpKey := key + ":rebuild:" + uuid.NewString()

	// Scores upserted from now on are also kept in the pending set, they are
	// applied on top of the database snapshot when it replaces the live key.
	_, err := l.redisClient.IncrWithTTL(ctx, rebuildingKey(key), 1, rebuildingTTL)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark leaderboard rebuilding: %v", err)
		return errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	total := 0
	for offset := 0; ; offset += rebuildBatchSize {
		progresses, err := l.userProgressRepo.GetList(ctx, offset, rebuildBatchSize)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot load user progresses from database: %v", err)
			l.abort(ctx, tmpKey)
			return errorx.New(errorx.UpstreamUnavailable, "Cannot load user progresses")
		}

		members := []redis.Z{}
		for _, p := range progresses {
			members = append(members, redis.Z{Member: p.UserID, Score: float64(p.Score)})
		}

		if err := l.redisClient.ZAdd(ctx, tmpKey, members...); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot zadd redis: %v", err)
			l.abort(ctx, tmpKey)
			return errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
		}

		total += len(progresses)
		if len(progresses) < rebuildBatchSize {
			break
		}
	}

	// Replace the old leaderboard at once, readers never see a partial one.
	err = l.redisClient.RunScript(ctx, swapScript,
		[]string{tmpKey, key, rebuildingKey(key), pendingKey(key)})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot swap leaderboard: %v", err)
		l.abort(ctx, tmpKey)
		return errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	xcontext.Logger(ctx).Infof("Leaderboard is rebuilt with %d users", total)
	return nil
}

func (l *leaderboard) ensureLoaded(ctx context.Context) error {
	ok, err := l.redisClient.Exist(ctx, l.key(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.New(errorx.UpstreamUnavailable, "Leaderboard is unavailable")
	}

	// If the key didn't exist in redis, load it from database.
	if !ok {
		return l.Rebuild(ctx)
	}

	return nil
}

func (l *leaderboard) abort(ctx context.Context, tmpKey string) {
	key := l.key(ctx)
	err := l.redisClient.RunScript(ctx, abortScript,
		[]string{tmpKey, rebuildingKey(key), pendingKey(key)})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot clean up temporary leaderboard %s: %v", tmpKey, err)
	}
}
