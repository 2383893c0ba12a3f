package score

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/domain/leaderboard"
	"github.com/questx-lab/gamification/internal/domain/notification"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/internal/model"
	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"gorm.io/gorm"
)

type Engine interface {
	// ApplyActivity adds the points of an activity and the streak bonus to the
	// user score. The user progress is created if it doesn't exist.
	ApplyActivity(ctx context.Context, userID string, points int64, meta map[string]any) (*model.ActivityResult, error)

	// Credit adds points and grants level-up packages. It returns the new
	// score.
	Credit(ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any) (int64, error)

	// Debit fails with InsufficientFunds if the score is less than points.
	Debit(ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any) (int64, error)

	// DebitAtMost decreases the score by points, but never below zero.
	DebitAtMost(ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any) (int64, error)

	GrantPerks(ctx context.Context, userID, source string, perkIDs ...string) error
	GrantMultiplier(ctx context.Context, userID string, value float64, source string) error

	GetProgress(ctx context.Context, userID string) (*model.ProgressSnapshot, error)
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error

	// CurrentStreak returns the streak which is still alive, or 0.
	CurrentStreak(ctx context.Context, userID string) (int, error)
}

type debitMode int

const (
	debitStrict debitMode = iota
	debitClamp
)

type scoreChange struct {
	Score         int64
	Level         int
	PreviousLevel int
	LevelUps      []LevelRewards
}

func (c *scoreChange) LevelUp() bool {
	return c.Level > c.PreviousLevel
}

type engine struct {
	userProgressRepo repository.UserProgressRepository
	activityRepo     repository.ActivityRepository
	streakRepo       repository.StreakRepository
	leaderboard      leaderboard.Leaderboard
	notifier         notification.Notifier
	idGenerator      *snowflake.Node

	// streakLocks serializes read-modify-write of the streak of a user.
	streakLocks *keyMutex
	// boardLocks serializes leaderboard synchronizations of a user.
	boardLocks *keyMutex

	now func() time.Time
}

func NewEngine(
	userProgressRepo repository.UserProgressRepository,
	activityRepo repository.ActivityRepository,
	streakRepo repository.StreakRepository,
	leaderboard leaderboard.Leaderboard,
	notifier notification.Notifier,
	idGenerator *snowflake.Node,
) *engine {
	return &engine{
		userProgressRepo: userProgressRepo,
		activityRepo:     activityRepo,
		streakRepo:       streakRepo,
		leaderboard:      leaderboard,
		notifier:         notifier,
		idGenerator:      idGenerator,
		streakLocks:      newKeyMutex(),
		boardLocks:       newKeyMutex(),
		now:              time.Now,
	}
}

// WithClock replaces the clock of the engine, it is used in tests.
func (e *engine) WithClock(now func() time.Time) *engine {
	e.now = now
	return e
}

func (e *engine) ApplyActivity(
	ctx context.Context, userID string, points int64, meta map[string]any,
) (*model.ActivityResult, error) {
	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	unlock := e.streakLocks.Lock(userID)
	defer unlock()

	now := e.now()
	state, err := e.streakRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get streak state: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot get streak state")
	}

	streak := NextStreak(state, now)
	bonus := StreakBonus(streak)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	if err := e.userProgressRepo.Provision(ctx, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot provision user progress: %v", err)
		return nil, errorx.Unknown
	}

	change, err := e.changeScore(ctx, userID, points+bonus, debitClamp)
	if err != nil {
		return nil, err
	}

	if err := e.userProgressRepo.UpdateStreak(ctx, userID, streak, now); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update streak of user progress: %v", err)
		return nil, errorx.Unknown
	}

	activities := []*entity.Activity{e.newActivity(userID, entity.ActivityGeneric, points, meta)}
	if bonus > 0 {
		activities = append(activities, e.newActivity(userID, entity.ActivityStreakBonus, bonus,
			map[string]any{"streak": streak}))
	}

	if err := e.activityRepo.Create(ctx, activities...); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create activities: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		newState := entity.StreakState{LastActivityAt: now, CurrentStreak: streak}
		ttl := xcontext.Configs(ctx).Gamification.StreakTTL
		if err := e.streakRepo.Set(ctx, userID, newState, ttl); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot set streak state: %v", err)
		}
	})

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit activity: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ActivityResult{
		Score:       change.Score,
		Level:       change.Level,
		Streak:      streak,
		StreakBonus: bonus,
		LevelUp:     change.LevelUp(),
	}, nil
}

func (e *engine) Credit(
	ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any,
) (int64, error) {
	if points <= 0 {
		return 0, errorx.New(errorx.BadRequest, "Credit points must be positive")
	}

	return e.mutate(ctx, userID, points, debitStrict, t, meta)
}

func (e *engine) Debit(
	ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any,
) (int64, error) {
	if points <= 0 {
		return 0, errorx.New(errorx.BadRequest, "Debit points must be positive")
	}

	return e.mutate(ctx, userID, -points, debitStrict, t, meta)
}

func (e *engine) DebitAtMost(
	ctx context.Context, userID string, points int64, t entity.ActivityType, meta map[string]any,
) (int64, error) {
	if points <= 0 {
		return 0, errorx.New(errorx.BadRequest, "Debit points must be positive")
	}

	return e.mutate(ctx, userID, -points, debitClamp, t, meta)
}

func (e *engine) mutate(
	ctx context.Context,
	userID string,
	delta int64,
	mode debitMode,
	t entity.ActivityType,
	meta map[string]any,
) (int64, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	change, err := e.changeScore(ctx, userID, delta, mode)
	if err != nil {
		return 0, err
	}

	if err := e.activityRepo.Create(ctx, e.newActivity(userID, t, delta, meta)); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create activity: %v", err)
		return 0, errorx.Unknown
	}

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit score change: %v", err)
		return 0, errorx.Unknown
	}

	return change.Score, nil
}

// changeScore must be called inside a transaction. It applies delta, then
// grants a level-up package each time the level rises above the highest
// rewarded level. The leaderboard and notifications are updated after the
// transaction is committed.
func (e *engine) changeScore(
	ctx context.Context, userID string, delta int64, mode debitMode,
) (*scoreChange, error) {
	var err error
	switch {
	case delta > 0:
		err = e.userProgressRepo.IncreaseScore(ctx, userID, delta)
	case delta < 0 && mode == debitStrict:
		err = e.userProgressRepo.DecreaseScore(ctx, userID, -delta)
	case delta < 0:
		err = e.userProgressRepo.DecreaseScoreAtMost(ctx, userID, -delta)
	}

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot change score: %v", err)
			return nil, errorx.Unknown
		}

		if delta >= 0 || mode != debitStrict {
			return nil, errorx.New(errorx.NotFound, "Not found user progress")
		}

		// The conditional decrement matched nothing, find out the reason.
		if _, err := e.userProgressRepo.Get(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Not found user progress")
			}

			xcontext.Logger(ctx).Errorf("Cannot get user progress: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.InsufficientFunds, "Not enough score")
	}

	progress, err := e.userProgressRepo.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user progress: %v", err)
		return nil, errorx.Unknown
	}

	change := &scoreChange{PreviousLevel: progress.Level}
	rewardedLevel := progress.RewardedLevel
	level := Level(progress.Score)
	activities := []*entity.Activity{}
	for level > rewardedLevel {
		rewards := Rewards(level)
		if err := e.userProgressRepo.IncreaseScore(ctx, userID, rewards.Points); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot apply level-up points: %v", err)
			return nil, errorx.Unknown
		}

		if len(rewards.Perks) > 0 {
			if err := e.appendPerks(ctx, progress, common.SourceLevelUp, rewards.Perks...); err != nil {
				return nil, err
			}
		}

		activities = append(activities, e.newActivity(userID, entity.ActivityLevelUp, rewards.Points,
			map[string]any{"level": level, "perks": rewards.Perks}))

		progress.Score += rewards.Points
		rewardedLevel = level
		change.LevelUps = append(change.LevelUps, rewards)
		level = Level(progress.Score)
	}

	if level != progress.Level || rewardedLevel != progress.RewardedLevel {
		if err := e.userProgressRepo.UpdateLevel(ctx, userID, level, rewardedLevel); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update level: %v", err)
			return nil, errorx.Unknown
		}
	}

	if err := e.activityRepo.Create(ctx, activities...); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create level-up activities: %v", err)
		return nil, errorx.Unknown
	}

	change.Score = progress.Score
	change.Level = level

	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		e.syncLeaderboard(ctx, userID)
		for _, rewards := range change.LevelUps {
			e.notifier.Notify(ctx, userID, notification.LevelUp(notification.LevelUpData{
				Level:  rewards.Level,
				Points: rewards.Points,
				Perks:  rewards.Perks,
			}))
		}
	})

	return change, nil
}

func (e *engine) GrantPerks(ctx context.Context, userID, source string, perkIDs ...string) error {
	if len(perkIDs) == 0 {
		return nil
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	progress, err := e.getForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.appendPerks(ctx, progress, source, perkIDs...); err != nil {
		return err
	}

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit perks: %v", err)
		return errorx.Unknown
	}

	return nil
}

// appendPerks adds perks to the ring buffer of the progress, the oldest perks
// are evicted when the buffer is full.
func (e *engine) appendPerks(
	ctx context.Context, progress *entity.UserProgress, source string, perkIDs ...string,
) error {
	now := e.now()
	perks := progress.ActivePerks
	for _, id := range perkIDs {
		perks = append(perks, entity.Perk{ID: id, Source: source, GrantedAt: now})
	}

	capacity := xcontext.Configs(ctx).Gamification.PerkCapacity
	if capacity > 0 && len(perks) > capacity {
		perks = perks[len(perks)-capacity:]
	}

	if err := e.userProgressRepo.UpdatePerks(ctx, progress.UserID, perks); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update perks: %v", err)
		return errorx.Unknown
	}

	progress.ActivePerks = perks
	return nil
}

func (e *engine) GrantMultiplier(ctx context.Context, userID string, value float64, source string) error {
	if value <= 0 {
		return errorx.New(errorx.BadRequest, "Multiplier must be positive")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	progress, err := e.getForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	now := e.now()
	multipliers := progress.UnexpiredMultipliers(now)
	multipliers = append(multipliers, entity.Multiplier{
		Value:     value,
		Source:    source,
		ExpiresAt: now.Add(xcontext.Configs(ctx).Gamification.MultiplierDuration),
	})

	if err := e.userProgressRepo.UpdateMultipliers(ctx, userID, multipliers); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update multipliers: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit multipliers: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (e *engine) GetProgress(ctx context.Context, userID string) (*model.ProgressSnapshot, error) {
	progress, err := e.userProgressRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user progress: %v", err)
		return nil, errorx.Unknown
	}

	streak, err := e.CurrentStreak(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Use cached streak of user %s: %v", userID, err)
		streak = progress.Streak
	}

	rank, err := e.leaderboard.RankOf(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get rank of user %s: %v", userID, err)
		rank = 0
	}

	limit := xcontext.Configs(ctx).Gamification.RecentActivityLimit
	activities, err := e.activityRepo.GetRecentByUserID(ctx, userID, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get recent activities: %v", err)
		return nil, errorx.Unknown
	}

	recent := []model.Activity{}
	for _, a := range activities {
		recent = append(recent, model.ConvertActivity(&a))
	}

	return &model.ProgressSnapshot{
		UserID:            progress.UserID,
		DisplayName:       progress.DisplayName,
		AvatarURL:         progress.AvatarURL,
		Score:             progress.Score,
		Level:             progress.Level,
		Streak:            streak,
		Rank:              rank,
		ActivePerks:       model.ConvertPerks(progress.ActivePerks),
		ActiveMultipliers: model.ConvertMultipliers(progress.UnexpiredMultipliers(e.now())),
		RecentActivity:    recent,
	}, nil
}

func (e *engine) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	if userID == "" {
		return errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	if len(displayName) > 64 {
		return errorx.New(errorx.BadRequest, "Display name is too long")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	if err := e.userProgressRepo.Provision(ctx, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot provision user progress: %v", err)
		return errorx.Unknown
	}

	if err := e.userProgressRepo.UpdateProfile(ctx, userID, displayName, avatarURL); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update profile: %v", err)
		return errorx.Unknown
	}

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit profile: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (e *engine) CurrentStreak(ctx context.Context, userID string) (int, error) {
	state, err := e.streakRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get streak state: %v", err)
		return 0, errorx.New(errorx.UpstreamUnavailable, "Cannot get streak state")
	}

	return EffectiveStreak(state, e.now()), nil
}

func (e *engine) getForUpdate(ctx context.Context, userID string) (*entity.UserProgress, error) {
	progress, err := e.userProgressRepo.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user progress: %v", err)
		return nil, errorx.Unknown
	}

	return progress, nil
}

// syncLeaderboard writes the committed score of the user to the leaderboard.
// Reading the score under the lock makes the last writer carry the latest
// score.
func (e *engine) syncLeaderboard(ctx context.Context, userID string) {
	unlock := e.boardLocks.Lock(userID)
	defer unlock()

	progress, err := e.userProgressRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user progress for leaderboard: %v", err)
		return
	}

	if err := e.leaderboard.Upsert(ctx, userID, progress.Score); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot upsert leaderboard of user %s: %v", userID, err)
	}
}

func (e *engine) newActivity(
	userID string, t entity.ActivityType, points int64, meta map[string]any,
) *entity.Activity {
	return &entity.Activity{
		SnowFlakeBase: entity.SnowFlakeBase{ID: e.idGenerator.Generate().Int64()},
		UserID:        userID,
		Type:          t,
		Points:        points,
		Metadata:      entity.Map(meta),
	}
}
