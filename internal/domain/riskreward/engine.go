package riskreward

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/domain/notification"
	"github.com/questx-lab/gamification/internal/domain/score"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/internal/model"
	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type Engine interface {
	// CreateBet debits betAmount from the user score and creates an active
	// risk challenge. A retry with the same source challenge fails until the
	// challenge is resolved or expired.
	CreateBet(ctx context.Context, userID, sourceChallengeID string, betAmount int64) (*model.RiskChallenge, error)

	// ResolveBet resolves an active risk challenge only once.
	ResolveBet(ctx context.Context, userID, riskChallengeID string, success bool) (*model.ResolveResult, error)

	ListActiveBets(ctx context.Context, userID string) ([]model.RiskChallenge, error)

	AwardLootBox(ctx context.Context, userID string) (*model.LootBox, error)
	OpenLootBox(ctx context.Context, userID, lootBoxID string) (*model.LootBox, error)
	ListLootBoxes(ctx context.Context, userID string) ([]model.LootBox, error)
}

type engine struct {
	userProgressRepo  repository.UserProgressRepository
	lootBoxRepo       repository.LootBoxRepository
	riskChallengeRepo repository.RiskChallengeRepository

	scoreEngine score.Engine
	notifier    notification.Notifier
	lootTables  LootTables
	sampler     Sampler
	now         func() time.Time
}

func NewEngine(
	userProgressRepo repository.UserProgressRepository,
	lootBoxRepo repository.LootBoxRepository,
	riskChallengeRepo repository.RiskChallengeRepository,
	scoreEngine score.Engine,
	notifier notification.Notifier,
	lootTables LootTables,
) *engine {
	if lootTables == nil {
		lootTables = DefaultLootTables()
	}

	return &engine{
		userProgressRepo:  userProgressRepo,
		lootBoxRepo:       lootBoxRepo,
		riskChallengeRepo: riskChallengeRepo,
		scoreEngine:       scoreEngine,
		notifier:          notifier,
		lootTables:        lootTables,
		sampler:           cryptoSampler{},
		now:               time.Now,
	}
}

func (e *engine) WithSampler(sampler Sampler) *engine {
	e.sampler = sampler
	return e
}

func (e *engine) WithClock(now func() time.Time) *engine {
	e.now = now
	return e
}

func (e *engine) CreateBet(
	ctx context.Context, userID, sourceChallengeID string, betAmount int64,
) (*model.RiskChallenge, error) {
	if userID == "" || sourceChallengeID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty user or challenge id")
	}

	if betAmount <= 0 {
		return nil, errorx.New(errorx.InsufficientFunds, "Bet amount must be positive")
	}

	progress, err := e.userProgressRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user progress")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user progress: %v", err)
		return nil, errorx.Unknown
	}

	if progress.Score < betAmount {
		return nil, errorx.New(errorx.InsufficientFunds, "Not enough score to bet %d", betAmount)
	}

	cfg := xcontext.Configs(ctx).Gamification
	now := e.now()

	refundDailyBet := func() {}
	if cfg.DailyBetLimit > 0 {
		total, err := e.riskChallengeRepo.IncreaseDailyBet(ctx, userID, betAmount, now)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase daily bet: %v", err)
			return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot check daily bet limit")
		}

		refundDailyBet = func() {
			if _, err := e.riskChallengeRepo.IncreaseDailyBet(ctx, userID, -betAmount, now); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot refund daily bet of user %s: %v", userID, err)
			}
		}

		if total > cfg.DailyBetLimit {
			refundDailyBet()
			return nil, errorx.New(errorx.LimitExceeded, "Exceed the daily bet limit of %d", cfg.DailyBetLimit)
		}
	}

	rc := &entity.RiskChallenge{
		ID:                  common.RiskChallengeIDPrefix + sourceChallengeID,
		OriginalChallengeID: sourceChallengeID,
		UserID:              userID,
		BetAmount:           betAmount,
		PotentialReward:     betAmount * 2,
		PotentialLoss:       betAmount / 2,
		Status:              entity.RiskChallengeActive,
		CreatedAt:           now,
		ExpiresAt:           now.Add(cfg.RiskChallengeTTL),
	}

	if err := e.riskChallengeRepo.Create(ctx, rc, cfg.RiskChallengeTTL); err != nil {
		refundDailyBet()
		if errors.Is(err, repository.ErrRiskChallengeExisted) {
			return nil, errorx.New(errorx.AlreadyExists, "The challenge already has an active bet")
		}

		xcontext.Logger(ctx).Errorf("Cannot create risk challenge: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot create risk challenge")
	}

	_, err = e.scoreEngine.Debit(ctx, userID, betAmount, entity.ActivityRiskBet,
		map[string]any{"risk_challenge_id": rc.ID})
	if err != nil {
		refundDailyBet()
		if err := e.riskChallengeRepo.Delete(ctx, rc); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete reserved risk challenge %s: %v", rc.ID, err)
		}

		return nil, err
	}

	e.notifier.Notify(ctx, userID, notification.RiskChallengeCreated(rc))

	result := model.ConvertRiskChallenge(rc)
	return &result, nil
}

func (e *engine) ResolveBet(
	ctx context.Context, userID, riskChallengeID string, success bool,
) (*model.ResolveResult, error) {
	rc, err := e.riskChallengeRepo.Take(ctx, userID, riskChallengeID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorx.New(errorx.NotFound, "Not found risk challenge")
		}

		xcontext.Logger(ctx).Errorf("Cannot take risk challenge: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot get risk challenge")
	}

	if rc.Status != entity.RiskChallengeActive {
		return nil, errorx.New(errorx.InvalidState, "Risk challenge is not active")
	}

	result, err := e.settle(ctx, rc, success)
	if err != nil {
		e.restore(ctx, rc)
		return nil, err
	}

	return result, nil
}

// settle applies the outcome of a taken risk challenge in one transaction.
func (e *engine) settle(
	ctx context.Context, rc *entity.RiskChallenge, success bool,
) (*model.ResolveResult, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	meta := map[string]any{"risk_challenge_id": rc.ID, "success": success}
	result := &model.ResolveResult{Success: success}
	if success {
		_, err := e.scoreEngine.Credit(ctx, rc.UserID, rc.PotentialReward, entity.ActivityRiskCompletion, meta)
		if err != nil {
			return nil, err
		}

		box, err := e.AwardLootBox(ctx, rc.UserID)
		if err != nil {
			return nil, err
		}

		result.Reward = rc.PotentialReward
		result.LootBox = box
	} else if rc.PotentialLoss > 0 {
		_, err := e.scoreEngine.DebitAtMost(ctx, rc.UserID, rc.PotentialLoss, entity.ActivityRiskCompletion, meta)
		if err != nil {
			return nil, err
		}

		result.Reward = -rc.PotentialLoss
	}

	rc.Status = entity.RiskChallengeResolved
	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		e.notifier.Notify(ctx, rc.UserID, notification.RiskChallengeCompleted(rc, success))
	})

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit risk challenge resolution: %v", err)
		return nil, errorx.Unknown
	}

	return result, nil
}

// restore puts back a taken risk challenge with its remaining lifetime, so
// the user can resolve it again.
func (e *engine) restore(ctx context.Context, rc *entity.RiskChallenge) {
	ttl := rc.ExpiresAt.Sub(e.now())
	if ttl <= 0 {
		return
	}

	rc.Status = entity.RiskChallengeActive
	if err := e.riskChallengeRepo.Restore(ctx, rc, ttl); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot restore risk challenge %s: %v", rc.ID, err)
	}
}

func (e *engine) ListActiveBets(ctx context.Context, userID string) ([]model.RiskChallenge, error) {
	challenges, err := e.riskChallengeRepo.GetListByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get risk challenges: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot get risk challenges")
	}

	slices.SortFunc(challenges, func(a, b entity.RiskChallenge) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})

	result := []model.RiskChallenge{}
	for i := range challenges {
		if challenges[i].Status != entity.RiskChallengeActive {
			continue
		}

		result = append(result, model.ConvertRiskChallenge(&challenges[i]))
	}

	return result, nil
}

func (e *engine) AwardLootBox(ctx context.Context, userID string) (*model.LootBox, error) {
	streak, err := e.scoreEngine.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier := TierForStreak(streak)
	box := &entity.LootBox{
		Base:     entity.Base{ID: uuid.NewString()},
		UserID:   userID,
		Type:     tier,
		Contents: e.lootTables.Draw(tier, e.sampler, itemsPerLootBox),
		Status:   entity.LootBoxUnopened,
	}

	if err := e.lootBoxRepo.Create(ctx, box); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create loot box: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		e.notifier.Notify(ctx, userID, notification.LootBoxAwarded(box))
	})

	result := model.ConvertLootBox(box)
	return &result, nil
}

func (e *engine) OpenLootBox(ctx context.Context, userID, lootBoxID string) (*model.LootBox, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	box, err := e.lootBoxRepo.GetByID(ctx, lootBoxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found loot box")
		}

		xcontext.Logger(ctx).Errorf("Cannot get loot box: %v", err)
		return nil, errorx.Unknown
	}

	if box.UserID != userID {
		return nil, errorx.New(errorx.NotFound, "Not found loot box")
	}

	if box.Status == entity.LootBoxOpened {
		return nil, errorx.New(errorx.AlreadyOpened, "Loot box is already opened")
	}

	now := e.now()
	if err := e.lootBoxRepo.MarkOpened(ctx, box.ID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyOpened, "Loot box is already opened")
		}

		xcontext.Logger(ctx).Errorf("Cannot mark loot box as opened: %v", err)
		return nil, errorx.Unknown
	}

	for _, item := range box.Contents {
		if err := e.applyItem(ctx, box, item); err != nil {
			return nil, err
		}
	}

	box.Status = entity.LootBoxOpened
	box.OpenedAt.Time = now
	box.OpenedAt.Valid = true

	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		e.notifier.Notify(ctx, userID, notification.LootBoxOpened(box))
	})

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit loot box opening: %v", err)
		return nil, errorx.Unknown
	}

	result := model.ConvertLootBox(box)
	return &result, nil
}

func (e *engine) applyItem(ctx context.Context, box *entity.LootBox, item entity.RewardItem) error {
	switch item.Type {
	case entity.RewardXP:
		points := int64(math.Round(item.Amount))
		if points <= 0 {
			return nil
		}

		_, err := e.scoreEngine.Credit(ctx, box.UserID, points, entity.ActivityLootBox,
			map[string]any{"loot_box_id": box.ID})
		return err

	case entity.RewardPerk:
		return e.scoreEngine.GrantPerks(ctx, box.UserID, common.SourceLootBox, item.ID)

	case entity.RewardMultiplier:
		return e.scoreEngine.GrantMultiplier(ctx, box.UserID, item.Amount, common.SourceLootBox)
	}

	xcontext.Logger(ctx).Errorf("Unknown reward item type %s in loot box %s", item.Type, box.ID)
	return errorx.New(errorx.InvalidState, "Loot box contains an unknown item")
}

func (e *engine) ListLootBoxes(ctx context.Context, userID string) ([]model.LootBox, error) {
	boxes, err := e.lootBoxRepo.GetListByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get loot boxes: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.LootBox{}
	for i := range boxes {
		result = append(result, model.ConvertLootBox(&boxes[i]))
	}

	return result, nil
}
