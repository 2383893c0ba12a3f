package riskreward

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/domain/leaderboard"
	"github.com/questx-lab/gamification/internal/domain/notification"
	"github.com/questx-lab/gamification/internal/domain/score"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/testutil"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	ctx              context.Context
	engine           *engine
	scoreEngine      score.Engine
	notifier         *testutil.MockNotifier
	streakRepo       repository.StreakRepository
	userProgressRepo repository.UserProgressRepository
	redisServer      *miniredis.Miniredis
	now              time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	redisClient, redisServer := testutil.NewRedisClient(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	userProgressRepo := repository.NewUserProgressRepository()
	streakRepo := repository.NewStreakRepository(redisClient)
	notifier := &testutil.MockNotifier{}

	f := &engineFixture{
		ctx:              ctx,
		notifier:         notifier,
		streakRepo:       streakRepo,
		userProgressRepo: userProgressRepo,
		redisServer:      redisServer,
		now:              time.Date(2023, 5, 10, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.scoreEngine = score.NewEngine(
		userProgressRepo,
		repository.NewActivityRepository(),
		streakRepo,
		leaderboard.New(userProgressRepo, redisClient),
		notifier,
		node,
	).WithClock(clock)

	f.engine = NewEngine(
		userProgressRepo,
		repository.NewLootBoxRepository(),
		repository.NewRiskChallengeRepository(redisClient),
		f.scoreEngine,
		notifier,
		nil,
	).WithClock(clock).WithSampler(&fixedSampler{values: []float64{0.1, 0.5, 0.9}})

	return f
}

func (f *engineFixture) score(t *testing.T, userID string) int64 {
	progress, err := f.userProgressRepo.Get(f.ctx, userID)
	require.NoError(t, err)
	return progress.Score
}

func Test_engine_CreateBet(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		amount    int64
		wantScore int64
		wantErr   error
	}{
		{
			name:      "happy case",
			userID:    testutil.Progress1.UserID,
			amount:    500,
			wantScore: 500,
		},
		{
			name:      "bet all score",
			userID:    testutil.Progress2.UserID,
			amount:    400,
			wantScore: 0,
		},
		{
			name:      "insufficient funds",
			userID:    testutil.Progress2.UserID,
			amount:    500,
			wantScore: testutil.Progress2.Score,
			wantErr:   errorx.New(errorx.InsufficientFunds, ""),
		},
		{
			name:      "non-positive amount",
			userID:    testutil.Progress2.UserID,
			amount:    0,
			wantScore: testutil.Progress2.Score,
			wantErr:   errorx.New(errorx.InsufficientFunds, ""),
		},
		{
			name:    "unknown user",
			userID:  "ghost",
			amount:  10,
			wantErr: errorx.New(errorx.NotFound, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)

			rc, err := f.engine.CreateBet(f.ctx, tt.userID, "challenge1", tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.userID != "ghost" {
					require.Equal(t, tt.wantScore, f.score(t, tt.userID))
				}

				bets, err := f.engine.ListActiveBets(f.ctx, tt.userID)
				require.NoError(t, err)
				require.Empty(t, bets)
				return
			}

			require.NoError(t, err)
			require.Equal(t, common.RiskChallengeIDPrefix+"challenge1", rc.ID)
			require.Equal(t, "challenge1", rc.OriginalChallengeID)
			require.Equal(t, tt.amount, rc.BetAmount)
			require.Equal(t, tt.amount*2, rc.PotentialReward)
			require.Equal(t, tt.amount/2, rc.PotentialLoss)
			require.Equal(t, string(entity.RiskChallengeActive), rc.Status)
			require.Equal(t, f.now.Add(24*time.Hour), rc.ExpiresAt)
			require.Equal(t, tt.wantScore, f.score(t, tt.userID))
			require.Equal(t, []notification.Kind{notification.KindRiskChallenge}, f.notifier.SentKinds(tt.userID))
		})
	}
}

func Test_engine_CreateBet_Retry(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	_, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 100)
	require.NoError(t, err)

	_, err = f.engine.CreateBet(f.ctx, userID, "challenge1", 100)
	require.ErrorIs(t, err, errorx.New(errorx.AlreadyExists, ""))
	require.Equal(t, int64(900), f.score(t, userID))

	// Another challenge is a different bet.
	_, err = f.engine.CreateBet(f.ctx, userID, "challenge2", 100)
	require.NoError(t, err)
	require.Equal(t, int64(800), f.score(t, userID))
}

func Test_engine_CreateBet_RetryAfterResolve(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress2.UserID

	rc, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 400)
	require.NoError(t, err)

	_, err = f.engine.ResolveBet(f.ctx, userID, rc.ID, false)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.score(t, userID))

	_, err = f.engine.CreateBet(f.ctx, userID, "challenge1", 400)
	require.ErrorIs(t, err, errorx.New(errorx.AlreadyExists, ""))
	require.Equal(t, int64(0), f.score(t, userID))

	// The source challenge is open again once the reservation expires.
	_, err = f.scoreEngine.Credit(f.ctx, userID, 400, entity.ActivityGeneric, nil)
	require.NoError(t, err)
	f.redisServer.FastForward(24*time.Hour + time.Second)
	f.now = f.now.Add(24*time.Hour + time.Second)

	_, err = f.engine.CreateBet(f.ctx, userID, "challenge1", 400)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.score(t, userID))
}

func Test_engine_CreateBet_DailyLimit(t *testing.T) {
	f := newEngineFixture(t)
	cfg := xcontext.Configs(f.ctx)
	cfg.Gamification.DailyBetLimit = 300
	f.ctx = xcontext.WithConfigs(f.ctx, cfg)
	userID := testutil.Progress1.UserID

	_, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 200)
	require.NoError(t, err)

	_, err = f.engine.CreateBet(f.ctx, userID, "challenge2", 200)
	require.ErrorIs(t, err, errorx.New(errorx.LimitExceeded, ""))
	require.Equal(t, int64(800), f.score(t, userID))

	// The rejected amount doesn't count to the limit.
	_, err = f.engine.CreateBet(f.ctx, userID, "challenge3", 100)
	require.NoError(t, err)

	_, err = f.engine.CreateBet(f.ctx, userID, "challenge4", 1)
	require.ErrorIs(t, err, errorx.New(errorx.LimitExceeded, ""))

	// The limit is reset on the next day.
	f.now = f.now.Add(24 * time.Hour)
	_, err = f.engine.CreateBet(f.ctx, userID, "challenge5", 300)
	require.NoError(t, err)
}

func Test_engine_ResolveBet_Success(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	rc, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 200)
	require.NoError(t, err)
	require.Equal(t, int64(800), f.score(t, userID))

	result, err := f.engine.ResolveBet(f.ctx, userID, rc.ID, true)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, int64(400), result.Reward)
	require.NotNil(t, result.LootBox)
	require.Equal(t, string(entity.LootBoxCommon), result.LootBox.Type)
	require.Len(t, result.LootBox.Contents, 3)
	require.Equal(t, int64(1200), f.score(t, userID))

	require.Equal(t, []notification.Kind{
		notification.KindRiskChallenge,
		notification.KindLootBox,
		notification.KindRiskCompletion,
	}, f.notifier.SentKinds(userID))

	boxes, err := f.engine.ListLootBoxes(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.Equal(t, result.LootBox.ID, boxes[0].ID)

	// The same challenge can't be resolved twice.
	_, err = f.engine.ResolveBet(f.ctx, userID, rc.ID, true)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))
	require.Equal(t, int64(1200), f.score(t, userID))

	bets, err := f.engine.ListActiveBets(f.ctx, userID)
	require.NoError(t, err)
	require.Empty(t, bets)
}

func Test_engine_ResolveBet_Failure(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	rc, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 200)
	require.NoError(t, err)

	result, err := f.engine.ResolveBet(f.ctx, userID, rc.ID, false)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, int64(-100), result.Reward)
	require.Nil(t, result.LootBox)
	require.Equal(t, int64(700), f.score(t, userID))

	boxes, err := f.engine.ListLootBoxes(f.ctx, userID)
	require.NoError(t, err)
	require.Empty(t, boxes)
}

func Test_engine_ResolveBet_LossClampsAtZero(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress2.UserID

	rc, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 400)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.score(t, userID))

	_, err = f.engine.ResolveBet(f.ctx, userID, rc.ID, false)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.score(t, userID))
}

func Test_engine_ResolveBet_NotFound(t *testing.T) {
	f := newEngineFixture(t)

	rc, err := f.engine.CreateBet(f.ctx, testutil.Progress1.UserID, "challenge1", 200)
	require.NoError(t, err)

	// Another user can't resolve it.
	_, err = f.engine.ResolveBet(f.ctx, testutil.Progress2.UserID, rc.ID, true)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	// Expired.
	f.redisServer.FastForward(25 * time.Hour)
	_, err = f.engine.ResolveBet(f.ctx, testutil.Progress1.UserID, rc.ID, true)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))
}

func Test_engine_ResolveBet_RestoreOnError(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	rc, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 200)
	require.NoError(t, err)

	// The progress disappears, so the credit fails.
	require.NoError(t, xcontext.DB(f.ctx).Delete(&entity.UserProgress{}, "user_id=?", userID).Error)

	_, err = f.engine.ResolveBet(f.ctx, userID, rc.ID, true)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	bets, err := f.engine.ListActiveBets(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	require.Equal(t, rc.ID, bets[0].ID)

	// Nothing of the failed resolution is persisted.
	boxes, err := f.engine.ListLootBoxes(f.ctx, userID)
	require.NoError(t, err)
	require.Empty(t, boxes)
}

func Test_engine_ListActiveBets(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	_, err := f.engine.CreateBet(f.ctx, userID, "challenge1", 100)
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	_, err = f.engine.CreateBet(f.ctx, userID, "challenge2", 100)
	require.NoError(t, err)

	_, err = f.engine.CreateBet(f.ctx, testutil.Progress3.UserID, "challenge1", 100)
	require.NoError(t, err)

	bets, err := f.engine.ListActiveBets(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	require.Equal(t, "risk_challenge2", bets[0].ID)
	require.Equal(t, "risk_challenge1", bets[1].ID)
}

func Test_engine_AwardLootBox_Tier(t *testing.T) {
	tests := []struct {
		streak int
		want   entity.LootBoxType
	}{
		{streak: 0, want: entity.LootBoxCommon},
		{streak: 7, want: entity.LootBoxRare},
		{streak: 15, want: entity.LootBoxEpic},
		{streak: 30, want: entity.LootBoxLegendary},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			f := newEngineFixture(t)
			userID := testutil.Progress1.UserID

			if tt.streak > 0 {
				state := entity.StreakState{LastActivityAt: f.now, CurrentStreak: tt.streak}
				require.NoError(t, f.streakRepo.Set(f.ctx, userID, state, time.Hour))
			}

			box, err := f.engine.AwardLootBox(f.ctx, userID)
			require.NoError(t, err)
			require.Equal(t, string(tt.want), box.Type)
			require.Equal(t, string(entity.LootBoxUnopened), box.Status)
			require.Len(t, box.Contents, 3)
		})
	}
}

func Test_engine_OpenLootBox(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	box, err := f.engine.AwardLootBox(f.ctx, userID)
	require.NoError(t, err)

	opened, err := f.engine.OpenLootBox(f.ctx, userID, box.ID)
	require.NoError(t, err)
	require.Equal(t, string(entity.LootBoxOpened), opened.Status)
	require.NotNil(t, opened.OpenedAt)

	progress, err := f.scoreEngine.GetProgress(f.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1100), progress.Score)
	require.Len(t, progress.ActivePerks, 1)
	require.Equal(t, "priority_booking", progress.ActivePerks[0].ID)
	require.Equal(t, common.SourceLootBox, progress.ActivePerks[0].Source)
	require.Len(t, progress.ActiveMultipliers, 1)
	require.Equal(t, 1.5, progress.ActiveMultipliers[0].Value)
	require.Equal(t, f.now.Add(24*time.Hour), progress.ActiveMultipliers[0].ExpiresAt)

	// Opening again doesn't apply rewards twice.
	_, err = f.engine.OpenLootBox(f.ctx, userID, box.ID)
	require.ErrorIs(t, err, errorx.New(errorx.AlreadyOpened, ""))
	require.Equal(t, int64(1100), f.score(t, userID))

	require.Equal(t, []notification.Kind{
		notification.KindLootBox,
		notification.KindLootBoxOpened,
	}, f.notifier.SentKinds(userID))
}

func Test_engine_OpenLootBox_NotFound(t *testing.T) {
	f := newEngineFixture(t)

	box, err := f.engine.AwardLootBox(f.ctx, testutil.Progress1.UserID)
	require.NoError(t, err)

	_, err = f.engine.OpenLootBox(f.ctx, testutil.Progress2.UserID, box.ID)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	_, err = f.engine.OpenLootBox(f.ctx, testutil.Progress1.UserID, "invalid-box")
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	boxes, err := f.engine.ListLootBoxes(f.ctx, testutil.Progress1.UserID)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.Equal(t, string(entity.LootBoxUnopened), boxes[0].Status)
}

func Test_engine_OpenLootBox_RollbackOnError(t *testing.T) {
	f := newEngineFixture(t)
	userID := testutil.Progress1.UserID

	box, err := f.engine.AwardLootBox(f.ctx, userID)
	require.NoError(t, err)

	require.NoError(t, xcontext.DB(f.ctx).Delete(&entity.UserProgress{}, "user_id=?", userID).Error)

	_, err = f.engine.OpenLootBox(f.ctx, userID, box.ID)
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	// The status change is rolled back with the rewards.
	boxes, err := f.engine.ListLootBoxes(f.ctx, userID)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.Equal(t, string(entity.LootBoxUnopened), boxes[0].Status)
}
