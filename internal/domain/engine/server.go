package engine

import (
	"context"

	"github.com/questx-lab/gamification/internal/domain/leaderboard"
	"github.com/questx-lab/gamification/internal/domain/riskreward"
	"github.com/questx-lab/gamification/internal/domain/score"
	"github.com/questx-lab/gamification/internal/model"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

// Server exposes the gamification operations as JSON-RPC methods. Method
// names are the lower camel case of the Go method names.
type Server struct {
	ctx              context.Context
	scoreEngine      score.Engine
	leaderboard      leaderboard.Leaderboard
	riskRewardEngine riskreward.Engine
}

func NewServer(
	ctx context.Context,
	scoreEngine score.Engine,
	leaderboard leaderboard.Leaderboard,
	riskRewardEngine riskreward.Engine,
) *Server {
	return &Server{
		ctx:              ctx,
		scoreEngine:      scoreEngine,
		leaderboard:      leaderboard,
		riskRewardEngine: riskRewardEngine,
	}
}

func (s *Server) ApplyActivity(
	ctx context.Context, userID string, points int64, meta map[string]any,
) (*model.ActivityResult, error) {
	ctx = s.context(ctx, userID)
	return s.scoreEngine.ApplyActivity(ctx, userID, points, meta)
}

func (s *Server) GetProgress(ctx context.Context, userID string) (*model.ProgressSnapshot, error) {
	ctx = s.context(ctx, userID)
	return s.scoreEngine.GetProgress(ctx, userID)
}

func (s *Server) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	ctx = s.context(ctx, "")
	return s.leaderboard.TopN(ctx, limit)
}

func (s *Server) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	ctx = s.context(ctx, userID)
	return s.scoreEngine.UpdateProfile(ctx, userID, displayName, avatarURL)
}

func (s *Server) CreateBet(
	ctx context.Context, userID, challengeID string, betAmount int64,
) (*model.RiskChallenge, error) {
	ctx = s.context(ctx, userID)
	return s.riskRewardEngine.CreateBet(ctx, userID, challengeID, betAmount)
}

func (s *Server) ResolveBet(
	ctx context.Context, userID, riskChallengeID string, success bool,
) (*model.ResolveResult, error) {
	ctx = s.context(ctx, userID)
	return s.riskRewardEngine.ResolveBet(ctx, userID, riskChallengeID, success)
}

func (s *Server) ListActiveBets(ctx context.Context, userID string) ([]model.RiskChallenge, error) {
	ctx = s.context(ctx, userID)
	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	return s.riskRewardEngine.ListActiveBets(ctx, userID)
}

func (s *Server) ListLootBoxes(ctx context.Context, userID string) ([]model.LootBox, error) {
	ctx = s.context(ctx, userID)
	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	return s.riskRewardEngine.ListLootBoxes(ctx, userID)
}

func (s *Server) OpenLootBox(ctx context.Context, userID, lootBoxID string) (*model.LootBox, error) {
	ctx = s.context(ctx, userID)
	return s.riskRewardEngine.OpenLootBox(ctx, userID, lootBoxID)
}

func (s *Server) context(ctx context.Context, userID string) context.Context {
	ctx = xcontext.Inherit(ctx, s.ctx)
	if userID != "" {
		ctx = xcontext.WithRequestUserID(ctx, userID)
	}

	return ctx
}
