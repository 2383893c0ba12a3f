package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/questx-lab/gamification/internal/model"
	"github.com/questx-lab/gamification/pkg/errorx"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

type EngineCaller interface {
	ApplyActivity(ctx context.Context, userID string, points int64, meta map[string]any) (*model.ActivityResult, error)
	GetProgress(ctx context.Context, userID string) (*model.ProgressSnapshot, error)
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error
	CreateBet(ctx context.Context, userID, challengeID string, betAmount int64) (*model.RiskChallenge, error)
	ResolveBet(ctx context.Context, userID, riskChallengeID string, success bool) (*model.ResolveResult, error)
	ListActiveBets(ctx context.Context, userID string) ([]model.RiskChallenge, error)
	ListLootBoxes(ctx context.Context, userID string) ([]model.LootBox, error)
	OpenLootBox(ctx context.Context, userID, lootBoxID string) (*model.LootBox, error)
	Close()
}

type engineCaller struct {
	client *rpc.Client
}

func NewEngineCaller(client *rpc.Client) *engineCaller {
	return &engineCaller{client: client}
}

func (c *engineCaller) ApplyActivity(
	ctx context.Context, userID string, points int64, meta map[string]any,
) (*model.ActivityResult, error) {
	var result model.ActivityResult
	if err := c.call(ctx, &result, "applyActivity", userID, points, meta); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *engineCaller) GetProgress(ctx context.Context, userID string) (*model.ProgressSnapshot, error) {
	var result model.ProgressSnapshot
	if err := c.call(ctx, &result, "getProgress", userID); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *engineCaller) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var result []model.LeaderboardEntry
	if err := c.call(ctx, &result, "getLeaderboard", limit); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *engineCaller) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	return c.call(ctx, nil, "updateProfile", userID, displayName, avatarURL)
}

func (c *engineCaller) CreateBet(
	ctx context.Context, userID, challengeID string, betAmount int64,
) (*model.RiskChallenge, error) {
	var result model.RiskChallenge
	if err := c.call(ctx, &result, "createBet", userID, challengeID, betAmount); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *engineCaller) ResolveBet(
	ctx context.Context, userID, riskChallengeID string, success bool,
) (*model.ResolveResult, error) {
	var result model.ResolveResult
	if err := c.call(ctx, &result, "resolveBet", userID, riskChallengeID, success); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *engineCaller) ListActiveBets(ctx context.Context, userID string) ([]model.RiskChallenge, error) {
	var result []model.RiskChallenge
	if err := c.call(ctx, &result, "listActiveBets", userID); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *engineCaller) ListLootBoxes(ctx context.Context, userID string) ([]model.LootBox, error) {
	var result []model.LootBox
	if err := c.call(ctx, &result, "listLootBoxes", userID); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *engineCaller) OpenLootBox(ctx context.Context, userID, lootBoxID string) (*model.LootBox, error) {
	var result model.LootBox
	if err := c.call(ctx, &result, "openLootBox", userID, lootBoxID); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *engineCaller) Close() {
	c.client.Close()
}

// call converts errors returned by the server back to errorx.Error, so
// callers can check them with errors.Is.
func (c *engineCaller) call(ctx context.Context, result any, funcName string, args ...any) error {
	err := c.client.CallContext(ctx, result, c.fname(ctx, funcName), args...)
	if err == nil {
		return nil
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return errorx.New(errorx.Code(rpcErr.ErrorCode()), "%s", rpcErr.Error())
	}

	return errorx.New(errorx.UpstreamUnavailable, "Cannot call engine: %v", err)
}

func (c *engineCaller) fname(ctx context.Context, funcName string) string {
	return fmt.Sprintf("%s_%s", xcontext.Configs(ctx).EngineRPCServer.RPCName, funcName)
}
