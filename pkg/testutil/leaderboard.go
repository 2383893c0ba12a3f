package testutil

import (
	"context"

	"github.com/questx-lab/gamification/internal/model"
)

type MockLeaderboard struct {
	UpsertFunc  func(ctx context.Context, userID string, score int64) error
	TopNFunc    func(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	RankOfFunc  func(ctx context.Context, userID string) (int, error)
	RebuildFunc func(ctx context.Context) error
}

func (m *MockLeaderboard) Upsert(ctx context.Context, userID string, score int64) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, userID, score)
	}

	return nil
}

func (m *MockLeaderboard) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if m.TopNFunc != nil {
		return m.TopNFunc(ctx, n)
	}

	return nil, nil
}

func (m *MockLeaderboard) RankOf(ctx context.Context, userID string) (int, error) {
	if m.RankOfFunc != nil {
		return m.RankOfFunc(ctx, userID)
	}

	return 0, nil
}

func (m *MockLeaderboard) Rebuild(ctx context.Context) error {
	if m.RebuildFunc != nil {
		return m.RebuildFunc(ctx)
	}

	return nil
}
