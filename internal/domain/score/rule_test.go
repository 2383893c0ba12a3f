package score

import (
	"testing"
	"time"

	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		score int64
		want  int
	}{
		{score: -10, want: 1},
		{score: 0, want: 1},
		{score: 999, want: 1},
		{score: 1000, want: 2},
		{score: 3999, want: 2},
		{score: 4000, want: 3},
		{score: 9000, want: 4},
		{score: 16000, want: 5},
		{score: 81000, want: 10},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Level(tt.score), "score %d", tt.score)
	}
}

func TestRewards(t *testing.T) {
	require.Equal(t, LevelRewards{Level: 3, Points: 3000, Perks: []string{}}, Rewards(3))
	require.Equal(t, []string{common.PerkVIPAccess}, Rewards(5).Perks)
	require.Equal(t, []string{common.PerkVIPAccess, common.PerkExclusiveDiscount}, Rewards(10).Perks)
	require.Equal(t, int64(10000), Rewards(10).Points)
}

func TestStreakBonus(t *testing.T) {
	tests := []struct {
		streak int
		want   int64
	}{
		{streak: 0, want: 0},
		{streak: 2, want: 0},
		{streak: 3, want: 25},
		{streak: 4, want: 25},
		{streak: 5, want: 50},
		{streak: 7, want: 100},
		{streak: 100, want: 100},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, StreakBonus(tt.streak), "streak %d", tt.streak)
	}
}

func TestNextStreak(t *testing.T) {
	last := time.Date(2023, 5, 10, 10, 0, 0, 0, time.UTC)
	state := &entity.StreakState{LastActivityAt: last, CurrentStreak: 4}

	tests := []struct {
		name  string
		state *entity.StreakState
		now   time.Time
		want  int
	}{
		{name: "no record", state: nil, now: last, want: 1},
		{name: "same day", state: state, now: last.Add(3 * time.Hour), want: 5},
		{name: "next day within 24h", state: state, now: last.Add(23 * time.Hour), want: 5},
		{name: "exactly 24h", state: state, now: last.Add(24 * time.Hour), want: 5},
		{name: "gap more than 24h", state: state, now: last.Add(25 * time.Hour), want: 1},
		{name: "clock skew", state: state, now: last.Add(-time.Minute), want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NextStreak(tt.state, tt.now))
		})
	}
}

func TestNextStreak_EarlyInDay(t *testing.T) {
	last := time.Date(2023, 5, 10, 0, 30, 0, 0, time.UTC)
	state := &entity.StreakState{LastActivityAt: last, CurrentStreak: 4}

	require.Equal(t, 5, NextStreak(state, last.Add(23*time.Hour)))
	require.Equal(t, 5, NextStreak(state, last.Add(time.Minute)))
	require.Equal(t, 1, NextStreak(state, last.Add(25*time.Hour)))
}

func TestEffectiveStreak(t *testing.T) {
	last := time.Date(2023, 5, 10, 10, 0, 0, 0, time.UTC)
	state := &entity.StreakState{LastActivityAt: last, CurrentStreak: 6}

	require.Equal(t, 0, EffectiveStreak(nil, last))
	require.Equal(t, 6, EffectiveStreak(state, last.Add(20*time.Hour)))
	require.Equal(t, 0, EffectiveStreak(state, last.Add(25*time.Hour)))
}
