package score

import (
	"math"
	"time"

	"github.com/questx-lab/gamification/internal/common"
	"github.com/questx-lab/gamification/internal/entity"
)

const (
	pointsPerLevelUnit = 1000
	streakWindow       = 24 * time.Hour
)

// Level returns floor(sqrt(score/1000)) + 1. A negative score is level 1.
func Level(score int64) int {
	if score <= 0 {
		return 1
	}

	return int(isqrt(score/pointsPerLevelUnit)) + 1
}

func isqrt(n int64) int64 {
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}

	for (r+1)*(r+1) <= n {
		r++
	}

	return r
}

type LevelRewards struct {
	Level  int
	Points int64
	Perks  []string
}

// Rewards returns the package granted when a user reaches level.
func Rewards(level int) LevelRewards {
	rewards := LevelRewards{
		Level:  level,
		Points: int64(level) * pointsPerLevelUnit,
		Perks:  []string{},
	}

	if level%5 == 0 {
		rewards.Perks = append(rewards.Perks, common.PerkVIPAccess)
	}

	if level%10 == 0 {
		rewards.Perks = append(rewards.Perks, common.PerkExclusiveDiscount)
	}

	return rewards
}

func StreakBonus(streak int) int64 {
	switch {
	case streak >= 7:
		return 100
	case streak >= 5:
		return 50
	case streak >= 3:
		return 25
	}

	return 0
}

// NextStreak returns the streak after an activity at now. Every activity within
// one day of the last one advances the streak, a longer gap restarts it from 1.
func NextStreak(state *entity.StreakState, now time.Time) int {
	if state == nil || state.CurrentStreak < 1 {
		return 1
	}

	gap := now.Sub(state.LastActivityAt)
	if gap > streakWindow {
		return 1
	}

	if gap < 0 {
		return state.CurrentStreak
	}

	return state.CurrentStreak + 1
}

// EffectiveStreak returns the streak which is still alive at now, or 0.
func EffectiveStreak(state *entity.StreakState, now time.Time) int {
	if state == nil || now.Sub(state.LastActivityAt) > streakWindow {
		return 0
	}

	return state.CurrentStreak
}
