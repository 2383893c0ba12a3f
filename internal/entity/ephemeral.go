package entity

import (
	"time"

	"github.com/questx-lab/gamification/pkg/enum"
)

// StreakState lives in redis. Its absence means the user has no streak.
type StreakState struct {
	LastActivityAt time.Time `json:"last_activity_at"`
	CurrentStreak  int       `json:"current_streak"`
}

type RiskChallengeStatus string

var (
	RiskChallengeActive   = enum.New(RiskChallengeStatus("active"))
	RiskChallengeResolved = enum.New(RiskChallengeStatus("resolved"))
)

// RiskChallenge is a one-shot bet record which lives in redis.
type RiskChallenge struct {
	ID                  string              `json:"id"`
	OriginalChallengeID string              `json:"original_challenge_id"`
	UserID              string              `json:"user_id"`
	BetAmount           int64               `json:"bet_amount"`
	PotentialReward     int64               `json:"potential_reward"`
	PotentialLoss       int64               `json:"potential_loss"`
	Status              RiskChallengeStatus `json:"status"`
	CreatedAt           time.Time           `json:"created_at"`
	ExpiresAt           time.Time           `json:"expires_at"`
}
