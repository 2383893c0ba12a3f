package common

import (
	"fmt"
	"time"
)

func RedisKeyStreak(userID string) string {
	return fmt.Sprintf("streak:%s", userID)
}

func RedisKeyRiskChallenge(userID, riskChallengeID string) string {
	return fmt.Sprintf("risk:%s:%s", userID, riskChallengeID)
}

// RedisKeyRiskChallengeSeen marks a source challenge which a user already bet
// on. It outlives the resolution of the bet.
func RedisKeyRiskChallengeSeen(userID, sourceChallengeID string) string {
	return fmt.Sprintf("riskseen:%s:%s", userID, sourceChallengeID)
}

// RedisKeyDailyBet is the counter of total bet amount of a user in the UTC day
// of t.
func RedisKeyDailyBet(userID string, t time.Time) string {
	return fmt.Sprintf("dailybet:%s:%s", userID, t.UTC().Format("20060102"))
}
