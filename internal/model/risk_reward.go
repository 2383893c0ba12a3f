package model

import "time"

type RiskChallenge struct {
	ID                  string    `json:"id"`
	OriginalChallengeID string    `json:"original_challenge_id"`
	UserID              string    `json:"user_id"`
	BetAmount           int64     `json:"bet_amount"`
	PotentialReward     int64     `json:"potential_reward"`
	PotentialLoss       int64     `json:"potential_loss"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

type RewardItem struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount,omitempty"`
	ID     string  `json:"id,omitempty"`
}

type LootBox struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Type      string       `json:"type"`
	Contents  []RewardItem `json:"contents"`
	Status    string       `json:"status"`
	OpenedAt  *time.Time   `json:"opened_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type ResolveResult struct {
	Success bool     `json:"success"`
	Reward  int64    `json:"reward"`
	LootBox *LootBox `json:"loot_box,omitempty"`
}
