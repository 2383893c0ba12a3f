package model

import "time"

type Perk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	GrantedAt time.Time `json:"granted_at"`
}

type Multiplier struct {
	Value     float64   `json:"value"`
	Source    string    `json:"source"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Activity struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Points    int64          `json:"points"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

type ActivityResult struct {
	Score       int64 `json:"score"`
	Level       int   `json:"level"`
	Streak      int   `json:"streak"`
	StreakBonus int64 `json:"streak_bonus"`
	LevelUp     bool  `json:"level_up"`
}

type ProgressSnapshot struct {
	UserID            string       `json:"user_id"`
	DisplayName       string       `json:"display_name"`
	AvatarURL         string       `json:"avatar_url"`
	Score             int64        `json:"score"`
	Level             int          `json:"level"`
	Streak            int          `json:"streak"`
	Rank              int          `json:"rank"`
	ActivePerks       []Perk       `json:"active_perks"`
	ActiveMultipliers []Multiplier `json:"active_multipliers"`
	RecentActivity    []Activity   `json:"recent_activity"`
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Score       int64  `json:"score"`
	Level       int    `json:"level"`
	Rank        int    `json:"rank"`
}
