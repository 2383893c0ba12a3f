package entity

import (
	"database/sql"
	"time"
)

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

type UserProgress struct {
	UserID      string `gorm:"primaryKey"`
	DisplayName string
	AvatarURL   string

	Score int64 `gorm:"index"`
	Level int

	// RewardedLevel is the highest level whose level-up package was granted.
	// It never decreases, so losing and regaining score does not pay twice.
	RewardedLevel int

	Streak         int
	LastActivityAt sql.NullTime

	ActivePerks       Array[Perk]       `gorm:"type:text"`
	ActiveMultipliers Array[Multiplier] `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserProgress) TableName() string {
	return "user_progresses"
}

// UnexpiredMultipliers returns the multipliers which are still effective at
// now.
func (p *UserProgress) UnexpiredMultipliers(now time.Time) []Multiplier {
	result := []Multiplier{}
	for _, m := range p.ActiveMultipliers {
		if m.ExpiresAt.After(now) {
			result = append(result, m)
		}
	}

	return result
}
