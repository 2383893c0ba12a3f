package entity

import "github.com/questx-lab/gamification/pkg/enum"

type ActivityType string

var (
	ActivityGeneric        = enum.New(ActivityType("activity"))
	ActivityStreakBonus    = enum.New(ActivityType("streak_bonus"))
	ActivityLevelUp        = enum.New(ActivityType("level_up"))
	ActivityRiskBet        = enum.New(ActivityType("risk_bet"))
	ActivityRiskCompletion = enum.New(ActivityType("risk_completion"))
	ActivityLootBox        = enum.New(ActivityType("loot_box"))
)

// Activity is an append-only audit record of a score change.
type Activity struct {
	SnowFlakeBase

	UserID   string `gorm:"index"`
	Type     ActivityType
	Points   int64
	Metadata Map `gorm:"type:text"`
}
