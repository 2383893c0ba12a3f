package entity

import (
	"database/sql"

	"github.com/questx-lab/gamification/pkg/enum"
)

type LootBoxType string

var (
	LootBoxCommon    = enum.New(LootBoxType("common"))
	LootBoxRare      = enum.New(LootBoxType("rare"))
	LootBoxEpic      = enum.New(LootBoxType("epic"))
	LootBoxLegendary = enum.New(LootBoxType("legendary"))
)

type LootBoxStatus string

var (
	LootBoxUnopened = enum.New(LootBoxStatus("unopened"))
	LootBoxOpened   = enum.New(LootBoxStatus("opened"))
)

type RewardItemType string

var (
	RewardXP         = enum.New(RewardItemType("xp"))
	RewardMultiplier = enum.New(RewardItemType("multiplier"))
	RewardPerk       = enum.New(RewardItemType("perk"))
)

// RewardItem is one of {xp, amount}, {multiplier, amount} or {perk, id}.
type RewardItem struct {
	Type   RewardItemType `json:"type"`
	Amount float64        `json:"amount,omitempty"`
	ID     string         `json:"id,omitempty"`
}

type LootBox struct {
	Base

	UserID   string `gorm:"index"`
	Type     LootBoxType
	Contents Array[RewardItem] `gorm:"type:text"`
	Status   LootBoxStatus
	OpenedAt sql.NullTime
}
