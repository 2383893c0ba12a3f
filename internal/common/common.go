package common

const RiskChallengeIDPrefix = "risk_"

// Perks granted by level-up packages.
const (
	PerkVIPAccess         = "vip_access"
	PerkExclusiveDiscount = "exclusive_discount"
)

// Sources of perks and multipliers.
const (
	SourceLevelUp = "level_up"
	SourceLootBox = "loot_box"
)
