package model

import (
	"strconv"
	"time"

	"github.com/questx-lab/gamification/internal/entity"
)

func ConvertPerks(perks []entity.Perk) []Perk {
	result := []Perk{}
	for _, p := range perks {
		result = append(result, Perk{ID: p.ID, Source: p.Source, GrantedAt: p.GrantedAt})
	}

	return result
}

func ConvertMultipliers(multipliers []entity.Multiplier) []Multiplier {
	result := []Multiplier{}
	for _, m := range multipliers {
		result = append(result, Multiplier{Value: m.Value, Source: m.Source, ExpiresAt: m.ExpiresAt})
	}

	return result
}

func ConvertActivity(a *entity.Activity) Activity {
	return Activity{
		ID:        strconv.FormatInt(a.ID, 10),
		Type:      string(a.Type),
		Points:    a.Points,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
}

func ConvertRiskChallenge(rc *entity.RiskChallenge) RiskChallenge {
	return RiskChallenge{
		ID:                  rc.ID,
		OriginalChallengeID: rc.OriginalChallengeID,
		UserID:              rc.UserID,
		BetAmount:           rc.BetAmount,
		PotentialReward:     rc.PotentialReward,
		PotentialLoss:       rc.PotentialLoss,
		Status:              string(rc.Status),
		CreatedAt:           rc.CreatedAt,
		ExpiresAt:           rc.ExpiresAt,
	}
}

func ConvertLootBox(box *entity.LootBox) LootBox {
	contents := []RewardItem{}
	for _, item := range box.Contents {
		contents = append(contents, RewardItem{Type: string(item.Type), Amount: item.Amount, ID: item.ID})
	}

	var openedAt *time.Time
	if box.OpenedAt.Valid {
		t := box.OpenedAt.Time
		openedAt = &t
	}

	return LootBox{
		ID:        box.ID,
		UserID:    box.UserID,
		Type:      string(box.Type),
		Contents:  contents,
		Status:    string(box.Status),
		OpenedAt:  openedAt,
		CreatedAt: box.CreatedAt,
	}
}
