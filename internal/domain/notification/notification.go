package notification

import (
	"context"
	"fmt"

	"github.com/fatih/structs"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/enum"
)

type Kind string

var (
	KindLevelUp        = enum.New(Kind("level_up"))
	KindRiskChallenge  = enum.New(Kind("risk_challenge"))
	KindRiskCompletion = enum.New(Kind("risk_completion"))
	KindLootBox        = enum.New(Kind("loot_box"))
	KindLootBoxOpened  = enum.New(Kind("loot_box_opened"))
)

type Severity string

var (
	SeverityInfo    = enum.New(Severity("info"))
	SeveritySuccess = enum.New(Severity("success"))
	SeverityWarning = enum.New(Severity("warning"))
)

type Notification struct {
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"severity"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data"`
}

// Gateway delivers a notification to a user. Delivery is best-effort.
type Gateway interface {
	Send(ctx context.Context, userID string, n Notification) error
}

// Notifier accepts notifications without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification)
}

type LevelUpData struct {
	Level  int      `structs:"level"`
	Points int64    `structs:"points"`
	Perks  []string `structs:"perks"`
}

func LevelUp(data LevelUpData) Notification {
	return Notification{
		Kind:     KindLevelUp,
		Severity: SeveritySuccess,
		Title:    "Level Up! 🎉",
		Message:  fmt.Sprintf("Congratulations! You've reached level %d!", data.Level),
		Data:     structs.Map(data),
	}
}

type riskChallengeData struct {
	ChallengeID     string `structs:"challenge_id"`
	BetAmount       int64  `structs:"bet_amount"`
	PotentialReward int64  `structs:"potential_reward"`
	PotentialLoss   int64  `structs:"potential_loss"`
}

func RiskChallengeCreated(rc *entity.RiskChallenge) Notification {
	return Notification{
		Kind:     KindRiskChallenge,
		Severity: SeverityInfo,
		Title:    "Risk-Reward Challenge Created! 🎲",
		Message: fmt.Sprintf(
			"You've bet %d XP on completing this challenge. Win %d XP or lose %d XP!",
			rc.BetAmount, rc.PotentialReward, rc.PotentialLoss),
		Data: structs.Map(riskChallengeData{
			ChallengeID:     rc.ID,
			BetAmount:       rc.BetAmount,
			PotentialReward: rc.PotentialReward,
			PotentialLoss:   rc.PotentialLoss,
		}),
	}
}

type riskCompletionData struct {
	ChallengeID string `structs:"challenge_id"`
	Success     bool   `structs:"success"`
	Reward      int64  `structs:"reward"`
}

func RiskChallengeCompleted(rc *entity.RiskChallenge, success bool) Notification {
	if success {
		return Notification{
			Kind:     KindRiskCompletion,
			Severity: SeveritySuccess,
			Title:    "Risk Challenge Won! 🎉",
			Message:  fmt.Sprintf("Congratulations! You've won %d XP!", rc.PotentialReward),
			Data: structs.Map(riskCompletionData{
				ChallengeID: rc.ID,
				Success:     true,
				Reward:      rc.PotentialReward,
			}),
		}
	}

	return Notification{
		Kind:     KindRiskCompletion,
		Severity: SeverityWarning,
		Title:    "Risk Challenge Lost 😢",
		Message:  fmt.Sprintf("Better luck next time! You've lost %d XP.", rc.PotentialLoss),
		Data: structs.Map(riskCompletionData{
			ChallengeID: rc.ID,
			Success:     false,
			Reward:      -rc.PotentialLoss,
		}),
	}
}

type lootBoxData struct {
	LootBoxID string              `structs:"loot_box_id"`
	Type      string              `structs:"type"`
	Contents  []entity.RewardItem `structs:"contents,omitempty,omitnested"`
}

func LootBoxAwarded(box *entity.LootBox) Notification {
	return Notification{
		Kind:     KindLootBox,
		Severity: SeverityInfo,
		Title:    "New Loot Box! 🎁",
		Message:  fmt.Sprintf("You've earned a %s loot box! Open it to claim your rewards!", box.Type),
		Data:     structs.Map(lootBoxData{LootBoxID: box.ID, Type: string(box.Type)}),
	}
}

func LootBoxOpened(box *entity.LootBox) Notification {
	return Notification{
		Kind:     KindLootBoxOpened,
		Severity: SeveritySuccess,
		Title:    "Loot Box Opened! 🎉",
		Message:  "Check out your new rewards!",
		Data: structs.Map(lootBoxData{
			LootBoxID: box.ID,
			Type:      string(box.Type),
			Contents:  box.Contents,
		}),
	}
}
