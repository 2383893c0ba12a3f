package testutil

import (
	"context"

	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

var (
	Progress1 = &entity.UserProgress{
		UserID:      "user1",
		DisplayName: "Alice",
		AvatarURL:   "https://example.com/alice.png",
		Score:       1000,
		Level:       2,
	}

	Progress2 = &entity.UserProgress{
		UserID:      "user2",
		DisplayName: "Bob",
		AvatarURL:   "https://example.com/bob.png",
		Score:       400,
		Level:       1,
	}

	Progress3 = &entity.UserProgress{
		UserID:      "user3",
		DisplayName: "Carol",
		Score:       2500,
		Level:       2,
	}

	Progresses = []*entity.UserProgress{Progress1, Progress2, Progress3}
)

// CreateFixtureDb inserts the fixture progresses into the database of ctx.
func CreateFixtureDb(ctx context.Context) {
	for _, p := range Progresses {
		record := *p
		record.RewardedLevel = record.Level
		record.ActivePerks = entity.Array[entity.Perk]{}
		record.ActiveMultipliers = entity.Array[entity.Multiplier]{}
		if err := xcontext.DB(ctx).Create(&record).Error; err != nil {
			panic(err)
		}
	}
}
