package riskreward

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/crypto"
	"github.com/questx-lab/gamification/pkg/enum"
)

const itemsPerLootBox = 3

// Sampler returns uniform random values in [0, 1).
type Sampler interface {
	Float64() float64
}

type cryptoSampler struct{}

func (cryptoSampler) Float64() float64 {
	return crypto.RandFloat64()
}

type LootEntry struct {
	Type   entity.RewardItemType `mapstructure:"type"`
	Amount float64               `mapstructure:"amount"`
	ID     string                `mapstructure:"id"`
	Weight float64               `mapstructure:"weight"`
}

func (e LootEntry) Item() entity.RewardItem {
	return entity.RewardItem{Type: e.Type, Amount: e.Amount, ID: e.ID}
}

type LootTables map[entity.LootBoxType][]LootEntry

func DefaultLootTables() LootTables {
	return LootTables{
		entity.LootBoxCommon: {
			{Type: entity.RewardXP, Amount: 100, Weight: 0.4},
			{Type: entity.RewardMultiplier, Amount: 1.5, Weight: 0.3},
			{Type: entity.RewardPerk, ID: "priority_booking", Weight: 0.3},
		},
		entity.LootBoxRare: {
			{Type: entity.RewardXP, Amount: 500, Weight: 0.3},
			{Type: entity.RewardMultiplier, Amount: 2, Weight: 0.3},
			{Type: entity.RewardPerk, ID: "free_ride", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "vip_status", Weight: 0.2},
		},
		entity.LootBoxEpic: {
			{Type: entity.RewardXP, Amount: 1000, Weight: 0.2},
			{Type: entity.RewardMultiplier, Amount: 3, Weight: 0.2},
			{Type: entity.RewardPerk, ID: "unlimited_rides", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "exclusive_access", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "premium_features", Weight: 0.2},
		},
		entity.LootBoxLegendary: {
			{Type: entity.RewardXP, Amount: 5000, Weight: 0.1},
			{Type: entity.RewardMultiplier, Amount: 5, Weight: 0.1},
			{Type: entity.RewardPerk, ID: "lifetime_vip", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "custom_theme", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "exclusive_emojis", Weight: 0.2},
			{Type: entity.RewardPerk, ID: "personal_driver", Weight: 0.2},
		},
	}
}

// LoadLootTables returns the default tables with the tiers in overrides
// replaced.
func LoadLootTables(overrides map[string][]map[string]any) (LootTables, error) {
	tables := DefaultLootTables()
	for tierName, rawEntries := range overrides {
		tier, err := enum.ToEnum[entity.LootBoxType](tierName)
		if err != nil {
			return nil, err
		}

		entries := []LootEntry{}
		for _, raw := range rawEntries {
			var entry LootEntry
			if err := mapstructure.Decode(raw, &entry); err != nil {
				return nil, err
			}

			if err := validateEntry(entry); err != nil {
				return nil, fmt.Errorf("invalid %s loot entry: %w", tier, err)
			}

			entries = append(entries, entry)
		}

		if totalWeight(entries) <= 0 {
			return nil, fmt.Errorf("%s loot table has no positive weight", tier)
		}

		tables[tier] = entries
	}

	return tables, nil
}

func validateEntry(entry LootEntry) error {
	if _, err := enum.ToEnum[entity.RewardItemType](string(entry.Type)); err != nil {
		return err
	}

	if entry.Weight < 0 {
		return fmt.Errorf("negative weight %f", entry.Weight)
	}

	switch entry.Type {
	case entity.RewardPerk:
		if entry.ID == "" {
			return fmt.Errorf("perk must have an id")
		}
	default:
		if entry.Amount <= 0 {
			return fmt.Errorf("%s must have a positive amount", entry.Type)
		}
	}

	return nil
}

// TierForStreak chooses the loot box tier from the current streak.
func TierForStreak(streak int) entity.LootBoxType {
	switch {
	case streak >= 30:
		return entity.LootBoxLegendary
	case streak >= 15:
		return entity.LootBoxEpic
	case streak >= 7:
		return entity.LootBoxRare
	}

	return entity.LootBoxCommon
}

// Draw picks n items independently from the table of tier. A random value is
// scaled by the total weight, so tables which don't sum to 1 never miss.
func (t LootTables) Draw(tier entity.LootBoxType, sampler Sampler, n int) []entity.RewardItem {
	entries := t[tier]
	total := totalWeight(entries)
	items := []entity.RewardItem{}
	if total <= 0 {
		return items
	}

	for i := 0; i < n; i++ {
		items = append(items, pick(entries, sampler.Float64()*total).Item())
	}

	return items
}

func pick(entries []LootEntry, r float64) LootEntry {
	var last LootEntry
	cumulative := 0.0
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}

		cumulative += e.Weight
		last = e
		if r < cumulative {
			return e
		}
	}

	// Rounding errors of the cumulative sum.
	return last
}

func totalWeight(entries []LootEntry) float64 {
	total := 0.0
	for _, e := range entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}

	return total
}
