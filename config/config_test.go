package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "leaderboard:global", cfg.Gamification.LeaderboardKey)
	require.Equal(t, 10, cfg.Gamification.PerkCapacity)
}

func TestLoad_OverrideFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
Env = "prod"

[Redis]
Addr = "redis:6379"

[Gamification]
StreakTTL = "48h"
DailyBetLimit = 5000

[[Gamification.LootTables.common]]
type = "xp"
amount = 250
weight = 1.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, 48*time.Hour, cfg.Gamification.StreakTTL)
	require.Equal(t, int64(5000), cfg.Gamification.DailyBetLimit)
	require.Len(t, cfg.Gamification.LootTables["common"], 1)
	require.Equal(t, "xp", cfg.Gamification.LootTables["common"][0]["type"])

	// Untouched values keep their defaults.
	require.Equal(t, 24*time.Hour, cfg.Gamification.RiskChallengeTTL)
	require.Equal(t, "gamification", cfg.EngineRPCServer.RPCName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDatabaseConfigs_ConnectionString(t *testing.T) {
	d := DatabaseConfigs{Host: "db", Port: "3306", Database: "g", User: "u", Password: "p"}
	require.Equal(t,
		"u:p@tcp(db:3306)/g?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true&clientFoundRows=true",
		d.ConnectionString())
}
