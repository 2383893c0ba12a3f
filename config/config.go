package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string
	LogLevel string

	Database        DatabaseConfigs
	Redis           RedisConfigs
	Kafka           KafkaConfigs
	EngineRPCServer RPCServerConfigs
	Gamification    GamificationConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true&clientFoundRows=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type RPCServerConfigs struct {
	ServerConfigs

	RPCName  string
	Endpoint string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr              string
	ClientID          string
	NotificationTopic string
}

type GamificationConfigs struct {
	LeaderboardKey string

	StreakTTL            time.Duration
	RiskChallengeTTL     time.Duration
	MultiplierDuration   time.Duration
	PerkCapacity         int
	RecentActivityLimit  int
	DefaultLeaderboardN  int
	MaxLeaderboardN      int
	DailyBetLimit        int64
	NotificationQueue    int
	NotificationWorkers  int
	MultiplierPruneEvery time.Duration
	LeaderboardSyncEvery time.Duration

	// LootTables overrides the built-in reward tables. Keys are tier names,
	// values are lists of maps decoded into loot entries.
	LootTables map[string][]map[string]any
}

// Default returns the configurations used when no file overrides a value.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			Database: "gamification",
			User:     "mysql",
			Password: "mysql",
			LogLevel: "error",
		},
		Redis: RedisConfigs{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfigs{
			Addr:              "localhost:9092",
			ClientID:          "gamification",
			NotificationTopic: "gamification.notification",
		},
		EngineRPCServer: RPCServerConfigs{
			ServerConfigs: ServerConfigs{Host: "localhost", Port: "8090"},
			RPCName:       "gamification",
			Endpoint:      "http://localhost:8090",
		},
		Gamification: GamificationConfigs{
			LeaderboardKey:       "leaderboard:global",
			StreakTTL:            24 * time.Hour,
			RiskChallengeTTL:     24 * time.Hour,
			MultiplierDuration:   24 * time.Hour,
			PerkCapacity:         10,
			RecentActivityLimit:  10,
			DefaultLeaderboardN:  10,
			MaxLeaderboardN:      100,
			DailyBetLimit:        0,
			NotificationQueue:    1024,
			NotificationWorkers:  4,
			MultiplierPruneEvery: time.Hour,
			LeaderboardSyncEvery: 30 * time.Minute,
		},
	}
}

// Load reads a TOML file on top of the default configurations. An empty path
// returns the defaults.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}
