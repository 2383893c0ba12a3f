package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "Gamification"
	app.Usage = "Scores, streaks, leaderboard and risk rewards for user activities"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to the toml configuration file",
			EnvVars: []string{"GAMIFICATION_CONFIG"},
		},
	}
	app.Before = s.loadConfig
	app.Commands = []*cli.Command{
		{
			Action:      s.startEngine,
			Name:        "engine",
			Usage:       "Start gamification engine",
			Category:    "Engine",
			Description: `Used to start the rpc server which applies activities, manages bets and loot boxes.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Used to prune expired multipliers and rebuild the leaderboard periodically.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database",
			Category:    "Database",
			Description: `Used to apply the database migrations and exit.`,
		},
	}

	s.app = app
}
