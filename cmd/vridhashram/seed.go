package main

import (
	"context"
	"fmt"

	"vridhashram/internal/db"
	"vridhashram/internal/seed"
	"vridhashram/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Sync the programs table with the seed list",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger := logrus.StandardLogger()

		result, err := seed.SyncPrograms(ctx, logger, store.NewProgramRepository(pool), seed.Programs)
		if err != nil {
			return fmt.Errorf("failed to seed programs: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"upserted": result.Upserted,
			"deleted":  result.Deleted,
		}).Info("programs seeded")

		return nil
	},
}
