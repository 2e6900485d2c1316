package main

import (
	"context"
	"fmt"

	"vridhashram/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply database migrations",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "to",
			Usage: "Migrate up to this version instead of the latest",
		},
	},
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

		if err := db.Migrate(ctx, pool, c.Int64("to")); err != nil {
			return err
		}

		return db.MigrationStatus(ctx, pool)
	},
}
