package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"vridhashram/internal/db"
	"vridhashram/internal/mailer"
	"vridhashram/internal/storage"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var donationsCommand = &cli.Command{
	Name:  "donations",
	Usage: "Inspect and repair manual donations",
	Subcommands: []*cli.Command{
		{
			Name:      "show",
			Usage:     "Print a donation record",
			ArgsUsage: "<id>",
			Action:    showDonation,
		},
		{
			Name:   "resend-certificates",
			Usage:  "Retry the certificate email for every verified donation",
			Action: resendCertificates,
		},
	},
}

func showDonation(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return cli.Exit("donation id is required", 1)
	}

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

	logger := newLogger()

	svc, err := newDonationService(cfg, logger, pool, storage.Disabled{}, mailer.Disabled{}, nil)
	if err != nil {
		return err
	}

	donation, err := svc.Donation(ctx, id)
	if err != nil {
		return err
	}

	_, err = pp.Println(donation)
	return err
}

func resendCertificates(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	logger := newLogger()

	sender := mailer.New(cfg, logger)
	if !mailer.Configured(sender) {
		return cli.Exit("no mail transport configured, set RESEND_API_KEY or EMAIL_USER/EMAIL_PASS", 1)
	}

	svc, err := newDonationService(cfg, logger, pool, storage.Disabled{}, sender, nil)
	if err != nil {
		return err
	}

	sent, failed, err := svc.ResendPendingCertificates(ctx)
	logger.WithFields(logrus.Fields{
		"sent":   sent,
		"failed": failed,
	}).Info("certificate resend finished")
	if err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d certificates could not be sent", failed), 1)
	}

	return nil
}
