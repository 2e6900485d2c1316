package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vridhashram/internal/db"
	"vridhashram/internal/gallery"
	"vridhashram/internal/mailer"
	"vridhashram/internal/metrics"
	"vridhashram/internal/payment"
	"vridhashram/internal/ratelimit"
	"vridhashram/internal/server"
	"vridhashram/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before starting",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cCtx.Bool("migrate") {
		if err := db.Migrate(ctx, pool, 0); err != nil {
			return err
		}
	}

	m := metrics.New()

	sender := mailer.New(config, logger)
	if smtp, ok := sender.(*mailer.SMTPSender); ok {
		go func() {
			if err := smtp.Verify(ctx); err != nil {
				logger.WithError(err).Warn("smtp connection check failed")
				return
			}
			logger.Info("smtp connection verified")
		}()
	}

	objects, storageConfigured, err := newObjectStore(ctx, config, logger)
	if err != nil {
		return err
	}

	donations, err := newDonationService(config, logger, pool, objects, sender, m)
	if err != nil {
		return err
	}

	var intents payment.IntentClient
	if config.StripeSecretKey != "" {
		intents = payment.NewStripeClient(config.StripeSecretKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set - card payments are disabled")
	}

	paymentRepo := store.NewPaymentRepository(pool)
	registrationRepo := store.NewRegistrationRepository(pool)

	deps := server.Deps{
		Donations:         donations,
		Payments:          payment.New(logger, paymentRepo, intents, config.StripeCurrency),
		Gallery:           gallery.New(logger, store.NewPhotoRepository(pool), objects, config.PhotoPrefix, config.MaxUploadBytes),
		Registrations:     registrationRepo,
		PaymentStats:      paymentRepo,
		DonationStats:     store.NewDonationRepository(pool),
		Programs:          store.NewProgramRepository(pool),
		Database:          pool,
		Metrics:           m,
		MailConfigured:    mailer.Configured(sender),
		StorageConfigured: storageConfigured,
		StripeConfigured:  intents != nil,
	}

	if config.CognitoClientID != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		deps.Authenticator = cognitoidentityprovider.NewFromConfig(awsConfig)
	}

	if config.CognitoIssuerURL != "" {
		verifier, err := server.NewJWKSVerifier(ctx, config.CognitoIssuerURL)
		if err != nil {
			return err
		}
		deps.Verifier = verifier
	} else {
		logger.Warn("COGNITO_ISSUER_URL not set - admin routes will reject every request")
	}

	if config.RedisURL != "" {
		client, err := ratelimit.Connect(ctx, config.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable - submission rate limiting disabled")
		} else {
			defer client.Close()
			deps.Limiter = ratelimit.New(client, config.SubmitLimit, config.SubmitLimitWindow, config.RateLimitKeyPrefix)
		}
	}

	srv, err := server.New(config, logger, deps)
	if err != nil {
		return err
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        config.ServerPort,
			"environment": config.Environment,
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
