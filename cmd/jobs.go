package cmd

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-entitlements/app/plan"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/token"
	"github.com/vibast-solutions/ms-go-entitlements/config"

	_ "github.com/go-sql-driver/mysql"
)

var expireWorker bool

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark entitlements whose window has closed as inactive",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, entitlementService, cleanup := mustCreateEntitlementService()
		defer cleanup()

		fn := func(ctx context.Context) error {
			return entitlementService.RunExpirationBatch(ctx)
		}

		if expireWorker {
			runWorker("expire", cfg.Jobs.ExpirationCheckInterval, fn)
			return
		}
		runJob("expire", func() error { return fn(context.Background()) })
	},
}

func init() {
	rootCmd.AddCommand(expireCmd)
	expireCmd.Flags().BoolVar(&expireWorker, "worker", false, "Run continuously using configured interval")
}

func runWorker(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(ctx) })
		}
	}
}

func mustCreateEntitlementService() (*config.Config, *service.EntitlementService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	entitlementRepo := repository.NewEntitlementRepository(db)
	codeRepo := repository.NewActivationCodeRepository(db)
	codeService := service.NewActivationCodeService(codeRepo, cfg.Entitlements)
	entitlementService := service.NewEntitlementService(
		entitlementRepo,
		codeService,
		plan.NewCatalog(cfg.Entitlements.CampaignCutoff),
		token.NewCodec(cfg.Entitlements.SigningSecret),
		cfg.Entitlements,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, entitlementService, cleanup
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
