package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"newspush/internal/config"
	"newspush/internal/domain/entity"
	pgRepo "newspush/internal/infra/adapter/persistence/postgres"
	"newspush/internal/infra/db"
	"newspush/internal/infra/push"
	"newspush/internal/repository"
	"newspush/internal/usecase/dispatch"
)

const defaultConfigPath = "config/dispatcher.yaml"

func main() {
	logger := initLogger()

	configPath := os.Getenv("DISPATCHER_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.LoadDispatcherConfig(configPath)
	if err != nil {
		logger.Error("failed to load dispatcher configuration",
			slog.String("path", configPath),
			slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("dispatcher configuration loaded",
		slog.String("path", configPath),
		slog.String("sweep_interval", cfg.Dispatcher.SweepInterval),
		slog.Duration("sweep_lookback", cfg.Dispatcher.SweepLookback),
		slog.Int("sweep_limit", cfg.Dispatcher.SweepLimit),
		slog.Bool("android_enabled", cfg.Dispatcher.Platforms.Android.Enabled),
		slog.Bool("ios_enabled", cfg.Dispatcher.Platforms.IOS.Enabled))

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	waitForMigrations(logger, database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appRepo := pgRepo.NewAppRepo(database)
	deliveryRepo := pgRepo.NewDeliveryRepo(database)
	articleRepo := pgRepo.NewArticleRepo(database)

	svc := buildDispatchService(logger, cfg, appRepo, deliveryRepo)

	startMetricsServer(ctx, logger)
	startSweep(ctx, logger, svc, articleRepo, cfg)

	<-ctx.Done()
	logger.Info("dispatcher shutting down")
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// waitForMigrations blocks until the schema is queryable, so a fresh deploy
// does not race its migration job.
func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM apps LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

// buildDispatchService wires the per-platform gateways and fan-out shapes
// from configuration into a dispatch service.
func buildDispatchService(
	logger *slog.Logger,
	cfg *config.DispatcherConfig,
	appRepo repository.AppRepository,
	deliveryRepo repository.DeliveryRepository,
) *dispatch.Service {
	gateways := []dispatch.Gateway{
		buildAndroidGateway(logger, cfg.Dispatcher.Platforms.Android),
		buildIOSGateway(logger, cfg.Dispatcher.Platforms.IOS),
	}

	opts := []dispatch.Option{
		dispatch.WithLogger(logger),
	}
	if cfg.Dispatcher.PagePace > 0 {
		opts = append(opts, dispatch.WithPacer(dispatch.NewRatePacer(cfg.Dispatcher.PagePace)))
	} else {
		opts = append(opts, dispatch.WithPacer(dispatch.NewNoopPacer()))
	}
	opts = append(opts,
		dispatch.WithPageConfig(entity.PlatformAndroid, pageConfig(cfg.Dispatcher.Platforms.Android, dispatch.DefaultAndroidPageConfig())),
		dispatch.WithPageConfig(entity.PlatformIOS, pageConfig(cfg.Dispatcher.Platforms.IOS, dispatch.DefaultIOSPageConfig())),
	)

	return dispatch.NewService(appRepo, deliveryRepo, gateways, opts...)
}

func pageConfig(p config.PlatformConfig, defaults dispatch.PageConfig) dispatch.PageConfig {
	out := defaults
	if p.BatchSize > 0 {
		out.BatchSize = p.BatchSize
	}
	if p.MaxInFlight > 0 {
		out.MaxInFlight = p.MaxInFlight
	}
	return out
}

// buildAndroidGateway creates the FCM gateway, or a no-op gateway when the
// platform is disabled or the credential is missing.
func buildAndroidGateway(logger *slog.Logger, p config.PlatformConfig) dispatch.Gateway {
	if !p.Enabled {
		logger.Info("android dispatch disabled")
		return push.NewNoopGateway(entity.PlatformAndroid)
	}

	key, err := p.Credential()
	if err != nil {
		logger.Warn("FCM credential missing, android dispatch disabled", slog.Any("error", err))
		return push.NewNoopGateway(entity.PlatformAndroid)
	}

	fcmCfg := push.DefaultFCMConfig()
	fcmCfg.ServerKey = key
	if p.Endpoint != "" {
		fcmCfg.Endpoint = p.Endpoint
	}

	logger.Info("FCM gateway initialized", slog.String("endpoint", fcmCfg.Endpoint))
	return push.NewFCMGateway(fcmCfg)
}

// buildIOSGateway creates the APNs gateway, or a no-op gateway when the
// platform is disabled or the credential is missing.
func buildIOSGateway(logger *slog.Logger, p config.PlatformConfig) dispatch.Gateway {
	if !p.Enabled {
		logger.Info("ios dispatch disabled")
		return push.NewNoopGateway(entity.PlatformIOS)
	}

	token, err := p.Credential()
	if err != nil {
		logger.Warn("APNs credential missing, ios dispatch disabled", slog.Any("error", err))
		return push.NewNoopGateway(entity.PlatformIOS)
	}

	apnsCfg := push.DefaultAPNSConfig()
	apnsCfg.AuthToken = token
	apnsCfg.Topic = p.Topic
	if p.Endpoint != "" {
		apnsCfg.Endpoint = p.Endpoint
	}

	logger.Info("APNs gateway initialized",
		slog.String("endpoint", apnsCfg.Endpoint),
		slog.String("topic", apnsCfg.Topic))
	return push.NewAPNSGateway(apnsCfg)
}

// startSweep schedules the periodic sweep that feeds fresh articles into
// dispatch runs for every enabled platform.
func startSweep(
	ctx context.Context,
	logger *slog.Logger,
	svc *dispatch.Service,
	articles repository.ArticleRepository,
	cfg *config.DispatcherConfig,
) {
	var platforms []entity.Platform
	if cfg.Dispatcher.Platforms.Android.Enabled {
		platforms = append(platforms, entity.PlatformAndroid)
	}
	if cfg.Dispatcher.Platforms.IOS.Enabled {
		platforms = append(platforms, entity.PlatformIOS)
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Dispatcher.SweepInterval, func() {
		runSweep(ctx, logger, svc, articles, platforms, cfg.Dispatcher.SweepLookback, cfg.Dispatcher.SweepLimit)
	})
	if err != nil {
		logger.Error("failed to schedule sweep", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		stopCtx := c.Stop()
		<-stopCtx.Done()
		logger.Info("sweep scheduler stopped")
	}()

	logger.Info("sweep scheduler started",
		slog.String("schedule", cfg.Dispatcher.SweepInterval),
		slog.Int("platforms", len(platforms)))
}

// runSweep executes one sweep: every article published inside the lookback
// window that has no ledger row for a platform gets a dispatch run there.
func runSweep(
	ctx context.Context,
	logger *slog.Logger,
	svc *dispatch.Service,
	articles repository.ArticleRepository,
	platforms []entity.Platform,
	lookback time.Duration,
	limit int,
) {
	start := time.Now()
	since := start.Add(-lookback)

	for _, platform := range platforms {
		pending, err := articles.ListPendingDispatch(ctx, platform, since, limit)
		if err != nil {
			logger.Error("sweep query failed",
				slog.String("platform", string(platform)),
				slog.Any("error", err))
			continue
		}

		for _, article := range pending {
			result, err := svc.Dispatch(ctx, article, platform)
			if err != nil {
				logger.Error("dispatch run failed",
					slog.Int64("article_id", article.ID),
					slog.String("platform", string(platform)),
					slog.Any("error", err))
				continue
			}
			if result.Skipped {
				continue
			}
			logger.Info("dispatch run completed",
				slog.String("run_id", result.RunID),
				slog.Int64("article_id", article.ID),
				slog.String("platform", string(platform)),
				slog.Int("eligible", result.Eligible),
				slog.Int("dispatched", result.Dispatched),
				slog.Int("failed", result.Failed))
		}
	}

	logger.Info("sweep finished", slog.Duration("duration", time.Since(start)))
}
