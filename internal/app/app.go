package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/semmidev/telos/internal/adapter/checklist"
	"github.com/semmidev/telos/internal/adapter/compose"
	"github.com/semmidev/telos/internal/adapter/compressor"
	"github.com/semmidev/telos/internal/adapter/database"
	"github.com/semmidev/telos/internal/adapter/dockerapi"
	"github.com/semmidev/telos/internal/adapter/git"
	"github.com/semmidev/telos/internal/adapter/notifier"
	"github.com/semmidev/telos/internal/adapter/storage"
	"github.com/semmidev/telos/internal/adapter/webapp"
	"github.com/semmidev/telos/internal/config"
	"github.com/semmidev/telos/internal/domain"
	"github.com/semmidev/telos/internal/infrastructure/logger"
	"github.com/semmidev/telos/internal/infrastructure/scheduler"
	"github.com/semmidev/telos/internal/usecase"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	deployUC  *usecase.Deploy
	cleanupUC *usecase.Cleanup
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Target stack: %s (web service: %s)", cfg.Endpoints.BaseURL, cfg.Compose.WebService)

	db, err := buildDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	localStorage, err := storage.NewLocal(cfg.Backup.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backup directory: %w", err)
	}

	uploadTargets := initializeUploadTargets(cfg, log)

	webClient := webapp.NewClient(cfg.Endpoints)
	probe := buildProbe(cfg, log)

	backupUC := usecase.NewBackup(
		db,
		cfg.Backup.Dir,
		uploadTargets,
		compressor.NewGzip(),
		log,
		cfg.Backup.Compress,
	)

	readiness := usecase.NewReadiness(probe, webClient, log,
		cfg.Readiness.Timeout, cfg.Readiness.Interval)

	stack := compose.New(cfg.Compose.Binary, cfg.Compose.File, cfg.Compose.Project)
	source := git.New(cfg.Source.Remote, cfg.Source.Branch)
	preflight := checklist.New(cfg.Preflight.Checklist, preflightTools(cfg))

	var notify domain.Notifier
	if cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(cfg.Notify.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram notifier: %v", err)
		} else {
			notify = tg
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	deployUC := usecase.NewDeploy(usecase.DeployParams{
		Env:         config.EnvFile{Path: cfg.EnvFile},
		Preflight:   preflight,
		App:         webClient,
		Backup:      backupUC,
		Source:      source,
		Stack:       stack,
		Readiness:   readiness,
		Notifier:    notify,
		Logger:      log,
		WebService:  cfg.Compose.WebService,
		MigrateCmd:  cfg.Compose.MigrateCommand,
		TestCmd:     cfg.Compose.TestCommand,
		WarmupPaths: cfg.Endpoints.WarmupPaths,
		ReportDir:   cfg.Backup.ReportDir,
		SendReport:  cfg.Notify.Telegram.SendReport,
	})

	cleanupUC := usecase.NewCleanup(localStorage, uploadTargets, log, cfg.Backup.RetentionDays)

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(log),
		deployUC:  deployUC,
		cleanupUC: cleanupUC,
	}, nil
}

func buildDatabase(cfg config.DatabaseConfig) (domain.Database, error) {
	switch cfg.Type {
	case "postgresql":
		return database.NewPostgreSQL(cfg), nil
	case "mysql":
		return database.NewMySQL(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// buildProbe wires the Docker API container probe. Without a reachable
// daemon the readiness poll degrades to HTTP health checks only.
func buildProbe(cfg *config.Config, log *logger.Logger) domain.ContainerProbe {
	probe, err := dockerapi.NewProbe(cfg.ComposeProject())
	if err != nil {
		log.Warnf("Docker API unavailable, readiness will rely on HTTP only: %v", err)
		return nil
	}
	return probe
}

// preflightTools extends the configured tool list with the compose binary,
// which the pipeline cannot run without.
func preflightTools(cfg *config.Config) []string {
	tools := slices.Clone(cfg.Preflight.Tools)
	if !slices.Contains(tools, cfg.Compose.Binary) {
		tools = append(tools, cfg.Compose.Binary)
	}
	return tools
}

func initializeUploadTargets(cfg *config.Config, log *logger.Logger) []usecase.UploadTarget {
	var targets []usecase.UploadTarget
	ctx := context.Background()

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			stor, err = storage.NewGDrive(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("✓ Google Drive upload enabled")

		case "s3":
			stor, err = storage.NewS3(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("✓ AWS S3 upload enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			stor, err = storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			log.Infof("✓ Telegram upload enabled")

		case "local":
			// The backup directory is always written.
			continue

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets
}

// Run executes the deployment once, or keeps running deployments at the
// configured maintenance window when a cron schedule is set.
func (a *App) Run(ctx context.Context) error {
	if a.config.Schedule == "" {
		if err := a.deployUC.Execute(ctx); err != nil {
			return err
		}
		return a.cleanupUC.Execute(ctx)
	}

	a.logger.Infof("Scheduling deployments: %s", a.config.Schedule)
	err := a.scheduler.AddJob("deployment", a.config.Schedule, func(ctx context.Context) error {
		if err := a.deployUC.Execute(ctx); err != nil {
			return err
		}
		return a.cleanupUC.Execute(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule deployment: %w", err)
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started, waiting for the next window")

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down...")
	a.scheduler.Stop()
	a.logger.Close()
}
