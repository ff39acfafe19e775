package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/telos/internal/domain"
)

// Environment loads the deployment environment file into the process
// environment and reports leftover placeholder secrets.
type Environment interface {
	Load() error
	SecurityWarnings() []string
}

// BackupExecutor produces the pre-deployment database dump and returns the
// path of the artifact it created.
type BackupExecutor interface {
	Execute(ctx context.Context) (string, error)
}

// ReadyWaiter blocks until the rebuilt stack is accepting traffic, bounded
// by its configured timeout.
type ReadyWaiter interface {
	Wait(ctx context.Context) error
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// HealthError is the final health check's distinct failure: the stack is
// deployed but did not answer 200. Status 0 means no response at all.
type HealthError struct {
	Status int
	Cause  error
}

func (e *HealthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("health check failed: no response (%v)", e.Cause)
	}
	return fmt.Sprintf("health check failed with status %d", e.Status)
}

func (e *HealthError) Unwrap() error { return e.Cause }

// Deploy runs the production deployment pipeline: environment load,
// pre-flight gate, maintenance on, backup, pull, rebuild, readiness wait,
// migrations, tests, warm-up, maintenance off, final health check. The
// first failing step aborts the run; maintenance toggles and warm-up are
// best-effort and only logged.
type Deploy struct {
	env         Environment
	preflight   domain.Preflight
	app         domain.AdminAPI
	backup      BackupExecutor
	source      domain.Source
	stack       domain.Stack
	readiness   ReadyWaiter
	notifier    domain.Notifier
	logger      Logger
	webService  string
	migrateCmd  []string
	testCmd     []string
	warmupPaths []string
	reportDir   string
	sendReport  bool

	now func() time.Time

	startedAt  time.Time
	id         string
	backupFile string
	results    []domain.StepResult
}

type DeployParams struct {
	Env         Environment
	Preflight   domain.Preflight
	App         domain.AdminAPI
	Backup      BackupExecutor
	Source      domain.Source
	Stack       domain.Stack
	Readiness   ReadyWaiter
	Notifier    domain.Notifier
	Logger      Logger
	WebService  string
	MigrateCmd  []string
	TestCmd     []string
	WarmupPaths []string
	ReportDir   string
	SendReport  bool
}

func NewDeploy(p DeployParams) *Deploy {
	return &Deploy{
		env:         p.Env,
		preflight:   p.Preflight,
		app:         p.App,
		backup:      p.Backup,
		source:      p.Source,
		stack:       p.Stack,
		readiness:   p.Readiness,
		notifier:    p.Notifier,
		logger:      p.Logger,
		webService:  p.WebService,
		migrateCmd:  p.MigrateCmd,
		testCmd:     p.TestCmd,
		warmupPaths: p.WarmupPaths,
		reportDir:   p.ReportDir,
		sendReport:  p.SendReport,
		now:         time.Now,
	}
}

func (uc *Deploy) Execute(ctx context.Context) error {
	uc.startedAt = uc.now()
	uc.id = uc.startedAt.Format("20060102_150405")
	uc.results = nil
	uc.backupFile = ""

	uc.logger.Infof("=== Starting deployment %s ===", uc.id)

	err := uc.run(ctx)
	uc.finish(ctx, err)
	return err
}

func (uc *Deploy) run(ctx context.Context) error {
	if err := uc.step(ctx, "load environment", false, func(ctx context.Context) error {
		return uc.env.Load()
	}); err != nil {
		return err
	}
	for _, warning := range uc.env.SecurityWarnings() {
		uc.logger.Warnf("Security issue: %s", warning)
	}

	if err := uc.step(ctx, "pre-flight checks", false, func(ctx context.Context) error {
		if err := uc.preflight.CheckTools(ctx); err != nil {
			return err
		}
		return uc.preflight.Run(ctx)
	}); err != nil {
		return err
	}

	_ = uc.step(ctx, "enter maintenance mode", true, func(ctx context.Context) error {
		return uc.app.SetMaintenance(ctx, true)
	})

	if err := uc.step(ctx, "database backup", false, func(ctx context.Context) error {
		path, err := uc.backup.Execute(ctx)
		if err != nil {
			return err
		}
		uc.backupFile = path
		return nil
	}); err != nil {
		return err
	}

	if err := uc.step(ctx, "pull latest source", false, uc.source.Pull); err != nil {
		return err
	}

	if err := uc.step(ctx, "stop containers", false, uc.stack.Down); err != nil {
		return err
	}
	if err := uc.step(ctx, "build images", false, uc.stack.Build); err != nil {
		return err
	}
	if err := uc.step(ctx, "start services", false, uc.stack.Up); err != nil {
		return err
	}

	if err := uc.step(ctx, "wait for services", false, uc.readiness.Wait); err != nil {
		return err
	}

	if err := uc.step(ctx, "run database migrations", false, func(ctx context.Context) error {
		return uc.stack.Exec(ctx, uc.webService, uc.migrateCmd...)
	}); err != nil {
		return err
	}

	if err := uc.step(ctx, "run test suite", false, func(ctx context.Context) error {
		return uc.stack.Exec(ctx, uc.webService, uc.testCmd...)
	}); err != nil {
		return err
	}

	_ = uc.step(ctx, "warm caches", true, uc.warmCaches)

	_ = uc.step(ctx, "exit maintenance mode", true, func(ctx context.Context) error {
		return uc.app.SetMaintenance(ctx, false)
	})

	return uc.step(ctx, "final health check", false, uc.healthCheck)
}

func (uc *Deploy) warmCaches(ctx context.Context) error {
	var failed int
	for _, path := range uc.warmupPaths {
		if err := uc.app.Warm(ctx, path); err != nil {
			uc.logger.Warnf("Warm-up %s failed: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d warm-up requests failed", failed, len(uc.warmupPaths))
	}
	return nil
}

func (uc *Deploy) healthCheck(ctx context.Context) error {
	status, err := uc.app.Health(ctx)
	if err != nil {
		return &HealthError{Status: 0, Cause: err}
	}
	if status != 200 {
		return &HealthError{Status: status}
	}
	uc.logger.Infof("Health check passed (status %d)", status)
	return nil
}

// step runs one pipeline stage, records its outcome for the report, and
// swallows the error for best-effort stages after logging it.
func (uc *Deploy) step(ctx context.Context, name string, bestEffort bool, fn func(context.Context) error) error {
	started := uc.now()
	uc.logger.Infof("Step: %s", name)

	err := fn(ctx)

	result := domain.StepResult{
		Name:            name,
		StartedAt:       started,
		DurationSeconds: uc.now().Sub(started).Seconds(),
		BestEffort:      bestEffort,
	}
	if err != nil {
		result.Error = err.Error()
		if bestEffort {
			uc.logger.Warnf("Step %q failed (continuing): %v", name, err)
			err = nil
		} else {
			uc.logger.Errorf("Deployment failed at step %q: %v", name, err)
		}
	}
	uc.results = append(uc.results, result)

	return err
}

func (uc *Deploy) finish(ctx context.Context, runErr error) {
	end := uc.now()

	report := domain.Report{
		DeploymentID:    uc.id,
		StartTime:       uc.startedAt,
		EndTime:         end,
		DurationSeconds: end.Sub(uc.startedAt).Seconds(),
		Success:         runErr == nil,
		BackupFile:      uc.backupFile,
		Steps:           uc.results,
	}
	if runErr != nil && len(uc.results) > 0 {
		report.FailedStep = uc.results[len(uc.results)-1].Name
	}

	reportPath, err := uc.writeReport(report)
	if err != nil {
		uc.logger.Errorf("Failed to write deployment report: %v", err)
	} else {
		uc.logger.Infof("Deployment report saved to: %s", reportPath)
	}

	uc.notify(ctx, report, reportPath, runErr)

	if runErr == nil {
		uc.logger.Infof("=== Deployment %s completed successfully at %s (%.0fs) ===",
			uc.id, end.Format("2006-01-02 15:04:05"), report.DurationSeconds)
	}
}

func (uc *Deploy) writeReport(report domain.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(uc.reportDir, fmt.Sprintf("deployment_report_%s.json", report.DeploymentID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

func (uc *Deploy) notify(ctx context.Context, report domain.Report, reportPath string, runErr error) {
	if uc.notifier == nil {
		return
	}

	var message string
	if runErr == nil {
		message = fmt.Sprintf("Deployment %s completed successfully at %s (%.0fs)",
			report.DeploymentID, report.EndTime.Format("2006-01-02 15:04:05"), report.DurationSeconds)
	} else {
		message = fmt.Sprintf("Deployment %s FAILED at step %q: %v",
			report.DeploymentID, report.FailedStep, runErr)
	}

	if err := uc.notifier.Notify(ctx, message); err != nil {
		uc.logger.Warnf("Failed to send notification: %v", err)
	}

	if uc.sendReport && reportPath != "" {
		caption := fmt.Sprintf("Deployment report %s", report.DeploymentID)
		if err := uc.notifier.SendFile(ctx, reportPath, caption); err != nil {
			uc.logger.Warnf("Failed to send report file: %v", err)
		}
	}
}
