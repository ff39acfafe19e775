package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/telos/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Errorf(template string, args ...interface{}) {}
func (nopLogger) Warnf(template string, args ...interface{})  {}

// rig fakes every pipeline collaborator and records the order of calls.
// Failures are injected per call name.
type rig struct {
	calls        []string
	failAt       map[string]error
	warnings     []string
	healthStatus int
	healthErr    error

	notifications []string
	sentFiles     []string
}

func newRig() *rig {
	return &rig{failAt: map[string]error{}, healthStatus: 200}
}

func (r *rig) record(name string) error {
	r.calls = append(r.calls, name)
	return r.failAt[name]
}

func (r *rig) Load() error                { return r.record("env.load") }
func (r *rig) SecurityWarnings() []string { return r.warnings }

func (r *rig) CheckTools(ctx context.Context) error { return r.record("preflight.tools") }
func (r *rig) Run(ctx context.Context) error        { return r.record("preflight.run") }

func (r *rig) SetMaintenance(ctx context.Context, enabled bool) error {
	return r.record(fmt.Sprintf("maintenance:%t", enabled))
}

func (r *rig) Health(ctx context.Context) (int, error) {
	_ = r.record("health")
	return r.healthStatus, r.healthErr
}

func (r *rig) Warm(ctx context.Context, path string) error {
	return r.record("warm " + path)
}

func (r *rig) Execute(ctx context.Context) (string, error) {
	if err := r.record("backup"); err != nil {
		return "", err
	}
	return "backup_20250101_030000.sql", nil
}

func (r *rig) Pull(ctx context.Context) error  { return r.record("pull") }
func (r *rig) Down(ctx context.Context) error  { return r.record("down") }
func (r *rig) Build(ctx context.Context) error { return r.record("build") }
func (r *rig) Up(ctx context.Context) error    { return r.record("up") }

func (r *rig) Exec(ctx context.Context, service string, command ...string) error {
	return r.record("exec " + service + " " + strings.Join(command, " "))
}

func (r *rig) Wait(ctx context.Context) error { return r.record("wait") }

func (r *rig) Notify(ctx context.Context, message string) error {
	r.notifications = append(r.notifications, message)
	return nil
}

func (r *rig) SendFile(ctx context.Context, path string, caption string) error {
	r.sentFiles = append(r.sentFiles, path)
	return nil
}

func (r *rig) count(name string) int {
	n := 0
	for _, call := range r.calls {
		if call == name {
			n++
		}
	}
	return n
}

func newTestDeploy(r *rig, reportDir string) *Deploy {
	return NewDeploy(DeployParams{
		Env:         r,
		Preflight:   r,
		App:         r,
		Backup:      r,
		Source:      r,
		Stack:       r,
		Readiness:   r,
		Notifier:    r,
		Logger:      nopLogger{},
		WebService:  "web",
		MigrateCmd:  []string{"flask", "db", "upgrade"},
		TestCmd:     []string{"pytest"},
		WarmupPaths: []string{"/health", "/api/analytics/dashboard"},
		ReportDir:   reportDir,
	})
}

func readReport(dir string) (domain.Report, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "deployment_report_*.json"))
	if err != nil || len(matches) == 0 {
		return domain.Report{}, fmt.Errorf("no report found: %v", err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return domain.Report{}, err
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

func TestDeploy(t *testing.T) {
	Convey("Given a deployment pipeline", t, func() {
		reportDir := t.TempDir()
		r := newRig()
		uc := newTestDeploy(r, reportDir)
		ctx := context.Background()

		Convey("When every step succeeds and the health check returns 200", func() {
			err := uc.Execute(ctx)

			Convey("It should run all steps in order and succeed", func() {
				So(err, ShouldBeNil)
				So(r.calls, ShouldResemble, []string{
					"env.load",
					"preflight.tools",
					"preflight.run",
					"maintenance:true",
					"backup",
					"pull",
					"down",
					"build",
					"up",
					"wait",
					"exec web flask db upgrade",
					"exec web pytest",
					"warm /health",
					"warm /api/analytics/dashboard",
					"maintenance:false",
					"health",
				})
			})

			Convey("It should toggle maintenance exactly once each way", func() {
				So(r.count("maintenance:true"), ShouldEqual, 1)
				So(r.count("maintenance:false"), ShouldEqual, 1)
			})

			Convey("It should write a successful report and notify", func() {
				report, rerr := readReport(reportDir)
				So(rerr, ShouldBeNil)
				So(report.Success, ShouldBeTrue)
				So(report.BackupFile, ShouldEqual, "backup_20250101_030000.sql")
				So(len(report.Steps), ShouldEqual, 14)

				So(len(r.notifications), ShouldEqual, 1)
				So(r.notifications[0], ShouldContainSubstring, "completed successfully")
			})
		})

		Convey("When the test suite fails", func() {
			r.failAt["exec web pytest"] = errors.New("2 tests failed")
			err := uc.Execute(ctx)

			Convey("It should abort immediately after the test step", func() {
				So(err, ShouldNotBeNil)
				So(r.calls[len(r.calls)-1], ShouldEqual, "exec web pytest")
			})

			Convey("It should never exit maintenance mode or health check", func() {
				So(r.count("maintenance:false"), ShouldEqual, 0)
				So(r.count("health"), ShouldEqual, 0)
			})

			Convey("It should report the failed step and notify the failure", func() {
				report, rerr := readReport(reportDir)
				So(rerr, ShouldBeNil)
				So(report.Success, ShouldBeFalse)
				So(report.FailedStep, ShouldEqual, "run test suite")

				So(len(r.notifications), ShouldEqual, 1)
				So(r.notifications[0], ShouldContainSubstring, "FAILED")
			})
		})

		Convey("When the environment file cannot be loaded", func() {
			r.failAt["env.load"] = errors.New("no such file")
			err := uc.Execute(ctx)

			Convey("It should abort before any other step", func() {
				So(err, ShouldNotBeNil)
				So(r.calls, ShouldResemble, []string{"env.load"})
			})
		})

		Convey("When the pre-flight checklist fails", func() {
			r.failAt["preflight.run"] = errors.New("checks failed")
			err := uc.Execute(ctx)

			Convey("It should abort before any mutating step", func() {
				So(err, ShouldNotBeNil)
				So(r.count("maintenance:true"), ShouldEqual, 0)
				So(r.count("backup"), ShouldEqual, 0)
				So(r.count("down"), ShouldEqual, 0)
			})
		})

		Convey("When the backup fails", func() {
			r.failAt["backup"] = errors.New("pg_dump failed")
			err := uc.Execute(ctx)

			Convey("It should abort before touching source or containers", func() {
				So(err, ShouldNotBeNil)
				So(r.count("pull"), ShouldEqual, 0)
				So(r.count("down"), ShouldEqual, 0)
			})
		})

		Convey("When entering maintenance mode fails", func() {
			r.failAt["maintenance:true"] = errors.New("connection refused")
			err := uc.Execute(ctx)

			Convey("It should continue, since the toggle is best-effort", func() {
				So(err, ShouldBeNil)
				So(r.count("backup"), ShouldEqual, 1)
				So(r.count("health"), ShouldEqual, 1)
			})
		})

		Convey("When a warm-up request fails", func() {
			r.failAt["warm /api/analytics/dashboard"] = errors.New("status 500")
			err := uc.Execute(ctx)

			Convey("It should continue to the final health check", func() {
				So(err, ShouldBeNil)
				So(r.count("health"), ShouldEqual, 1)
			})
		})

		Convey("When the final health check returns 503", func() {
			r.healthStatus = 503
			err := uc.Execute(ctx)

			Convey("It should fail with the observed status code", func() {
				So(err, ShouldNotBeNil)

				var healthErr *HealthError
				So(errors.As(err, &healthErr), ShouldBeTrue)
				So(healthErr.Status, ShouldEqual, 503)
				So(err.Error(), ShouldContainSubstring, "503")
			})
		})

		Convey("When the health endpoint is unreachable", func() {
			r.healthErr = errors.New("connection refused")
			err := uc.Execute(ctx)

			Convey("It should fail with status zero", func() {
				So(err, ShouldNotBeNil)

				var healthErr *HealthError
				So(errors.As(err, &healthErr), ShouldBeTrue)
				So(healthErr.Status, ShouldEqual, 0)
			})
		})
	})
}
