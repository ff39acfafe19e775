package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/semmidev/telos/internal/domain"
)

// Readiness polls the restarted stack until it accepts traffic: the
// container set must be running and the health endpoint answering 200
// before the pipeline continues. The poll is bounded by Timeout.
type Readiness struct {
	probe    domain.ContainerProbe
	app      domain.AdminAPI
	logger   Logger
	timeout  time.Duration
	interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewReadiness(
	probe domain.ContainerProbe,
	app domain.AdminAPI,
	logger Logger,
	timeout, interval time.Duration,
) *Readiness {
	return &Readiness{
		probe:    probe,
		app:      app,
		logger:   logger,
		timeout:  timeout,
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func (r *Readiness) Wait(ctx context.Context) error {
	deadline := r.now().Add(r.timeout)

	for {
		if ready := r.check(ctx); ready {
			return nil
		}

		if !r.now().Add(r.interval).Before(deadline) {
			return fmt.Errorf("services failed to become ready within %s", r.timeout)
		}
		if err := r.sleep(ctx, r.interval); err != nil {
			return err
		}
	}
}

func (r *Readiness) check(ctx context.Context) bool {
	if r.probe != nil {
		running, err := r.probe.AllRunning(ctx)
		if err != nil {
			r.logger.Warnf("Container probe failed: %v", err)
		} else if !running {
			return false
		}
	}

	status, err := r.app.Health(ctx)
	if err != nil || status != 200 {
		return false
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
