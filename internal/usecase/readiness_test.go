package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeProbe struct {
	runningAfter int
	calls        int
	err          error
}

func (f *fakeProbe) AllRunning(ctx context.Context) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.calls > f.runningAfter, nil
}

type fakeHealth struct {
	okAfter int
	calls   int
}

func (f *fakeHealth) SetMaintenance(ctx context.Context, enabled bool) error { return nil }
func (f *fakeHealth) Warm(ctx context.Context, path string) error            { return nil }

func (f *fakeHealth) Health(ctx context.Context) (int, error) {
	f.calls++
	if f.calls > f.okAfter {
		return 200, nil
	}
	return 503, nil
}

// fakeClock makes the poll deterministic: sleeping advances virtual time.
func fakeClock(r *Readiness) {
	current := time.Unix(1700000000, 0)
	r.now = func() time.Time { return current }
	r.sleep = func(ctx context.Context, d time.Duration) error {
		current = current.Add(d)
		return nil
	}
}

func TestReadiness(t *testing.T) {
	Convey("Given a readiness waiter", t, func() {
		ctx := context.Background()

		Convey("When containers and health become ready within the bound", func() {
			probe := &fakeProbe{runningAfter: 2}
			health := &fakeHealth{okAfter: 1}
			r := NewReadiness(probe, health, nopLogger{}, 30*time.Second, time.Second)
			fakeClock(r)

			err := r.Wait(ctx)

			Convey("It should return once both signals pass", func() {
				So(err, ShouldBeNil)
				So(probe.calls, ShouldBeGreaterThan, 2)
				So(health.calls, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When the stack never becomes ready", func() {
			probe := &fakeProbe{runningAfter: 1 << 30}
			health := &fakeHealth{okAfter: 1 << 30}
			r := NewReadiness(probe, health, nopLogger{}, 30*time.Second, time.Second)
			fakeClock(r)

			err := r.Wait(ctx)

			Convey("It should fail once the timeout elapses", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to become ready")
				So(err.Error(), ShouldContainSubstring, "30s")
			})
		})

		Convey("When no container probe is available", func() {
			health := &fakeHealth{okAfter: 0}
			r := NewReadiness(nil, health, nopLogger{}, 30*time.Second, time.Second)
			fakeClock(r)

			err := r.Wait(ctx)

			Convey("It should rely on the health endpoint alone", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the probe errors, the health signal still decides", func() {
			probe := &fakeProbe{err: errors.New("docker daemon gone")}
			health := &fakeHealth{okAfter: 0}
			r := NewReadiness(probe, health, nopLogger{}, 30*time.Second, time.Second)
			fakeClock(r)

			err := r.Wait(ctx)

			Convey("It should succeed on the health endpoint", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled mid-wait", func() {
			probe := &fakeProbe{runningAfter: 1 << 30}
			health := &fakeHealth{okAfter: 1 << 30}
			r := NewReadiness(probe, health, nopLogger{}, 30*time.Second, time.Second)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			err := r.Wait(cancelled)

			Convey("It should return the context error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
