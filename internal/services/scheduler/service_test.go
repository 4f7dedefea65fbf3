package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/vigil/internal/common"
)

type countingRunner struct {
	calls   atomic.Int32
	block   chan struct{}
	started chan struct{}
}

func (r *countingRunner) RunCycle(ctx context.Context) error {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return nil
}

func TestStartRunsStartupCycle(t *testing.T) {
	runner := &countingRunner{started: make(chan struct{}, 1)}
	service := NewService(runner, "*/30 * * * *", common.GetLogger())

	if err := service.Start(true); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer service.Stop()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("startup cycle did not run")
	}
}

func TestStartWithoutStartupCycle(t *testing.T) {
	runner := &countingRunner{}
	service := NewService(runner, "*/30 * * * *", common.GetLogger())

	if err := service.Start(false); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer service.Stop()

	time.Sleep(100 * time.Millisecond)
	if runner.calls.Load() != 0 {
		t.Error("cycle ran without run_on_start")
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	service := NewService(&countingRunner{}, "not a schedule", common.GetLogger())
	if err := service.Start(false); err == nil {
		t.Fatal("invalid schedule accepted")
	}
	if service.IsRunning() {
		t.Error("scheduler marked running after failed start")
	}
}

func TestStartTwice(t *testing.T) {
	service := NewService(&countingRunner{}, "*/30 * * * *", common.GetLogger())
	if err := service.Start(false); err != nil {
		t.Fatal(err)
	}
	defer service.Stop()

	if err := service.Start(false); err == nil {
		t.Fatal("second start accepted")
	}
}

func TestOverlappingTriggersAreSkipped(t *testing.T) {
	runner := &countingRunner{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	service := NewService(runner, "*/30 * * * *", common.GetLogger())

	if err := service.Start(false); err != nil {
		t.Fatal(err)
	}

	service.TriggerNow()
	<-runner.started

	// Triggers while the first cycle is blocked are dropped
	service.TriggerNow()
	service.TriggerNow()
	time.Sleep(100 * time.Millisecond)

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner invoked %d times during one blocked cycle, want 1", got)
	}

	close(runner.block)
	service.Stop()
}

type contextWatchingRunner struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (r *contextWatchingRunner) RunCycle(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	close(r.cancelled)
	return ctx.Err()
}

func TestStopCancelsInFlightCycle(t *testing.T) {
	runner := &contextWatchingRunner{
		started:   make(chan struct{}),
		cancelled: make(chan struct{}),
	}
	service := NewService(runner, "*/30 * * * *", common.GetLogger())
	if err := service.Start(false); err != nil {
		t.Fatal(err)
	}

	service.TriggerNow()
	<-runner.started

	done := make(chan struct{})
	go func() {
		service.Stop()
		close(done)
	}()

	select {
	case <-runner.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight cycle did not observe cancellation on Stop")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cycle wound down")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	service := NewService(&countingRunner{}, "*/30 * * * *", common.GetLogger())
	if err := service.Start(false); err != nil {
		t.Fatal(err)
	}
	if err := service.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := service.Stop(); err != nil {
		t.Fatal(err)
	}
	if service.IsRunning() {
		t.Error("scheduler still marked running after stop")
	}
}
