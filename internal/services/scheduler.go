package services

import (
	"context"
	"log/slog"
	"time"

	"lumebackend/internal/domain"
)

// Scheduler fires the orchestration cycle at a fixed interval, starting with an
// immediate run. Cycles never overlap: the cycle runs synchronously in the
// scheduler goroutine and any tick that fired while a cycle was in flight is
// dropped, so an overrunning cycle skips the next tick instead of stacking.
type Scheduler struct {
	lifecycle domain.LifecycleService
	interval  time.Duration
	logger    *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(lifecycle domain.LifecycleService, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		lifecycle: lifecycle,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the scheduling loop in its own goroutine and returns.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
			// Drop the tick that may have fired during an overrunning cycle.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// runCycle executes one cycle. A failed cycle is logged and abandoned; every
// step re-derives its due set from persisted state, so the next tick retries
// naturally. Cancellation of the loop context stops future cycles only: the
// in-flight cycle runs to completion on a detached context.
func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	if err := s.lifecycle.AdvanceCycle(context.WithoutCancel(ctx), start); err != nil {
		s.logger.Error("orchestration cycle failed", "error", err)
		return
	}
	s.logger.Debug("orchestration cycle finished", "duration_ms", time.Since(start).Milliseconds())
}

// Stop prevents new cycles from starting and blocks until the in-flight cycle,
// if any, has finished.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
