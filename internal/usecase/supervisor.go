package usecase

import (
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// Supervisor waits for launched games to exit and reports their play time.
type Supervisor struct {
	table     *ProcessTable
	publisher domain.EventPublisher
	clock     clockwork.Clock
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewSupervisor creates a supervisor. A nil clock uses the real clock.
func NewSupervisor(
	table *ProcessTable,
	publisher domain.EventPublisher,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Supervisor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Supervisor{
		table:     table,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Watch registers proc in the process table and starts its monitor goroutine.
// The handle belongs to the monitor from here on.
func (s *Supervisor) Watch(proc domain.RunningProcess, handle domain.ProcessHandle) {
	s.table.Add(proc)

	s.wg.Add(1)
	go s.monitor(proc, handle)
}

// Wait blocks until every monitor has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Table returns the process table the supervisor maintains.
func (s *Supervisor) Table() *ProcessTable {
	return s.table
}

func (s *Supervisor) monitor(proc domain.RunningProcess, handle domain.ProcessHandle) {
	defer s.wg.Done()

	err := handle.Wait()
	s.table.Remove(proc.InstanceID, proc.PID)

	if err != nil {
		s.logger.Error("lost track of game process",
			zap.String("instance_id", proc.InstanceID),
			zap.Int("pid", proc.PID),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrWaitFailed, err)))
		return
	}

	event := domain.CompletionEvent{
		InstanceID:  proc.InstanceID,
		DurationSec: wholeSeconds(s.clock, proc),
	}

	s.logger.Info("game finished",
		zap.String("instance_id", event.InstanceID),
		zap.Int("pid", proc.PID),
		zap.Uint64("duration_sec", event.DurationSec))

	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish completion event",
			zap.String("instance_id", event.InstanceID),
			zap.Error(err))
	}
}

func wholeSeconds(clock clockwork.Clock, proc domain.RunningProcess) uint64 {
	elapsed := clock.Since(proc.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed.Seconds())
}
