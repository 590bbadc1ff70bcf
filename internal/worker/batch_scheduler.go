package worker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchScheduler requests future batch runs with in-process timers. The
// trigger is bound after engine construction to break the dependency loop.
type BatchScheduler struct {
	mu      sync.RWMutex
	trigger func(jobID string)
	logger  *zap.Logger
}

// NewBatchScheduler creates an unbound scheduler.
func NewBatchScheduler(logger *zap.Logger) *BatchScheduler {
	return &BatchScheduler{logger: logger}
}

// Bind sets the callback invoked when a scheduled delay elapses.
func (s *BatchScheduler) Bind(trigger func(jobID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = trigger
}

// ScheduleAfter arms a timer that fires the bound trigger for the job.
// Returns false when no trigger is bound yet.
func (s *BatchScheduler) ScheduleAfter(delaySeconds int, jobID string) bool {
	s.mu.RLock()
	trigger := s.trigger
	s.mu.RUnlock()
	if trigger == nil {
		s.logger.Error("batch scheduler has no trigger bound", zap.String("job_id", jobID))
		return false
	}
	if delaySeconds < 0 {
		delaySeconds = 0
	}

	time.AfterFunc(time.Duration(delaySeconds)*time.Second, func() {
		s.logger.Debug("batch timer fired", zap.String("job_id", jobID))
		trigger(jobID)
	})
	return true
}
