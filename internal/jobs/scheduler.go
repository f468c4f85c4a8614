package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SyncState is the scheduler's current activity
type SyncState string

const (
	StateIdle    SyncState = "idle"
	StateSyncing SyncState = "syncing"
	StateError   SyncState = "error"
)

// SyncStatus describes past and upcoming syncs
type SyncStatus struct {
	State        SyncState `json:"state"`
	LastSync     time.Time `json:"last_sync,omitempty"`
	NextSync     time.Time `json:"next_sync,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
}

// SyncFunc performs one sync
type SyncFunc func(ctx context.Context) error

// Scheduler runs a SyncFunc periodically. The status lives in one goroutine;
// updates and reads travel over channels.
type Scheduler struct {
	run    SyncFunc
	logger *zap.Logger
	now    func() time.Time

	updates   chan func(*SyncStatus)
	requests  chan chan SyncStatus
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewScheduler starts the status goroutine. Call Close to stop it.
func NewScheduler(fn SyncFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		run:      fn,
		logger:   logger,
		now:      time.Now,
		updates:  make(chan func(*SyncStatus)),
		requests: make(chan chan SyncStatus),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Scheduler) loop() {
	defer close(s.stopped)
	status := SyncStatus{State: StateIdle}
	for {
		select {
		case <-s.done:
			return
		case update := <-s.updates:
			update(&status)
		case reply := <-s.requests:
			reply <- status
		}
	}
}

func (s *Scheduler) update(fn func(*SyncStatus)) {
	select {
	case s.updates <- fn:
	case <-s.stopped:
	}
}

// Status returns a copy of the current status
func (s *Scheduler) Status() SyncStatus {
	reply := make(chan SyncStatus, 1)
	select {
	case s.requests <- reply:
		return <-reply
	case <-s.stopped:
		return SyncStatus{}
	}
}

// RunOnce performs a single sync and records its outcome
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.update(func(st *SyncStatus) { st.State = StateSyncing })

	start := s.now()
	err := s.run(ctx)
	finished := s.now()

	if err != nil {
		s.logger.Error("scheduled sync failed", zap.Error(err), zap.Duration("elapsed", finished.Sub(start)))
		msg := err.Error()
		s.update(func(st *SyncStatus) {
			st.State = StateError
			st.LastError = msg
			st.FailureCount++
		})
		return err
	}

	s.logger.Info("scheduled sync complete", zap.Duration("elapsed", finished.Sub(start)))
	s.update(func(st *SyncStatus) {
		st.State = StateIdle
		st.LastSync = finished
		st.LastError = ""
		st.SuccessCount++
	})
	return nil
}

// Run syncs immediately and then every interval until ctx is done
func (s *Scheduler) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = 6 * time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		_ = s.RunOnce(ctx)
		next := s.now().Add(every)
		s.update(func(st *SyncStatus) { st.NextSync = next })

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the status goroutine. It is safe to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
}
