package worker

import (
	"sync"
	"time"
)

// Progress is a snapshot of a batch run
type Progress struct {
	Total     int
	InFlight  int
	Completed int
	Failed    int
	StartedAt time.Time
	LastError string
}

// Remaining is the number of items not yet finished
func (p Progress) Remaining() int {
	return p.Total - p.Completed - p.Failed
}

// StatusTracker owns a Progress value inside a single goroutine. All
// mutation goes through the updates channel; readers get copies.
type StatusTracker struct {
	updates   chan func(*Progress)
	snapshots chan chan Progress
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewStatusTracker starts the owning goroutine. Call Close to stop it.
func NewStatusTracker() *StatusTracker {
	t := &StatusTracker{
		updates:   make(chan func(*Progress)),
		snapshots: make(chan chan Progress),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		now:       time.Now,
	}
	go t.loop()
	return t
}

func (t *StatusTracker) loop() {
	defer close(t.stopped)
	var p Progress
	for {
		select {
		case <-t.done:
			return
		case update := <-t.updates:
			update(&p)
		case reply := <-t.snapshots:
			reply <- p
		}
	}
}

func (t *StatusTracker) apply(update func(*Progress)) {
	select {
	case t.updates <- update:
	case <-t.stopped:
	}
}

// Begin resets the tracker for a run of total items
func (t *StatusTracker) Begin(total int) {
	started := t.now()
	t.apply(func(p *Progress) {
		*p = Progress{Total: total, StartedAt: started}
	})
}

// Started marks one item as in flight
func (t *StatusTracker) Started() {
	t.apply(func(p *Progress) { p.InFlight++ })
}

// Finished records the outcome of one in-flight item
func (t *StatusTracker) Finished(err error) {
	t.apply(func(p *Progress) {
		if p.InFlight > 0 {
			p.InFlight--
		}
		if err != nil {
			p.Failed++
			p.LastError = err.Error()
			return
		}
		p.Completed++
	})
}

// Snapshot returns a copy of the current progress
func (t *StatusTracker) Snapshot() Progress {
	reply := make(chan Progress, 1)
	select {
	case t.snapshots <- reply:
		return <-reply
	case <-t.stopped:
		return Progress{}
	}
}

// Close stops the owning goroutine. It is safe to call more than once.
func (t *StatusTracker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
	<-t.stopped
}
