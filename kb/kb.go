package kb

import (
	"sort"
	"sync"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// EventType indicates what kind of change happened in the book.
type EventType int

const (
	// EventRunRecorded fires when a sweep level completes.
	EventRunRecorded EventType = iota
	// EventRunFailed fires when a sweep level aborts.
	EventRunFailed
)

// Event is emitted to subscribers when a level is recorded.
type Event struct {
	Type  EventType
	Level int
	// Summary is set for EventRunRecorded.
	Summary model.SummaryRecord
	// Err is set for EventRunFailed.
	Err error
}

// ResultBook is a thread-safe collection of sweep results keyed by level.
// Concurrent sweep workers record into it; readers always see levels in
// ascending order.
type ResultBook struct {
	mu sync.RWMutex

	runs     map[int]model.SweepRun
	failures map[int]error

	subs   []subscriber
	nextID uint64
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// NewResultBook constructs an empty book.
func NewResultBook() *ResultBook {
	return &ResultBook{
		runs:     make(map[int]model.SweepRun),
		failures: make(map[int]error),
	}
}

// Record stores a completed run, replacing any earlier result or failure for
// the same level, and notifies subscribers.
func (b *ResultBook) Record(run model.SweepRun) {
	b.mu.Lock()
	b.runs[run.Level] = run
	delete(b.failures, run.Level)
	subs := b.snapshotSubs()
	b.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	event := Event{Type: EventRunRecorded, Level: run.Level, Summary: run.Summary}
	for _, fn := range subs {
		fn(event)
	}
}

// RecordFailure stores the error that aborted a level.
func (b *ResultBook) RecordFailure(level int, err error) {
	b.mu.Lock()
	b.failures[level] = err
	delete(b.runs, level)
	subs := b.snapshotSubs()
	b.mu.Unlock()

	event := Event{Type: EventRunFailed, Level: level, Err: err}
	for _, fn := range subs {
		fn(event)
	}
}

// Run returns the result of one level.
func (b *ResultBook) Run(level int) (model.SweepRun, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	run, ok := b.runs[level]
	return run, ok
}

// Len returns the number of successful levels.
func (b *ResultBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runs)
}

// Runs returns a snapshot of all successful runs ordered by level.
func (b *ResultBook) Runs() []model.SweepRun {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]model.SweepRun, 0, len(b.runs))
	for _, run := range b.runs {
		res = append(res, run)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Level < res[j].Level })
	return res
}

// Summaries returns the summary record of every successful run ordered by
// level.
func (b *ResultBook) Summaries() []model.SummaryRecord {
	runs := b.Runs()
	res := make([]model.SummaryRecord, len(runs))
	for i, run := range runs {
		res[i] = run.Summary
	}
	return res
}

// Failures returns the recorded errors ordered by level.
func (b *ResultBook) Failures() []error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := make([]int, 0, len(b.failures))
	for level := range b.failures {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	res := make([]error, len(levels))
	for i, level := range levels {
		res[i] = b.failures[level]
	}
	return res
}

// Subscribe registers a callback for book events. It returns an unsubscribe
// function.
func (b *ResultBook) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// snapshotSubs copies the callbacks in subscription order. Callers hold mu.
func (b *ResultBook) snapshotSubs() []func(Event) {
	fns := make([]func(Event), len(b.subs))
	for i, sub := range b.subs {
		fns[i] = sub.fn
	}
	return fns
}
