// Package scheduler provides timers for code living in a single-threaded event loop.
//
// Callbacks never run concurrently with the loop: Manual fires them inside Advance, Loop hands them over
// through a channel that the loop drains.
package scheduler

import (
	"sort"
	"sync"
	"time"
)

type TimerID uint64

// NotArmed is never returned by BeginTimer, stopping it is a no-op.
const NotArmed TimerID = 0

type Scheduler interface {
	BeginTimer(d time.Duration, fn func(), oneShot bool) TimerID
	// StopTimer cancels a timer, unknown, fired or already stopped ids are ignored.
	StopTimer(id TimerID)
}

type manualTimer struct {
	id       TimerID
	deadline time.Duration
	interval time.Duration
	fn       func()
	oneShot  bool
}

// Manual is a deterministic scheduler driven by Advance, the clock starts at zero.
type Manual struct {
	now    time.Duration
	nextID TimerID
	timers map[TimerID]*manualTimer
}

func NewManual() *Manual {
	return &Manual{timers: make(map[TimerID]*manualTimer)}
}

func (m *Manual) BeginTimer(d time.Duration, fn func(), oneShot bool) TimerID {
	if d <= 0 {
		d = time.Millisecond
	}
	m.nextID++
	m.timers[m.nextID] = &manualTimer{
		id:       m.nextID,
		deadline: m.now + d,
		interval: d,
		fn:       fn,
		oneShot:  oneShot,
	}
	return m.nextID
}

func (m *Manual) StopTimer(id TimerID) {
	delete(m.timers, id)
}

func (m *Manual) Now() time.Duration {
	return m.now
}

// Armed reports number of pending timers.
func (m *Manual) Armed() int {
	return len(m.timers)
}

func (m *Manual) next(limit time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range m.timers {
		if t.deadline <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].id < due[j].id
		}
		return due[i].deadline < due[j].deadline
	})
	return due[0]
}

// Advance moves the clock forward and fires every timer that became due, in deadline order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.next(target)
		if t == nil {
			break
		}
		m.now = t.deadline
		if t.oneShot {
			delete(m.timers, t.id)
		} else {
			t.deadline += t.interval
		}
		t.fn()
	}
	m.now = target
}

type loopTimer struct {
	timer   *time.Timer
	fn      func()
	d       time.Duration
	oneShot bool
}

// Loop is a wall-clock scheduler. BeginTimer and StopTimer have to be called from the loop goroutine,
// the loop has to execute every function received from Calls.
type Loop struct {
	calls  chan func()
	done   chan struct{}
	once   sync.Once
	nextID TimerID
	timers map[TimerID]*loopTimer
}

func NewLoop() *Loop {
	return &Loop{
		calls:  make(chan func(), 64),
		done:   make(chan struct{}),
		timers: make(map[TimerID]*loopTimer),
	}
}

func (l *Loop) Calls() <-chan func() {
	return l.calls
}

// Post schedules fn to be run by the loop, safe to call from any goroutine.
// Returns false when the loop is already closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.calls <- fn:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) BeginTimer(d time.Duration, fn func(), oneShot bool) TimerID {
	l.nextID++
	id := l.nextID
	t := &loopTimer{fn: fn, d: d, oneShot: oneShot}
	l.timers[id] = t
	l.arm(id, t)
	return id
}

func (l *Loop) arm(id TimerID, t *loopTimer) {
	t.timer = time.AfterFunc(t.d, func() {
		l.Post(func() { l.fire(id, t) })
	})
}

func (l *Loop) fire(id TimerID, t *loopTimer) {
	current, ok := l.timers[id]
	if !ok || current != t {
		return // stopped while the call was in flight
	}
	if t.oneShot {
		delete(l.timers, id)
	} else {
		l.arm(id, t)
	}
	t.fn()
}

func (l *Loop) StopTimer(id TimerID) {
	t, ok := l.timers[id]
	if !ok {
		return
	}
	t.timer.Stop()
	delete(l.timers, id)
}

// Close stops every timer and releases goroutines blocked on Post.
func (l *Loop) Close() {
	l.once.Do(func() {
		for id, t := range l.timers {
			t.timer.Stop()
			delete(l.timers, id)
		}
		close(l.done)
	})
}
