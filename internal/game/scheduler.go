package game

import (
	"sync"
	"time"
)

// Deadline names used by the session state machine.
const (
	deadlineAnswer       = "answer"
	deadlineVote         = "vote"
	deadlineResults      = "results"
	deadlineIntermission = "intermission"
)

// deadlineFire is the marker posted back into the session's trigger loop
// when a named deadline expires.
type deadlineFire struct {
	Name string
	Seq  uint64
}

// Scheduler owns the named wall-clock deadlines of one session. Arming a
// name cancels and replaces any prior deadline under that name. Each armed
// deadline carries a sequence number; a timer that fires after its record
// was replaced or cancelled is dropped without posting.
type Scheduler struct {
	mu    sync.Mutex
	seq   uint64
	armed map[string]*armedDeadline
	post  func(deadlineFire)
}

type armedDeadline struct {
	seq   uint64
	timer *time.Timer
}

// NewScheduler builds a scheduler that posts expiry markers via post.
// post runs on the timer goroutine and must not block indefinitely.
func NewScheduler(post func(deadlineFire)) *Scheduler {
	return &Scheduler{
		armed: make(map[string]*armedDeadline),
		post:  post,
	}
}

// Arm schedules (or replaces) the named deadline and returns its sequence
// number.
func (sc *Scheduler) Arm(name string, d time.Duration) uint64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if prev, ok := sc.armed[name]; ok {
		prev.timer.Stop()
	}
	sc.seq++
	seq := sc.seq
	timer := time.AfterFunc(d, func() {
		sc.mu.Lock()
		cur, ok := sc.armed[name]
		if !ok || cur.seq != seq {
			// Replaced or cancelled while the timer was in flight.
			sc.mu.Unlock()
			return
		}
		delete(sc.armed, name)
		sc.mu.Unlock()
		sc.post(deadlineFire{Name: name, Seq: seq})
	})
	sc.armed[name] = &armedDeadline{seq: seq, timer: timer}
	return seq
}

// Cancel stops the named deadline if armed.
func (sc *Scheduler) Cancel(name string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if prev, ok := sc.armed[name]; ok {
		prev.timer.Stop()
		delete(sc.armed, name)
	}
}

// CancelAll stops every armed deadline. Called when a session reaches a
// terminal state so no scheduled work leaks.
func (sc *Scheduler) CancelAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for name, prev := range sc.armed {
		prev.timer.Stop()
		delete(sc.armed, name)
	}
}

// Armed reports whether the named deadline is currently scheduled.
func (sc *Scheduler) Armed(name string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, ok := sc.armed[name]
	return ok
}
