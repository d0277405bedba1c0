// status.go - Transaction status notifications.
//
// A single Tracker holds the notification shown to the user for whatever
// asynchronous operation ran last. Terminal states fall back to idle after a
// fixed display duration.

package status

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase is the lifecycle phase of the current notification.
type Phase int

const (
	Idle Phase = iota
	Pending
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON views.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status is one notification. Code carries the error classification for
// failures and soft outcomes, e.g. "UserCancelled".
type Status struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Durations controls how long terminal states stay visible.
type Durations struct {
	Success time.Duration
	Error   time.Duration
	Info    time.Duration
}

// DefaultDurations matches the display times of the web client.
func DefaultDurations() Durations {
	return Durations{
		Success: 2 * time.Second,
		Error:   3 * time.Second,
		Info:    2 * time.Second,
	}
}

// Tracker is the process-wide notification state machine.
type Tracker struct {
	mu        sync.Mutex
	cur       Status
	gen       uint64
	timer     *time.Timer
	durations Durations
	subs      map[int]chan Status
	nextSub   int
	closed    bool
	now       func() time.Time
	log       *zap.Logger
}

// NewTracker creates an idle tracker.
func NewTracker(d Durations, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		durations: d,
		subs:      make(map[int]chan Status),
		now:       time.Now,
		log:       log,
	}
	t.cur = Status{Phase: Idle, UpdatedAt: t.now()}
	return t
}

// Pending marks an operation as started. Pending states are never dismissed
// automatically; a pending notification lasts until the operation ends.
func (t *Tracker) Pending(msg string) {
	t.set(Status{Phase: Pending, Message: msg}, 0)
}

// Success reports a completed operation.
func (t *Tracker) Success(msg string) {
	t.set(Status{Phase: Success, Message: msg}, t.durations.Success)
}

// Info reports a non-disruptive outcome, such as data that was already
// verified. It is shown as a success.
func (t *Tracker) Info(code, msg string) {
	t.set(Status{Phase: Success, Message: msg, Code: code}, t.durations.Info)
}

// Error reports a failed operation with its classification.
func (t *Tracker) Error(code, msg string) {
	t.set(Status{Phase: Error, Message: msg, Code: code}, t.durations.Error)
}

// Current returns the notification being shown.
func (t *Tracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

// Subscribe returns a channel receiving every change and a cancel function.
// Slow subscribers miss updates rather than block the tracker.
func (t *Tracker) Subscribe() (<-chan Status, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan Status, 16)
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// Close stops the dismissal timer and closes every subscription.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

// set installs s. A positive dismissAfter schedules the return to idle; the
// generation check keeps a stale timer from clearing a newer notification.
func (t *Tracker) set(s Status, dismissAfter time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	s.UpdatedAt = t.now()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.cur = s
	t.log.Debug("status changed",
		zap.Stringer("phase", s.Phase),
		zap.String("message", s.Message),
		zap.String("code", s.Code))
	t.publish(s)

	if dismissAfter > 0 {
		gen := t.gen
		t.timer = time.AfterFunc(dismissAfter, func() { t.dismiss(gen) })
	}
}

func (t *Tracker) dismiss(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.gen {
		return
	}
	t.gen++
	t.timer = nil
	t.cur = Status{Phase: Idle, UpdatedAt: t.now()}
	t.publish(t.cur)
}

func (t *Tracker) publish(s Status) {
	for _, ch := range t.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
