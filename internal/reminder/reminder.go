package reminder

import (
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidDuration is returned for non-positive amounts or unknown units.
var ErrInvalidDuration = errors.New("invalid reminder duration")

type Unit string

const (
	Second Unit = "second"
	Minute Unit = "minute"
	Hour   Unit = "hour"
)

// ParseUnit accepts the singular and plural spoken forms.
func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "second", "seconds":
		return Second, true
	case "minute", "minutes":
		return Minute, true
	case "hour", "hours":
		return Hour, true
	}
	return "", false
}

func (u Unit) duration() time.Duration {
	switch u {
	case Second:
		return time.Second
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	}
	return 0
}

// Delay converts amount units into a duration. It is 0 for an unknown
// unit, a non-positive amount or one that does not fit a time.Duration.
func (u Unit) Delay(amount int) time.Duration {
	d := u.duration()
	if d == 0 || amount <= 0 || int64(amount) > math.MaxInt64/int64(d) {
		return 0
	}
	return time.Duration(amount) * d
}

// Phrase renders "5 minutes" or "1 hour".
func (u Unit) Phrase(amount int) string {
	if amount == 1 {
		return fmt.Sprintf("%d %s", amount, u)
	}
	return fmt.Sprintf("%d %ss", amount, u)
}

// Reminder is a pending delayed narration.
type Reminder struct {
	ID     string
	Task   string
	Amount int
	Unit   Unit
	FireAt time.Time
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can fire reminders deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Scheduler arranges one narration per reminder.
type Scheduler struct {
	clock Clock
	say   func(text string)
	fired func(r Reminder)

	mu      sync.Mutex
	pending map[string]Timer
	stopped bool
}

// NewScheduler creates a scheduler that narrates through say.
func NewScheduler(clock Clock, say func(text string)) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{
		clock:   clock,
		say:     say,
		pending: make(map[string]Timer),
	}
}

// OnFire registers a hook called after a reminder has been narrated.
func (s *Scheduler) OnFire(f func(r Reminder)) {
	s.fired = f
}

// Schedule narrates a confirmation right away and the reminder itself
// after amount units.
func (s *Scheduler) Schedule(task string, amount int, unit Unit) (Reminder, error) {
	delay := unit.Delay(amount)
	if amount <= 0 || delay <= 0 {
		return Reminder{}, fmt.Errorf("%w: %d %s", ErrInvalidDuration, amount, unit)
	}

	r := Reminder{
		ID:     uuid.NewString(),
		Task:   task,
		Amount: amount,
		Unit:   unit,
		FireAt: s.clock.Now().Add(delay),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return Reminder{}, errors.New("reminder scheduler stopped")
	}
	s.pending[r.ID] = s.clock.AfterFunc(delay, func() { s.fire(r) })
	s.mu.Unlock()

	log.Info("Reminder scheduled", "id", r.ID, "task", task, "in", delay)
	s.say(fmt.Sprintf("Okay, I'll remind you to %s in %s.", task, unit.Phrase(amount)))

	return r, nil
}

// Pending reports how many reminders have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending timer. Used on shutdown only.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

func (s *Scheduler) fire(r Reminder) {
	s.mu.Lock()
	_, ok := s.pending[r.ID]
	delete(s.pending, r.ID)
	s.mu.Unlock()

	if !ok {
		return
	}

	log.Info("Reminder fired", "id", r.ID, "task", r.Task)
	s.say(fmt.Sprintf("Reminder: %s", r.Task))

	if s.fired != nil {
		s.fired(r)
	}
}
