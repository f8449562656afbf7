package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"beast/internal/catalog"
	"beast/internal/domain"
	"beast/internal/metrics"
	"beast/internal/nlu"
	"beast/internal/ports"
	"beast/internal/reminder"
	"beast/internal/tts"
	"beast/internal/ui"
)

// ErrClosed is returned by operations started after Close.
var ErrClosed = errors.New("assistant closed")

const (
	msgRecognitionUnsupported = "Speech recognition not supported"
	msgMicrophoneRequired     = "Microphone access required"
	msgRecognitionError       = "Error occurred. Try again."
	msgListening              = "Listening..."
	msgLookupUnavailable      = "There was an error getting the information."
	msgNewsUnavailable        = "Sorry, I couldn't fetch the news right now."
	msgReminderInvalid        = "Please tell me a valid time for the reminder, like remind me to stretch in 5 minutes."
)

// TopicLookup narrates a reference summary for topic.
type TopicLookup interface {
	Run(ctx context.Context, topic string) error
}

// HeadlineReader narrates the current headlines.
type HeadlineReader interface {
	Run(ctx context.Context) error
}

// Options wires the assistant's capabilities. A nil Voice, Recognizer or
// Microphone marks that capability as unsupported.
type Options struct {
	Dispatcher *nlu.Dispatcher
	Voice      ports.Voice
	Recognizer ports.Recognizer
	Microphone ports.Microphone
	Opener     ports.Opener
	Presenter  ports.Presenter
	Ducker     ports.Ducker
	Earcon     func() error
	Clock      reminder.Clock
	Metrics    *metrics.Metrics
}

type session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	capture ports.Capture
}

// Assistant ties recognition, dispatch and narration together and owns
// the session state.
type Assistant struct {
	dispatcher *nlu.Dispatcher
	recognizer ports.Recognizer
	mic        ports.Microphone
	opener     ports.Opener
	presenter  ports.Presenter
	ducker     ports.Ducker
	earcon     func() error
	metrics    *metrics.Metrics

	narrator  *tts.Narrator
	reminders *reminder.Scheduler

	topic     TopicLookup
	headlines HeadlineReader

	root     context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Int32

	mu       sync.Mutex
	session  *session
	speaking bool
	closed   bool
}

func New(opts Options) *Assistant {
	if opts.Dispatcher == nil {
		opts.Dispatcher = nlu.New(nlu.Env{Catalog: catalog.Default()})
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.Discard{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	root, cancel := context.WithCancel(context.Background())
	a := &Assistant{
		dispatcher: opts.Dispatcher,
		recognizer: opts.Recognizer,
		mic:        opts.Microphone,
		opener:     opts.Opener,
		presenter:  opts.Presenter,
		ducker:     opts.Ducker,
		earcon:     opts.Earcon,
		metrics:    opts.Metrics,
		root:       root,
		cancel:     cancel,
	}

	a.narrator = tts.NewNarrator(opts.Voice, a)
	a.reminders = reminder.NewScheduler(opts.Clock, a.Say)
	a.reminders.OnFire(func(reminder.Reminder) {
		a.metrics.Reminders.WithLabelValues("fired").Inc()
	})

	return a
}

// UseLookups installs the lookup adapters. They narrate through the
// assistant, so they can only be built once it exists.
func (a *Assistant) UseLookups(topic TopicLookup, headlines HeadlineReader) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.topic = topic
	a.headlines = headlines
}

// State is Listening while a session is open, Speaking while narrating
// and Idle otherwise.
func (a *Assistant) State() domain.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *Assistant) stateLocked() domain.State {
	switch {
	case a.session != nil:
		return domain.StateListening
	case a.speaking:
		return domain.StateSpeaking
	}
	return domain.StateIdle
}

// Status reports the session state and the number of pending reminders.
func (a *Assistant) Status() domain.Status {
	return domain.Status{State: a.State(), Reminders: a.reminders.Pending()}
}

func (a *Assistant) publishState() {
	a.presenter.Status(a.State())
}

// Handle dispatches a typed or clicked command and returns the matched
// intent.
func (a *Assistant) Handle(text string) string {
	return a.dispatch(text, "text")
}

func (a *Assistant) dispatch(text, source string) string {
	a.presenter.HideAnswer()

	intent := a.dispatcher.Dispatch(nlu.Normalize(text), actions{a})
	a.metrics.Commands.WithLabelValues(intent, source).Inc()
	log.Info("Command dispatched", "intent", intent, "source", source)

	return intent
}

// Speak shows text as the reply and queues its narration.
func (a *Assistant) Speak(text string) <-chan error {
	a.presenter.Reply(text)
	return a.narrator.Speak(text)
}

// Say is Speak without waiting for completion.
func (a *Assistant) Say(text string) {
	a.Speak(text)
}

// StopSpeaking cancels the current and queued narrations.
func (a *Assistant) StopSpeaking() {
	a.narrator.Cancel()

	a.mu.Lock()
	a.speaking = false
	a.mu.Unlock()

	a.publishState()
}

// SpeechStarted implements tts.Observer.
func (a *Assistant) SpeechStarted(string) {
	a.mu.Lock()
	a.speaking = true
	a.mu.Unlock()
	a.publishState()

	if a.ducker != nil {
		if err := a.ducker.Duck(a.root); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
	}
}

// SpeechEnded implements tts.Observer.
func (a *Assistant) SpeechEnded(err error) {
	a.mu.Lock()
	a.speaking = false
	a.mu.Unlock()
	a.publishState()

	status := "ok"
	switch {
	case errors.Is(err, tts.ErrCanceled):
		status = "canceled"
	case err != nil:
		status = "error"
	}
	a.metrics.Narrations.WithLabelValues(status).Inc()

	if a.ducker != nil {
		if err := a.ducker.Unduck(context.WithoutCancel(a.root)); err != nil {
			log.Warn("Failed to restore other streams", "err", err)
		}
	}
}

// background runs a lookup outside the dispatch path. Close waits for it.
func (a *Assistant) background(kind string, f func(ctx context.Context) error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.inFlight.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer a.inFlight.Add(-1)
		err := f(a.root)
		a.metrics.Lookups.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	}()
}

// Settle blocks until no lookup is running and the narration queue is
// empty, or ctx is done.
func (a *Assistant) Settle(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for a.inFlight.Load() > 0 || a.narrator.Busy() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops listening, cancels narration and reminders and waits for
// background lookups.
func (a *Assistant) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.StopListening()
	a.reminders.Stop()
	a.narrator.Close()
	a.cancel()
	a.wg.Wait()

	log.Info("Assistant stopped")
}

// actions adapts the assistant to the dispatcher's side effects.
type actions struct {
	a *Assistant
}

func (x actions) Say(text string) {
	x.a.Say(text)
}

func (x actions) Open(url string) {
	if x.a.opener == nil {
		log.Warn("No page opener configured", "url", url)
		return
	}
	if err := x.a.opener.Open(url); err != nil {
		log.Error("Failed to open page", "url", url, "err", err)
	}
}

func (x actions) LookupTopic(topic string) {
	x.a.mu.Lock()
	lookup := x.a.topic
	x.a.mu.Unlock()

	if lookup == nil {
		x.a.Say(msgLookupUnavailable)
		return
	}
	x.a.background("topic", func(ctx context.Context) error {
		return lookup.Run(ctx, topic)
	})
}

func (x actions) ReadHeadlines() {
	x.a.mu.Lock()
	reader := x.a.headlines
	x.a.mu.Unlock()

	if reader == nil {
		x.a.Say(msgNewsUnavailable)
		return
	}
	x.a.background("headlines", reader.Run)
}

func (x actions) Remind(task string, amount int, unit reminder.Unit) {
	if _, err := x.a.reminders.Schedule(task, amount, unit); err != nil {
		log.Warn("Reminder rejected", "task", task, "err", err)
		x.a.Say(msgReminderInvalid)
		return
	}
	x.a.metrics.Reminders.WithLabelValues("scheduled").Inc()
}

func (x actions) ClearScreen() {
	x.a.presenter.Clear()
}
