package tts

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"beast/internal/domain"
	"beast/internal/ports"
)

// ErrCanceled is reported for narrations dropped by Cancel.
var ErrCanceled = errors.New("narration canceled")

// Observer receives narration lifecycle signals. Calls happen on the
// narration worker goroutine.
type Observer interface {
	SpeechStarted(text string)
	SpeechEnded(err error)
}

type job struct {
	text     string
	done     chan error
	ctx      context.Context
	cancel   context.CancelFunc
	canceled bool
}

func (j *job) finish(err error) {
	j.done <- err
	close(j.done)
}

// Narrator serializes speech playback on a single worker. Speak never
// blocks; callers that need ordering wait on the returned channel.
type Narrator struct {
	voice ports.Voice
	obs   Observer

	mu      sync.Mutex
	pending []*job
	current *job
	closed  bool

	root     context.Context
	shutdown context.CancelFunc
	wake     chan struct{}
	finished chan struct{}

	warnOnce sync.Once
}

// NewNarrator starts the worker. A nil voice disables synthesis: every
// narration completes immediately with domain.ErrUnsupported.
func NewNarrator(voice ports.Voice, obs Observer) *Narrator {
	root, shutdown := context.WithCancel(context.Background())
	n := &Narrator{
		voice:    voice,
		obs:      obs,
		root:     root,
		shutdown: shutdown,
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	go n.run()
	return n
}

// Speak sanitizes text and queues it. The returned channel yields nil
// once playback finished, or the error that ended it, and is then closed.
// Text that sanitizes to nothing produces no playback at all.
func (n *Narrator) Speak(text string) <-chan error {
	j := &job{text: Sanitize(text), done: make(chan error, 1)}

	if j.text == "" {
		j.finish(nil)
		return j.done
	}

	if n.voice == nil {
		n.warnOnce.Do(func() {
			log.Error("Speech synthesis not supported")
		})
		j.finish(domain.ErrUnsupported)
		return j.done
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		j.finish(ErrCanceled)
		return j.done
	}
	n.pending = append(n.pending, j)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}

	return j.done
}

// Cancel drops queued narrations and interrupts the one being played.
func (n *Narrator) Cancel() {
	n.mu.Lock()
	pending := n.pending
	n.pending = nil
	var interrupt context.CancelFunc
	if n.current != nil {
		n.current.canceled = true
		interrupt = n.current.cancel
	}
	n.mu.Unlock()

	for _, j := range pending {
		j.finish(ErrCanceled)
	}
	if interrupt != nil {
		interrupt()
	}
}

// Busy reports whether a narration is playing or queued.
func (n *Narrator) Busy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current != nil || len(n.pending) > 0
}

// Close cancels everything and stops the worker.
func (n *Narrator) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	n.Cancel()
	n.shutdown()
	<-n.finished
}

func (n *Narrator) run() {
	defer close(n.finished)

	for {
		j := n.next()
		if j == nil {
			select {
			case <-n.wake:
				continue
			case <-n.root.Done():
				return
			}
		}

		n.play(j)
	}
}

func (n *Narrator) next() *job {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.pending) == 0 {
		return nil
	}
	j := n.pending[0]
	n.pending = n.pending[1:]

	j.ctx, j.cancel = context.WithCancel(n.root)
	n.current = j

	return j
}

func (n *Narrator) play(j *job) {
	if n.obs != nil {
		n.obs.SpeechStarted(j.text)
	}

	err := n.voice.Say(j.ctx, j.text)
	j.cancel()

	n.mu.Lock()
	canceled := j.canceled || n.root.Err() != nil
	n.current = nil
	n.mu.Unlock()

	switch {
	case canceled:
		err = ErrCanceled
	case err != nil:
		log.Error("Speech synthesis error", "err", err)
		err = fmt.Errorf("say: %w", err)
	}

	if n.obs != nil {
		n.obs.SpeechEnded(err)
	}
	j.finish(err)
}
