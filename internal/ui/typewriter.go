package ui

import (
	"sync"
	"time"

	"beast/internal/ports"
)

// Typewriter reveals replies one character at a time on the wrapped
// presenter. A new reply or Clear aborts the reveal in progress.
type Typewriter struct {
	ports.Presenter
	Delay time.Duration

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewTypewriter(p ports.Presenter, delay time.Duration) *Typewriter {
	return &Typewriter{Presenter: p, Delay: delay}
}

func (t *Typewriter) Reply(text string) {
	t.mu.Lock()
	t.abort()
	if t.Delay <= 0 {
		t.mu.Unlock()
		t.Presenter.Reply(text)
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.wg.Add(1)
	t.mu.Unlock()

	go t.reveal([]rune(text), stop)
}

func (t *Typewriter) Clear() {
	t.mu.Lock()
	t.abort()
	t.mu.Unlock()
	t.Presenter.Clear()
}

// Wait blocks until the current reveal finished or was aborted.
func (t *Typewriter) Wait() {
	t.wg.Wait()
}

func (t *Typewriter) abort() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Typewriter) reveal(text []rune, stop <-chan struct{}) {
	defer t.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i := 1; i <= len(text); i++ {
		select {
		case <-stop:
			return
		default:
		}
		t.Presenter.Reply(string(text[:i]))

		if i == len(text) {
			return
		}
		timer.Reset(t.Delay)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}
