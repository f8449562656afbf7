package assistant

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"beast/internal/domain"
	"beast/internal/ports"
	"beast/internal/reminder"
)

type fakeVoice struct {
	mu      sync.Mutex
	said    []string
	block   chan struct{}
	started chan string
}

func (v *fakeVoice) Say(ctx context.Context, text string) error {
	v.mu.Lock()
	v.said = append(v.said, text)
	v.mu.Unlock()

	if v.started != nil {
		v.started <- text
	}
	if v.block != nil {
		select {
		case <-v.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (v *fakeVoice) lines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.said...)
}

type fakeCapture struct {
	pcm       []float32
	err       error
	block     bool
	recording chan struct{}
	closes    atomic.Int32
}

func (c *fakeCapture) Record(ctx context.Context, level func(float64)) ([]float32, error) {
	level(0.5)
	if c.recording != nil {
		close(c.recording)
	}
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.pcm, c.err
}

func (c *fakeCapture) Close() error {
	c.closes.Add(1)
	return nil
}

type fakeMic struct {
	capture *fakeCapture
	err     error
}

func (m *fakeMic) Open(context.Context) (ports.Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.capture, nil
}

type fakeRecognizer struct {
	text  string
	err   error
	calls atomic.Int32
}

func (r *fakeRecognizer) Transcribe(context.Context, []float32) (string, error) {
	r.calls.Add(1)
	return r.text, r.err
}

type fakeOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *fakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

type fakePresenter struct {
	mu          sync.Mutex
	states      []domain.State
	transcripts []string
	replies     []string
	answers     []domain.Answer
	hides       int
	clears      int
	levels      []float64
}

func (p *fakePresenter) Status(s domain.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, s)
}

func (p *fakePresenter) Transcript(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcripts = append(p.transcripts, text)
}

func (p *fakePresenter) Reply(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, text)
}

func (p *fakePresenter) ShowAnswer(a domain.Answer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, a)
}

func (p *fakePresenter) HideAnswer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hides++
}

func (p *fakePresenter) News(string) {}

func (p *fakePresenter) Level(l float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = append(p.levels, l)
}

func (p *fakePresenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
}

func (p *fakePresenter) transcriptLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.transcripts...)
}

func (p *fakePresenter) stateList() []domain.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.State(nil), p.states...)
}

type fakeDucker struct {
	ducks, unducks atomic.Int32
}

func (d *fakeDucker) Duck(context.Context) error {
	d.ducks.Add(1)
	return nil
}

func (d *fakeDucker) Unduck(context.Context) error {
	d.unducks.Add(1)
	return nil
}

type fakeTopic struct {
	topics chan string
}

func (f *fakeTopic) Run(_ context.Context, topic string) error {
	f.topics <- topic
	return nil
}

type manualTimer struct {
	f       func()
	stopped atomic.Bool
}

func (t *manualTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

// manualClock fires timers only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) Now() time.Time {
	return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) reminder.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fireAll() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()

	for _, t := range timers {
		if !t.stopped.Swap(true) {
			t.f()
		}
	}
}
