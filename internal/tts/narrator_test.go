package tts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast/internal/domain"
)

type fakeVoice struct {
	mu     sync.Mutex
	said   []string
	block  chan struct{}
	err    error
	starts chan string
}

func (v *fakeVoice) Say(ctx context.Context, text string) error {
	v.mu.Lock()
	v.said = append(v.said, text)
	block := v.block
	err := v.err
	v.mu.Unlock()

	if v.starts != nil {
		v.starts <- text
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (v *fakeVoice) spoken() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.said...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) SpeechStarted(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "start:"+text)
}

func (o *recordingObserver) SpeechEnded(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.events = append(o.events, "error")
		return
	}
	o.events = append(o.events, "end")
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("narration did not complete")
		return nil
	}
}

func TestNarratorSpeaksSanitizedTextInOrder(t *testing.T) {
	voice := &fakeVoice{}
	obs := &recordingObserver{}
	n := NewNarrator(voice, obs)
	defer n.Close()

	first := n.Speak("Hello 🌍 there")
	second := n.Speak("Second!")

	require.NoError(t, wait(t, first))
	require.NoError(t, wait(t, second))

	assert.Equal(t, []string{"Hello there", "Second!"}, voice.spoken())
	assert.Equal(t, []string{"start:Hello there", "end", "start:Second!", "end"}, obs.snapshot())
}

func TestNarratorSkipsEmptyText(t *testing.T) {
	voice := &fakeVoice{}
	obs := &recordingObserver{}
	n := NewNarrator(voice, obs)
	defer n.Close()

	require.NoError(t, wait(t, n.Speak("")))
	require.NoError(t, wait(t, n.Speak("🎧 ✨")))

	assert.Empty(t, voice.spoken())
	assert.Empty(t, obs.snapshot())
}

func TestNarratorCancelDropsQueueAndInterrupts(t *testing.T) {
	voice := &fakeVoice{block: make(chan struct{}), starts: make(chan string, 4)}
	n := NewNarrator(voice, nil)
	defer n.Close()

	playing := n.Speak("one")
	queued := n.Speak("two")

	select {
	case <-voice.starts:
	case <-time.After(2 * time.Second):
		t.Fatal("first narration did not start")
	}

	n.Cancel()

	assert.ErrorIs(t, wait(t, playing), ErrCanceled)
	assert.ErrorIs(t, wait(t, queued), ErrCanceled)
	assert.Equal(t, []string{"one"}, voice.spoken())

	close(voice.block)
	require.NoError(t, wait(t, n.Speak("three")))
	assert.Equal(t, []string{"one", "three"}, voice.spoken())
}

func TestNarratorReportsVoiceErrors(t *testing.T) {
	voice := &fakeVoice{err: errors.New("device busy")}
	obs := &recordingObserver{}
	n := NewNarrator(voice, obs)
	defer n.Close()

	err := wait(t, n.Speak("hi"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCanceled)
	assert.Equal(t, []string{"start:hi", "error"}, obs.snapshot())
}

func TestNarratorWithoutVoiceIsUnsupported(t *testing.T) {
	n := NewNarrator(nil, nil)
	defer n.Close()

	assert.ErrorIs(t, wait(t, n.Speak("hello")), domain.ErrUnsupported)
	assert.NoError(t, wait(t, n.Speak("")))
}

func TestNarratorSpeakAfterClose(t *testing.T) {
	n := NewNarrator(&fakeVoice{}, nil)
	n.Close()
	n.Close()

	assert.ErrorIs(t, wait(t, n.Speak("late")), ErrCanceled)
}
