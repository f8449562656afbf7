package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast/internal/catalog"
	"beast/internal/domain"
	"beast/internal/metrics"
	"beast/internal/nlu"
	"beast/internal/tts"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	a         *Assistant
	voice     *fakeVoice
	presenter *fakePresenter
	opener    *fakeOpener
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		voice:     &fakeVoice{},
		presenter: &fakePresenter{},
		opener:    &fakeOpener{},
		metrics:   metrics.New(),
	}
	if opts.Voice == nil {
		opts.Voice = h.voice
	} else if v, ok := opts.Voice.(*fakeVoice); ok {
		h.voice = v
	}
	opts.Presenter = h.presenter
	opts.Opener = h.opener
	opts.Metrics = h.metrics
	opts.Dispatcher = nlu.New(nlu.Env{
		Catalog: catalog.Default(),
		Pick:    func(int) int { return 0 },
	})

	h.a = New(opts)
	t.Cleanup(h.a.Close)
	return h
}

func (h *harness) waitSaid(t *testing.T, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, h.voice.lines())
	}, waitFor, tick, "said %v", h.voice.lines())
}

func TestHandleGreeting(t *testing.T) {
	h := newHarness(t, Options{})

	intent := h.a.Handle("  Hello BEAST ")

	assert.Equal(t, "greeting", intent)
	h.waitSaid(t, "Hey there! I'm BEAST, your advanced voice assistant. How can I help you today?")
	assert.Equal(t, 1, h.presenter.hides)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Commands.WithLabelValues("greeting", "text")))
}

func TestHandleOpensSite(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, "open_youtube", h.a.Handle("open youtube"))
	h.waitSaid(t, "Opening YouTube.")
	assert.Equal(t, []string{"https://youtube.com"}, h.opener.urls)
}

func TestHandleClear(t *testing.T) {
	h := newHarness(t, Options{})

	h.a.Handle("clear")
	h.waitSaid(t, "Screen cleared.")
	assert.Equal(t, 1, h.presenter.clears)
}

func TestListenDispatchesTranscript(t *testing.T) {
	capture := &fakeCapture{pcm: []float32{0.1, 0.2}}
	rec := &fakeRecognizer{text: " Tell me a Joke "}
	h := newHarness(t, Options{Microphone: &fakeMic{capture: capture}, Recognizer: rec})

	require.NoError(t, h.a.StartListening())

	h.waitSaid(t, tts.Sanitize(catalog.Default().Jokes[0]))
	assert.Equal(t, []string{msgListening, "You said: tell me a joke"}, h.presenter.transcriptLines())
	assert.Equal(t, int32(1), capture.closes.Load())
	assert.Contains(t, h.presenter.levels, 0.5)

	require.Eventually(t, func() bool { return h.a.State() == domain.StateIdle }, waitFor, tick)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Commands.WithLabelValues("joke", "voice")))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Listens.WithLabelValues("ok")) == 1
	}, waitFor, tick)
}

func TestListenMicrophoneDenied(t *testing.T) {
	h := newHarness(t, Options{
		Microphone: &fakeMic{err: errors.New("permission denied")},
		Recognizer: &fakeRecognizer{text: "hello"},
	})

	require.NoError(t, h.a.StartListening())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Listens.WithLabelValues("denied")) == 1
	}, waitFor, tick)
	assert.Contains(t, h.presenter.transcriptLines(), msgMicrophoneRequired)
	assert.Equal(t, domain.StateIdle, h.a.State())
	assert.Empty(t, h.voice.lines())
}

func TestListenRecognitionError(t *testing.T) {
	capture := &fakeCapture{pcm: []float32{0.1}}
	h := newHarness(t, Options{
		Microphone: &fakeMic{capture: capture},
		Recognizer: &fakeRecognizer{err: errors.New("network")},
	})

	require.NoError(t, h.a.StartListening())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Listens.WithLabelValues("error")) == 1
	}, waitFor, tick)
	assert.Contains(t, h.presenter.transcriptLines(), msgRecognitionError)
	assert.Equal(t, int32(1), capture.closes.Load())
	assert.Equal(t, domain.StateIdle, h.a.State())
	assert.Empty(t, h.voice.lines())
}

func TestStopAndSuspendReleaseMicrophone(t *testing.T) {
	for name, stop := range map[string]func(a *Assistant){
		"stop":    (*Assistant).StopListening,
		"suspend": (*Assistant).Suspend,
	} {
		t.Run(name, func(t *testing.T) {
			capture := &fakeCapture{block: true, recording: make(chan struct{})}
			rec := &fakeRecognizer{text: "hello"}
			h := newHarness(t, Options{Microphone: &fakeMic{capture: capture}, Recognizer: rec})

			require.NoError(t, h.a.StartListening())
			<-capture.recording
			assert.Equal(t, domain.StateListening, h.a.State())

			stop(h.a)

			assert.Equal(t, domain.StateIdle, h.a.State())
			assert.Equal(t, int32(1), capture.closes.Load())
			require.Eventually(t, func() bool {
				return testutil.ToFloat64(h.metrics.Listens.WithLabelValues("canceled")) == 1
			}, waitFor, tick)
			assert.Zero(t, rec.calls.Load())
			assert.Empty(t, h.voice.lines())
		})
	}
}

func TestToggle(t *testing.T) {
	capture := &fakeCapture{block: true, recording: make(chan struct{})}
	h := newHarness(t, Options{Microphone: &fakeMic{capture: capture}, Recognizer: &fakeRecognizer{}})

	require.NoError(t, h.a.Toggle())
	<-capture.recording
	require.NoError(t, h.a.Toggle())

	assert.Equal(t, domain.StateIdle, h.a.State())
	assert.Equal(t, int32(1), capture.closes.Load())
}

func TestStartListeningRejectedWhileBusy(t *testing.T) {
	voice := &fakeVoice{block: make(chan struct{}), started: make(chan string, 4)}
	capture := &fakeCapture{block: true, recording: make(chan struct{})}
	h := newHarness(t, Options{
		Voice:      voice,
		Microphone: &fakeMic{capture: capture},
		Recognizer: &fakeRecognizer{},
	})

	require.NoError(t, h.a.StartListening())
	<-capture.recording
	assert.ErrorIs(t, h.a.StartListening(), domain.ErrBusy)
	h.a.StopListening()

	h.a.Say("hold on")
	<-voice.started
	require.Eventually(t, func() bool { return h.a.State() == domain.StateSpeaking }, waitFor, tick)
	assert.ErrorIs(t, h.a.StartListening(), domain.ErrBusy)

	h.a.StopSpeaking()
	assert.Equal(t, domain.StateIdle, h.a.State())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Narrations.WithLabelValues("canceled")) == 1
	}, waitFor, tick)
}

func TestStartListeningUnsupported(t *testing.T) {
	h := newHarness(t, Options{})

	assert.ErrorIs(t, h.a.StartListening(), domain.ErrUnsupported)
	assert.Equal(t, []string{msgRecognitionUnsupported}, h.presenter.transcriptLines())
	assert.Equal(t, domain.StateIdle, h.a.State())
}

func TestNarrationWhileListeningKeepsListeningState(t *testing.T) {
	capture := &fakeCapture{block: true, recording: make(chan struct{})}
	h := newHarness(t, Options{Microphone: &fakeMic{capture: capture}, Recognizer: &fakeRecognizer{}})

	require.NoError(t, h.a.StartListening())
	<-capture.recording

	h.a.Say("Reminder: stretch")
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Narrations.WithLabelValues("ok")) == 1
	}, waitFor, tick)

	assert.Equal(t, domain.StateListening, h.a.State())
	assert.NotContains(t, h.presenter.stateList(), domain.StateSpeaking)
}

func TestReminderNarratesConfirmationThenReminder(t *testing.T) {
	clock := &manualClock{}
	h := newHarness(t, Options{Clock: clock})

	assert.Equal(t, "remind", h.a.Handle("remind me to stretch in 5 minutes"))
	h.waitSaid(t, "Okay, I'll remind you to stretch in 5 minutes.")
	assert.Equal(t, 1, h.a.Status().Reminders)

	clock.fireAll()
	h.waitSaid(t, "Okay, I'll remind you to stretch in 5 minutes.", "Reminder: stretch")
	assert.Equal(t, 0, h.a.Status().Reminders)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reminders.WithLabelValues("fired")))
}

func TestTopicLookupRunsInBackground(t *testing.T) {
	h := newHarness(t, Options{})
	topic := &fakeTopic{topics: make(chan string, 1)}
	h.a.UseLookups(topic, nil)

	assert.Equal(t, "topic", h.a.Handle("Who is Ada Lovelace"))

	select {
	case got := <-topic.topics:
		assert.Equal(t, "ada lovelace", got)
	case <-time.After(waitFor):
		t.Fatal("topic lookup not started")
	}
	h.waitSaid(t, "Let me search for information about ada lovelace.")
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Lookups.WithLabelValues("topic", "ok")) == 1
	}, waitFor, tick)
}

func TestMissingHeadlinesReader(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, "news", h.a.Handle("read the news"))
	h.waitSaid(t, msgNewsUnavailable)
}

func TestDuckingFollowsNarration(t *testing.T) {
	ducker := &fakeDucker{}
	h := newHarness(t, Options{Ducker: ducker})

	h.a.Say("Later, legend!")
	require.Eventually(t, func() bool {
		return ducker.ducks.Load() == 1 && ducker.unducks.Load() == 1
	}, waitFor, tick)
	h.waitSaid(t, "Later, legend!")
}

func TestTranscribeDispatches(t *testing.T) {
	h := newHarness(t, Options{Recognizer: &fakeRecognizer{text: "What's up"}})

	intent, err := h.a.Transcribe(context.Background(), []float32{0.1})
	require.NoError(t, err)
	assert.Equal(t, "whats_up", intent)
	assert.Equal(t, []string{"You said: what's up"}, h.presenter.transcriptLines())
	h.waitSaid(t, "Just chilling in the code. Ready to help!")
}

func TestCloseReleasesMicrophone(t *testing.T) {
	capture := &fakeCapture{block: true, recording: make(chan struct{})}
	h := newHarness(t, Options{Microphone: &fakeMic{capture: capture}, Recognizer: &fakeRecognizer{}})

	require.NoError(t, h.a.StartListening())
	<-capture.recording

	h.a.Close()

	assert.Equal(t, int32(1), capture.closes.Load())
	assert.ErrorIs(t, h.a.StartListening(), ErrClosed)
}
