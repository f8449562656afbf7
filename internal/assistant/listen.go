package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"beast/internal/domain"
	"beast/internal/ports"
)

// StartListening opens a listening session in the background. It is
// rejected while a session is open or a narration is playing.
func (a *Assistant) StartListening() error {
	s, err := a.beginSession()
	if err != nil {
		return err
	}

	go func() {
		defer a.wg.Done()
		a.listen(s)
	}()

	return nil
}

// Toggle stops an open session or starts a new one.
func (a *Assistant) Toggle() error {
	if a.State() == domain.StateListening {
		a.StopListening()
		return nil
	}
	return a.StartListening()
}

// StopListening ends the open session and releases the microphone.
func (a *Assistant) StopListening() {
	a.mu.Lock()
	s := a.session
	a.mu.Unlock()

	if s != nil {
		a.endSession(s)
	}
}

// Suspend is called when the surface goes to the background.
func (a *Assistant) Suspend() {
	log.Debug("Suspending")
	a.StopListening()
}

// Transcribe recognizes pre-recorded audio and dispatches the result.
func (a *Assistant) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	if a.recognizer == nil {
		return "", domain.ErrUnsupported
	}

	text, err := a.recognizer.Transcribe(ctx, pcm16k)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text = strings.ToLower(strings.TrimSpace(text))

	a.presenter.Transcript("You said: " + text)
	return a.dispatch(text, "audio"), nil
}

func (a *Assistant) beginSession() (*session, error) {
	a.mu.Lock()

	switch {
	case a.closed:
		a.mu.Unlock()
		return nil, ErrClosed
	case a.recognizer == nil || a.mic == nil:
		a.mu.Unlock()
		a.presenter.Transcript(msgRecognitionUnsupported)
		return nil, domain.ErrUnsupported
	case a.session != nil || a.speaking:
		a.mu.Unlock()
		return nil, domain.ErrBusy
	}

	ctx, cancel := context.WithCancel(a.root)
	s := &session{ctx: ctx, cancel: cancel}
	a.session = s
	a.wg.Add(1)
	a.mu.Unlock()

	a.publishState()
	a.presenter.Transcript(msgListening)

	return s, nil
}

// endSession cancels s, closes its capture and, if s is still the open
// session, returns to Idle. Safe to call more than once.
func (a *Assistant) endSession(s *session) {
	s.cancel()
	a.releaseCapture(s)

	a.mu.Lock()
	current := a.session == s
	if current {
		a.session = nil
	}
	a.mu.Unlock()

	if current {
		a.publishState()
	}
}

// attach records the open capture on s unless the session already ended.
func (a *Assistant) attach(s *session, capture ports.Capture) bool {
	a.mu.Lock()
	if s.ctx.Err() == nil {
		s.capture = capture
		a.mu.Unlock()
		return true
	}
	a.mu.Unlock()

	_ = capture.Close()
	return false
}

func (a *Assistant) listen(s *session) {
	start := time.Now()
	status := "canceled"
	defer func() {
		a.endSession(s)
		a.metrics.Listens.WithLabelValues(status).Inc()
	}()

	if a.earcon != nil {
		if err := a.earcon(); err != nil {
			log.Warn("Failed to play earcon", "err", err)
		}
	}

	capture, err := a.mic.Open(s.ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.Error("Microphone access denied", "err", err)
		a.presenter.Transcript(msgMicrophoneRequired)
		status = "denied"
		return
	}
	if !a.attach(s, capture) {
		return
	}

	pcm, err := capture.Record(s.ctx, a.presenter.Level)
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Error("Recording failed", "err", err)
		a.presenter.Transcript(msgRecognitionError)
		status = "error"
		return
	}

	// The microphone is not needed for recognition.
	a.releaseCapture(s)

	if len(pcm) == 0 {
		status = "empty"
		return
	}

	text, err := a.recognizer.Transcribe(s.ctx, pcm)
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Error("Speech recognition error", "err", err)
		a.presenter.Transcript(msgRecognitionError)
		status = "error"
		return
	}

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		status = "empty"
		return
	}

	status = "ok"
	a.metrics.ListenTime.Observe(time.Since(start).Seconds())
	a.metrics.Transcribed.Add(float64(len(text)))

	a.presenter.Transcript("You said: " + text)
	a.endSession(s)
	a.dispatch(text, "voice")
}

func (a *Assistant) releaseCapture(s *session) {
	a.mu.Lock()
	capture := s.capture
	s.capture = nil
	a.mu.Unlock()

	if capture != nil {
		if err := capture.Close(); err != nil {
			log.Warn("Failed to release microphone", "err", err)
		}
	}
}
