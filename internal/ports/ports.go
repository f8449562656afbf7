package ports

import (
	"context"

	"beast/internal/domain"
)

// Capture is a live microphone session. Close releases the device and
// must be safe to call more than once.
type Capture interface {
	// Record blocks until one utterance was captured, the context is
	// cancelled or the maximum length is reached. level receives a
	// normalized 0..1 loudness per frame.
	Record(ctx context.Context, level func(float64)) ([]float32, error)
	Close() error
}

// Microphone grants access to the default input device.
type Microphone interface {
	Open(ctx context.Context) (Capture, error)
}

// Recognizer turns 16 kHz mono PCM into text.
type Recognizer interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Voice performs blocking speech playback of already sanitized text.
type Voice interface {
	Say(ctx context.Context, text string) error
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string) error
}

// Presenter is the display surface. Implementations must not block.
type Presenter interface {
	Status(state domain.State)
	Transcript(text string)
	Reply(text string)
	ShowAnswer(answer domain.Answer)
	HideAnswer()
	News(list string)
	Level(level float64)
	Clear()
}

// Ducker lowers other audio streams while the assistant speaks.
type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}
