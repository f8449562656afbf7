package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"beast/internal/ports"
)

// Microphone opens portaudio's default input device.
type Microphone struct {
	cfg VADConfig
}

func NewMicrophone(cfg VADConfig) *Microphone {
	return &Microphone{cfg: cfg}
}

// Init must be called once before Open.
func (m *Microphone) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	return nil
}

func (m *Microphone) Terminate() {
	if err := portaudio.Terminate(); err != nil {
		log.Warn("portaudio terminate", "err", err)
	}
}

func (m *Microphone) Open(ctx context.Context) (ports.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]float32, m.cfg.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	return &capture{
		cfg:    m.cfg,
		stream: stream,
		buf:    buf,
		done:   make(chan struct{}),
	}, nil
}

type capture struct {
	cfg    VADConfig
	stream *portaudio.Stream
	buf    []float32

	// mu is held while reading so Close never tears the stream down
	// under a pending Read.
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (c *capture) Record(ctx context.Context, level func(float64)) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seg := NewSegmenter(c.cfg)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, errors.New("capture closed")
		default:
		}

		if err := c.stream.Read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}

		rms, done := seg.Push(c.buf)
		if level != nil {
			level(Level(rms))
		}
		if done {
			return seg.Samples(), nil
		}
	}
}

func (c *capture) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err := c.stream.Stop(); err != nil {
			c.closeErr = fmt.Errorf("stop input stream: %w", err)
		}
		if err := c.stream.Close(); err != nil && c.closeErr == nil {
			c.closeErr = fmt.Errorf("close input stream: %w", err)
		}
	})
	return c.closeErr
}
