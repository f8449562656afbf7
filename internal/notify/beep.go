package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Earcon plays the short cue that marks the start of listening. The
// sound is decoded once and replayed from memory.
type Earcon struct {
	path string

	once sync.Once
	buf  *beep.Buffer
	err  error
}

func NewEarcon(path string) *Earcon {
	return &Earcon{path: path}
}

func (e *Earcon) load() {
	f, err := os.Open(e.path)
	if err != nil {
		e.err = fmt.Errorf("open earcon: %w", err)
		return
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		e.err = fmt.Errorf("decode earcon: %w", err)
		return
	}
	defer streamer.Close()

	e.buf = beep.NewBuffer(format)
	e.buf.Append(streamer)

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		e.err = fmt.Errorf("init speaker: %w", err)
	}
}

// Play blocks until the cue finished.
func (e *Earcon) Play() error {
	e.once.Do(e.load)
	if e.err != nil {
		return e.err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(e.buf.Streamer(0, e.buf.Len()), beep.Callback(func() {
		close(done)
	})))
	<-done

	return nil
}
