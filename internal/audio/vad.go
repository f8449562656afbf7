package audio

import (
	"math"
	"time"
)

// VADConfig tunes utterance segmentation.
type VADConfig struct {
	SampleRate int
	FrameSize  int
	// SilenceRMS is the loudness below which a frame counts as silence.
	SilenceRMS float64
	// Silence after speech that ends the utterance.
	Silence time.Duration
	// MaxLength caps the recording, speech or not.
	MaxLength time.Duration
}

func DefaultVADConfig() VADConfig {
	return VADConfig{
		SampleRate: 16000,
		FrameSize:  320, // 20ms
		SilenceRMS: 0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  10 * time.Second,
	}
}

func (c VADConfig) frameDuration() time.Duration {
	return time.Duration(c.FrameSize) * time.Second / time.Duration(c.SampleRate)
}

// Segmenter collects one utterance from a stream of frames: leading
// silence is skipped, trailing silence up to the cutoff is kept.
type Segmenter struct {
	cfg       VADConfig
	out       []float32
	speaking  bool
	silent    time.Duration
	elapsed   time.Duration
	frameTime time.Duration
}

func NewSegmenter(cfg VADConfig) *Segmenter {
	return &Segmenter{
		cfg:       cfg,
		out:       make([]float32, 0, cfg.SampleRate*3),
		frameTime: cfg.frameDuration(),
	}
}

// Push adds a frame and reports its loudness and whether the utterance
// is complete.
func (s *Segmenter) Push(frame []float32) (rms float64, done bool) {
	rms = FrameRMS(frame)
	s.elapsed += s.frameTime

	switch {
	case rms > s.cfg.SilenceRMS:
		s.speaking = true
		s.silent = 0
		s.out = append(s.out, frame...)
	case s.speaking:
		s.silent += s.frameTime
		if s.silent >= s.cfg.Silence {
			return rms, true
		}
		s.out = append(s.out, frame...)
	}

	return rms, s.elapsed >= s.cfg.MaxLength
}

// Samples returns the captured utterance, empty if no speech was heard.
func (s *Segmenter) Samples() []float32 {
	return s.out
}

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, x := range f {
		sum += float64(x * x)
	}
	return math.Sqrt(sum / float64(len(f)))
}

// Level maps an RMS value to 0..1 for meters.
func Level(rms float64) float64 {
	return math.Min(1, rms*10)
}
