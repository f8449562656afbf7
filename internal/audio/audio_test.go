package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(n int, v float32) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestSegmenterCutsAfterSilence(t *testing.T) {
	cfg := DefaultVADConfig()
	seg := NewSegmenter(cfg)

	// leading silence is dropped
	for i := 0; i < 5; i++ {
		_, done := seg.Push(frame(cfg.FrameSize, 0))
		require.False(t, done)
	}
	assert.Empty(t, seg.Samples())

	for i := 0; i < 10; i++ {
		_, done := seg.Push(frame(cfg.FrameSize, 0.5))
		require.False(t, done)
	}

	// 600ms of 20ms frames
	var done bool
	var pushed int
	for !done {
		_, done = seg.Push(frame(cfg.FrameSize, 0))
		pushed++
	}
	assert.Equal(t, 30, pushed)
	assert.Len(t, seg.Samples(), (10+29)*cfg.FrameSize)
}

func TestSegmenterStopsAtMaxLength(t *testing.T) {
	cfg := DefaultVADConfig()
	cfg.MaxLength = 100 * time.Millisecond
	seg := NewSegmenter(cfg)

	var frames int
	for {
		frames++
		if _, done := seg.Push(frame(cfg.FrameSize, 0)); done {
			break
		}
	}
	assert.Equal(t, 5, frames)
	assert.Empty(t, seg.Samples())
}

func TestFrameRMSAndLevel(t *testing.T) {
	assert.Zero(t, FrameRMS(nil))
	assert.InDelta(t, 0.5, FrameRMS(frame(4, 0.5)), 1e-9)
	assert.Equal(t, 1.0, Level(0.5))
	assert.InDelta(t, 0.2, Level(0.02), 1e-9)
}

const sinkInputs = `Sink Input #42
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #43
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "beast"
Sink Input #bogus
	Volume: 10%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []streamInfo{
		{ID: 42, Volume: 80, AppName: "Firefox"},
		{ID: 43, Volume: 100, AppName: "beast"},
	}, got)

	assert.Nil(t, parseSinkInputs("no sinks here"))
}

type fakePactl struct {
	mu      sync.Mutex
	streams []streamInfo
	sets    map[int][]int
}

func (f *fakePactl) listStreams(context.Context) ([]streamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]streamInfo(nil), f.streams...), nil
}

func (f *fakePactl) setVolume(_ context.Context, id int, percent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[id] = append(f.sets[id], percent)
	for i := range f.streams {
		if f.streams[i].ID == id {
			f.streams[i].Volume = percent
		}
	}
	return nil
}

func TestDuckerLowersOthersAndRestores(t *testing.T) {
	p := &fakePactl{
		streams: []streamInfo{
			{ID: 1, Volume: 80, AppName: "Firefox"},
			{ID: 2, Volume: 100, AppName: "beast"},
		},
		sets: map[int][]int{},
	}
	d := NewDucker(DuckConfig{SelfNames: []string{"beast"}, Factor: 0.25, MinVolume: 10})
	d.pactl = p

	require.NoError(t, d.Duck(context.Background()))
	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []int{20}, p.sets[1])
	assert.Empty(t, p.sets[2])

	require.NoError(t, d.Unduck(context.Background()))
	assert.Equal(t, []int{20, 80}, p.sets[1])

	require.NoError(t, d.Unduck(context.Background()))
	assert.Len(t, p.sets[1], 2)
}

func TestDuckerRespectsFloorAndFade(t *testing.T) {
	p := &fakePactl{
		streams: []streamInfo{{ID: 7, Volume: 40, AppName: "mpv"}},
		sets:    map[int][]int{},
	}
	d := NewDucker(DuckConfig{Factor: 0.1, MinVolume: 30, Fade: 20 * time.Millisecond})
	d.pactl = p

	require.NoError(t, d.Duck(context.Background()))

	steps := p.sets[7]
	require.Len(t, steps, 3)
	assert.Equal(t, 40, steps[0])
	assert.Equal(t, 30, steps[len(steps)-1])
}
