package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	maxVolume = 150
	rampStep  = 10 * time.Millisecond
)

// DuckConfig describes how far and how fast other streams are lowered.
type DuckConfig struct {
	// SelfNames are application.name values left untouched.
	SelfNames []string
	// Factor scales the volume of every other stream.
	Factor float64
	// MinVolume is the floor in percent.
	MinVolume int
	Fade      time.Duration
}

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

// move is one stream's volume change during a ramp.
type move struct {
	id       int
	from, to int
}

// Ducker fades PulseAudio sink inputs of other applications down while
// the assistant speaks and restores them afterwards.
type Ducker struct {
	cfg   DuckConfig
	pactl pactl

	mu sync.Mutex
	// saved holds volumes from before Duck; nil while not ducked.
	saved map[int]int
}

func NewDucker(cfg DuckConfig) *Ducker {
	cfg.MinVolume = clampVolume(cfg.MinVolume)
	return &Ducker{cfg: cfg, pactl: execPactl{}}
}

// Duck lowers other streams to current*Factor. Calling it again before
// Unduck is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.saved != nil {
		return nil
	}

	streams, err := d.others(ctx)
	if err != nil {
		return err
	}

	saved := make(map[int]int, len(streams))
	moves := make([]move, 0, len(streams))
	for _, s := range streams {
		saved[s.ID] = s.Volume
		moves = append(moves, move{id: s.ID, from: s.Volume, to: d.lowered(s.Volume)})
	}

	if err := d.ramp(ctx, moves); err != nil {
		return err
	}
	d.saved = saved

	return nil
}

// Unduck fades the streams lowered by Duck back to their old volume.
// Streams that appeared in between are left alone.
func (d *Ducker) Unduck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.saved == nil {
		return nil
	}

	streams, err := d.others(ctx)
	if err != nil {
		return err
	}

	var moves []move
	for _, s := range streams {
		if orig, ok := d.saved[s.ID]; ok {
			moves = append(moves, move{id: s.ID, from: s.Volume, to: orig})
		}
	}

	if err := d.ramp(ctx, moves); err != nil {
		return err
	}
	d.saved = nil

	return nil
}

// others lists every stream not owned by the assistant.
func (d *Ducker) others(ctx context.Context) ([]streamInfo, error) {
	streams, err := d.pactl.listStreams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}

	out := streams[:0]
	for _, s := range streams {
		if !d.isSelf(s.AppName) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *Ducker) isSelf(app string) bool {
	for _, name := range d.cfg.SelfNames {
		if app == name {
			return true
		}
	}
	return false
}

func (d *Ducker) lowered(volume int) int {
	v := int(math.Round(float64(volume) * d.cfg.Factor))
	return clampVolume(max(v, d.cfg.MinVolume))
}

// ramp interpolates every move from its start to its final volume over
// the configured fade, one step per rampStep. Without a fade the final
// volume is set at once.
func (d *Ducker) ramp(ctx context.Context, moves []move) error {
	if len(moves) == 0 {
		return nil
	}

	steps := 0
	if d.cfg.Fade > 0 {
		steps = max(1, int(d.cfg.Fade/rampStep))
	}

	var tick *time.Ticker
	if steps > 0 {
		tick = time.NewTicker(d.cfg.Fade / time.Duration(steps))
		defer tick.Stop()
	}

	for i := 0; i <= steps; i++ {
		frac := 1.0
		if steps > 0 {
			frac = float64(i) / float64(steps)
		}

		for _, m := range moves {
			v := m.from + int(math.Round(float64(m.to-m.from)*frac))
			if err := d.pactl.setVolume(ctx, m.id, v); err != nil {
				return fmt.Errorf("set volume of sink input %d: %w", m.id, err)
			}
		}

		if i == steps {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}

	return nil
}

func clampVolume(percent int) int {
	return max(0, min(maxVolume, percent))
}
