package tts

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Printer is a Voice that writes narrations to a terminal. The pause
// approximates playback time so queued narrations keep their pacing.
type Printer struct {
	W       io.Writer
	PerWord time.Duration
}

// Say prints text and pauses PerWord for every word unless ctx ends.
func (p *Printer) Say(ctx context.Context, text string) error {
	if _, err := fmt.Fprintf(p.W, "BEAST: %s\n", text); err != nil {
		return err
	}

	if p.PerWord <= 0 {
		return nil
	}

	words := 1
	for _, r := range text {
		if r == ' ' {
			words++
		}
	}

	timer := time.NewTimer(time.Duration(words) * p.PerWord)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
