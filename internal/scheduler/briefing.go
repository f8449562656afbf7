package scheduler

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Briefing runs a job (the headline narration) on a cron schedule.
type Briefing struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	id     cron.EntryID
}

// NewBriefing validates spec, a standard five-field expression or a
// descriptor like "@daily", and registers run under it.
func NewBriefing(spec string, loc *time.Location, run func(ctx context.Context) error) (*Briefing, error) {
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Briefing{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
	}

	id, err := b.cron.AddFunc(spec, func() {
		log.Info("Briefing triggered", "spec", spec)
		if err := run(b.ctx); err != nil {
			log.Error("Briefing failed", "err", err)
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("briefing schedule %q: %w", spec, err)
	}
	b.id = id

	return b, nil
}

func (b *Briefing) Start() {
	b.cron.Start()
	log.Info("Briefing scheduled", "next", b.Next())
}

// Next is the next activation time, zero before Start.
func (b *Briefing) Next() time.Time {
	return b.cron.Entry(b.id).Next
}

// Stop cancels a running job and waits for it to return.
func (b *Briefing) Stop() {
	b.cancel()
	<-b.cron.Stop().Done()
}
