package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const claimBatch = 100

type HandlerFunc func(ctx context.Context, job Job) error

type periodic struct {
	name string
	spec string
	fn   func(ctx context.Context)
}

// Runner polls the delayed queue and fires the cron schedule until its
// context is cancelled. Run returns only after claimed jobs have finished.
type Runner struct {
	queue    *Queue
	interval time.Duration
	location *time.Location
	handlers map[Kind]HandlerFunc
	periodic []periodic
	now      func() time.Time
}

func NewRunner(queue *Queue, interval time.Duration, location *time.Location) *Runner {
	if location == nil {
		location = time.Local
	}

	return &Runner{
		queue:    queue,
		interval: interval,
		location: location,
		handlers: make(map[Kind]HandlerFunc),
		now:      time.Now,
	}
}

func (r *Runner) Handle(kind Kind, h HandlerFunc) {
	r.handlers[kind] = h
}

// Every registers fn under a standard five field cron spec.
func (r *Runner) Every(name, spec string, fn func(ctx context.Context)) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("cron.ParseStandard(%q) -> %w", spec, err)
	}
	r.periodic = append(r.periodic, periodic{name: name, spec: spec, fn: fn})

	return nil
}

func (r *Runner) Run(ctx context.Context) {
	c := cron.New(cron.WithLocation(r.location))
	for _, p := range r.periodic {
		p := p
		_, err := c.AddFunc(p.spec, func() {
			zap.L().Info("jobs: running periodic job", zap.String("name", p.name))
			p.fn(ctx)
		})
		if err != nil {
			zap.L().Error("jobs: failed to schedule periodic job", zap.String("name", p.name), zap.Error(err))
		}
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	due, err := r.queue.ClaimDue(ctx, r.now(), claimBatch)
	if err != nil {
		zap.L().Warn("jobs: claim due failed", zap.Error(err))
	}

	// A claimed job is gone from the queue, so it runs to completion even
	// when shutdown starts in the middle of the batch.
	jobCtx := context.WithoutCancel(ctx)

	for _, job := range due {
		h, ok := r.handlers[job.Kind]
		if !ok {
			zap.L().Warn("jobs: no handler", zap.String("kind", string(job.Kind)), zap.String("id", job.ID))
			continue
		}
		if err = h(jobCtx, job); err != nil {
			zap.L().Error("jobs: handler failed",
				zap.String("kind", string(job.Kind)),
				zap.String("id", job.ID),
				zap.Uint("entity_id", job.EntityID),
				zap.Error(err),
			)
		}
	}
}
