package scheduler

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sender delivers a direct message to a user.
// discord.Gateway implements this (method: SendDM).
type Sender interface {
	SendDM(ctx context.Context, userID, text string) error
}

// Dispatcher is a bounded outbox between the scheduler and the Sender.
// Delivery is send-and-forget: failures are logged and never retried.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	queue   chan Reminder
	workers int
}

// NewDispatcher creates a Dispatcher with the given worker count and queue size.
func NewDispatcher(sender Sender, log *zap.Logger, workers, queue int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		queue:   make(chan Reminder, queue),
		workers: workers,
	}
}

// Enqueue hands r to the workers. It never blocks and reports false when the
// queue is full.
func (d *Dispatcher) Enqueue(r Reminder) bool {
	select {
	case d.queue <- r:
		return true
	default:
		return false
	}
}

// Run starts the workers and blocks until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			d.work(ctx)
			return nil
		})
	}
	err := g.Wait()
	d.log.Info("dispatcher stopped", zap.Int("dropped", len(d.queue)))
	return err
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-d.queue:
			if err := d.sender.SendDM(ctx, r.UserID, r.Text); err != nil {
				d.log.Error("send reminder failed", zap.String("user", r.UserID), zap.Error(err))
				continue
			}
			d.log.Info("reminder sent", zap.String("user", r.UserID))
		}
	}
}
