package services

import (
	"context"
	"errors"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	"standbot/internal/structures"

	"golang.org/x/sync/errgroup"
)

var ErrDispatcherStopped = errors.New("dispatcher stopped")

// Dispatcher fans events out to a fixed set of workers. Events of one
// conversation always land on the same worker, so they are handled in
// arrival order while different conversations proceed in parallel.
type Dispatcher struct {
	handler interfaces.EventHandler
	queues  []chan models.Event
	done    chan struct{}
	logger  providers.Logger
}

func NewDispatcher(conf *structures.Config, handler SessionServiceInterface, logger providers.Logger) *Dispatcher {
	workers := max(conf.Telegram.Workers, 1)
	size := max(conf.Telegram.QueueSize, 1)

	queues := make([]chan models.Event, workers)
	for i := range queues {
		queues[i] = make(chan models.Event, size)
	}
	return &Dispatcher{
		handler: handler,
		queues:  queues,
		done:    make(chan struct{}),
		logger:  logger,
	}
}

func (d *Dispatcher) queueFor(conversationID int64) chan models.Event {
	n := int64(len(d.queues))
	return d.queues[((conversationID%n)+n)%n]
}

// Submit blocks while the conversation's queue is full.
func (d *Dispatcher) Submit(ctx context.Context, event models.Event) error {
	select {
	case <-d.done:
		return ErrDispatcherStopped
	default:
	}

	select {
	case d.queueFor(event.Meta().ConversationID) <- event:
		return nil
	case <-d.done:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	g, ctx := errgroup.WithContext(ctx)
	for i, q := range d.queues {
		g.Go(func() error {
			d.work(ctx, i, q)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int, queue <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-queue:
			d.handle(ctx, worker, event)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, worker int, event models.Event) {
	meta := event.Meta()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf(providers.TypeApp, "Worker %d recovered from panic on conversation %d: %v", worker, meta.ConversationID, r)
		}
	}()

	err := d.handler.Handle(ctx, event)
	switch {
	case err == nil:
	case models.IsStorageError(err):
		d.logger.Errorf(providers.TypeStorage, "Event %T in %d aborted: %v", event, meta.ConversationID, err)
	case models.IsTransportError(err):
		d.logger.Warnf(providers.TypeTransport, "Event %T in %d not delivered: %v", event, meta.ConversationID, err)
	default:
		d.logger.Errorf(providers.TypeApp, "Event %T in %d failed: %v", event, meta.ConversationID, err)
	}
}

var _ interfaces.EventSink = (*Dispatcher)(nil)
