package telegram

import (
	"context"
	"fmt"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	"standbot/internal/structures"
	"time"
)

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	DeleteWebhook(ctx context.Context) error
}

// Poller feeds long-polled updates into an event sink until its context ends.
type Poller struct {
	source     updateSource
	sink       interfaces.EventSink
	timeout    time.Duration
	retryPause time.Duration
	logger     providers.Logger
	offset     int64
}

func NewPoller(conf *structures.Config, client *Client, sink interfaces.EventSink, logger providers.Logger) *Poller {
	return newPoller(conf.Telegram, client, sink, logger)
}

func newPoller(conf structures.TelegramConfig, source updateSource, sink interfaces.EventSink, logger providers.Logger) *Poller {
	return &Poller{
		source:     source,
		sink:       sink,
		timeout:    conf.PollTimeout,
		retryPause: max(conf.RetryPause, 10*time.Millisecond),
		logger:     logger,
	}
}

// Run returns nil once ctx is cancelled and an error only when the sink
// refuses an event.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.source.DeleteWebhook(ctx); err != nil {
		p.logger.Warnf(providers.TypeTransport, "Could not delete webhook before polling: %v", err)
	}
	p.logger.Infof(providers.TypeTransport, "Polling for updates")

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.source.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warnf(providers.TypeTransport, "getUpdates failed, retrying in %s: %v", p.retryPause, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryPause):
			}
			continue
		}

		for _, u := range updates {
			p.offset = u.UpdateID + 1

			event, ok := ToEvent(u)
			if !ok {
				p.logger.Debugf(providers.TypeTransport, "Skipping update %d", u.UpdateID)
				continue
			}
			if err := p.sink.Submit(ctx, event); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("submit update %d: %w", u.UpdateID, err)
			}
		}
	}
}
