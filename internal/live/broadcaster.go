package live

import (
	"context"
	"fmt"
	"standbot/internal/clock"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	"standbot/internal/timeutil"
)

// StatusText is the live status line for a session started at start.
func StatusText(start, now int64) string {
	return fmt.Sprintf("Standing for %s", timeutil.FormatElapsed(start, now))
}

type Broadcaster struct {
	slot      *Slot
	transport interfaces.Transport
	clock     clock.Clock
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewBroadcaster(slot *Slot, transport interfaces.Transport, clk clock.Clock, logger providers.Logger, metrics providers.MetricsProviderInterface) *Broadcaster {
	return &Broadcaster{
		slot:      slot,
		transport: transport,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
	}
}

// Tick republishes the elapsed time of the live session, if any. A failed
// edit is logged and the next tick tries again.
func (b *Broadcaster) Tick(ctx context.Context) {
	session := b.slot.Load()
	if !session.Active() {
		return
	}

	ref := *session.Ref
	text := StatusText(session.Start, b.clock.Now().Unix())
	if err := b.transport.EditMessage(ctx, ref, text); err != nil {
		b.metrics.IncBroadcastEdits("failed")
		b.logger.Warnf(providers.TypeBroadcast, "Unable to update status message %d in %d: %v", ref.MessageID, ref.ChatID, err)
		return
	}
	b.metrics.IncBroadcastEdits("ok")
	b.logger.Debugf(providers.TypeBroadcast, "Status message %d in %d: %s", ref.MessageID, ref.ChatID, text)
}
