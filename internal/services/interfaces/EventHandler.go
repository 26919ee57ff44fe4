package interfaces

import (
	"context"
	"standbot/internal/models"
)

type EventHandler interface {
	Handle(ctx context.Context, event models.Event) error
}

// EventSink accepts inbound events from an update source.
type EventSink interface {
	Submit(ctx context.Context, event models.Event) error
}
