package interfaces

import (
	"context"
	"standbot/internal/models"
)

// Transport is the outbound side of the chat platform.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.Keyboard) (models.MessageRef, error)
	EditMessage(ctx context.Context, ref models.MessageRef, text string) error
	PinMessage(ctx context.Context, ref models.MessageRef) error
	UnpinMessage(ctx context.Context, ref models.MessageRef) error
	SendMedia(ctx context.Context, chatID int64, mediaID string) (models.MessageRef, error)
}

type NameResolver interface {
	ConversationTitle(ctx context.Context, chatID int64) (string, error)
}
