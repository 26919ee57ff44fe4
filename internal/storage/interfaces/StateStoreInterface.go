package interfaces

import (
	"context"
	"standbot/internal/models"
)

// StateStoreInterface keeps one ConversationState per conversation.
// Get returns the idle state for a conversation never seen before.
type StateStoreInterface interface {
	Get(ctx context.Context, conversationID int64) (models.ConversationState, error)
	Set(ctx context.Context, conversationID int64, state models.ConversationState) error
	Range(ctx context.Context, fn func(conversationID int64, state models.ConversationState) bool) error
	Restore() error
	Persist() error
}
