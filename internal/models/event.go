package models

// Event is an inbound occurrence in a conversation. The concrete types are
// TextEvent, MediaEvent, ConversationSelectedEvent and CommandEvent.
type Event interface {
	Meta() EventMeta
	isEvent()
}

type EventMeta struct {
	ConversationID int64
	// Timestamp is the delivery time reported by the transport, in seconds.
	Timestamp int64
	Message   MessageRef
}

type TextEvent struct {
	EventMeta
	Text string
}

type MediaEvent struct {
	EventMeta
	// FileID is transport specific and may change between deliveries.
	FileID string
	// UniqueID is stable for the same media and is what markers match on.
	UniqueID string
}

type ConversationSelectedEvent struct {
	EventMeta
	Target int64
}

type CommandEvent struct {
	EventMeta
	Name string
	Args []string
}

func (e EventMeta) Meta() EventMeta { return e }

func (TextEvent) isEvent()                 {}
func (MediaEvent) isEvent()                {}
func (ConversationSelectedEvent) isEvent() {}
func (CommandEvent) isEvent()              {}
