package models

// MessageRef addresses a message the bot has posted or received.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

type Button struct {
	Text string
	// RequestChat asks the client to let the user pick a conversation and
	// report it back as a ConversationSelectedEvent.
	RequestChat bool
}

// Keyboard is a single-row custom reply keyboard.
type Keyboard struct {
	Buttons []Button
}

func NewKeyboard(buttons ...Button) *Keyboard {
	return &Keyboard{Buttons: buttons}
}
