package telegram

import (
	"fmt"

	"github.com/goccy/go-json"
)

// apiResponse is the envelope every Bot API method replies with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// APIError is a Bot API call that came back with ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api %d: %s", e.Code, e.Description)
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Message struct {
	MessageID  int64       `json:"message_id"`
	Date       int64       `json:"date"`
	Chat       Chat        `json:"chat"`
	Text       string      `json:"text,omitempty"`
	Sticker    *Sticker    `json:"sticker,omitempty"`
	ChatShared *ChatShared `json:"chat_shared,omitempty"`
}

type Sticker struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
}

type ChatShared struct {
	RequestID int   `json:"request_id"`
	ChatID    int64 `json:"chat_id"`
}

type keyboardButtonRequestChat struct {
	RequestID     int  `json:"request_id"`
	ChatIsChannel bool `json:"chat_is_channel"`
}

type keyboardButton struct {
	Text        string                     `json:"text"`
	RequestChat *keyboardButtonRequestChat `json:"request_chat,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                `json:"chat_id"`
	Text        string               `json:"text"`
	ReplyMarkup *replyKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageTextRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

type pinRequest struct {
	ChatID              int64 `json:"chat_id"`
	MessageID           int64 `json:"message_id"`
	DisableNotification bool  `json:"disable_notification,omitempty"`
}

type sendStickerRequest struct {
	ChatID  int64  `json:"chat_id"`
	Sticker string `json:"sticker"`
}

type getChatRequest struct {
	ChatID int64 `json:"chat_id"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}
