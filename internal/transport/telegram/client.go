// Package telegram talks to the Telegram Bot API and turns its updates into
// session events.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/structures"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	opSendMessage   = "sendMessage"
	opEditMessage   = "editMessageText"
	opPinMessage    = "pinChatMessage"
	opUnpinMessage  = "unpinChatMessage"
	opSendSticker   = "sendSticker"
	opGetChat       = "getChat"
	opGetUpdates    = "getUpdates"
	opDeleteWebhook = "deleteWebhook"

	shareRequestID = 1
)

const errNotModified = "message is not modified"

// Client implements the outbound transport and name lookups on the Bot API.
type Client struct {
	http   *resty.Client
	logger providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) *Client {
	base := strings.TrimRight(conf.Telegram.APIURL, "/") + "/bot" + conf.Telegram.Token

	rc := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", conf.AppName).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetTimeout(conf.Telegram.PollTimeout + 10*time.Second)

	return &Client{http: rc, logger: logger}
}

func (c *Client) call(ctx context.Context, method string, body, result any) error {
	var envelope apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&envelope).
		SetError(&envelope).
		Post("/" + method)
	if err != nil {
		return err
	}

	if !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = resp.Status()
		}
		return &APIError{Code: resp.StatusCode(), Description: desc}
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func toMarkup(keyboard *models.Keyboard) *replyKeyboardMarkup {
	if keyboard == nil || len(keyboard.Buttons) == 0 {
		return nil
	}

	row := make([]keyboardButton, 0, len(keyboard.Buttons))
	for _, b := range keyboard.Buttons {
		btn := keyboardButton{Text: b.Text}
		if b.RequestChat {
			btn.RequestChat = &keyboardButtonRequestChat{RequestID: shareRequestID}
		}
		row = append(row, btn)
	}
	return &replyKeyboardMarkup{Keyboard: [][]keyboardButton{row}, ResizeKeyboard: true}
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.Keyboard) (models.MessageRef, error) {
	var msg Message
	err := c.call(ctx, opSendMessage, sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: toMarkup(keyboard)}, &msg)
	if err != nil {
		return models.MessageRef{}, models.NewTransportError(opSendMessage, err)
	}
	c.logger.Debugf(providers.TypeTransport, "Sent message %d to %d", msg.MessageID, chatID)
	return models.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
}

// EditMessage treats an unchanged text as success.
func (c *Client) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	err := c.call(ctx, opEditMessage, editMessageTextRequest{ChatID: ref.ChatID, MessageID: ref.MessageID, Text: text}, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, errNotModified) {
		return nil
	}
	return models.NewTransportError(opEditMessage, err)
}

func (c *Client) PinMessage(ctx context.Context, ref models.MessageRef) error {
	err := c.call(ctx, opPinMessage, pinRequest{ChatID: ref.ChatID, MessageID: ref.MessageID, DisableNotification: true}, nil)
	return models.NewTransportError(opPinMessage, err)
}

func (c *Client) UnpinMessage(ctx context.Context, ref models.MessageRef) error {
	err := c.call(ctx, opUnpinMessage, pinRequest{ChatID: ref.ChatID, MessageID: ref.MessageID}, nil)
	return models.NewTransportError(opUnpinMessage, err)
}

func (c *Client) SendMedia(ctx context.Context, chatID int64, mediaID string) (models.MessageRef, error) {
	var msg Message
	if err := c.call(ctx, opSendSticker, sendStickerRequest{ChatID: chatID, Sticker: mediaID}, &msg); err != nil {
		return models.MessageRef{}, models.NewTransportError(opSendSticker, err)
	}
	return models.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
}

func (c *Client) ConversationTitle(ctx context.Context, chatID int64) (string, error) {
	var chat Chat
	if err := c.call(ctx, opGetChat, getChatRequest{ChatID: chatID}, &chat); err != nil {
		return "", models.NewTransportError(opGetChat, err)
	}

	switch {
	case chat.Title != "":
		return chat.Title, nil
	case chat.Username != "":
		return chat.Username, nil
	default:
		return strings.TrimSpace(chat.FirstName + " " + chat.LastName), nil
	}
}

// GetUpdates long-polls for new messages starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	req := getUpdatesRequest{Offset: offset, Timeout: int(timeout.Seconds()), AllowedUpdates: []string{"message"}}
	if err := c.call(ctx, opGetUpdates, req, &updates); err != nil {
		return nil, models.NewTransportError(opGetUpdates, err)
	}
	return updates, nil
}

// DeleteWebhook is required before long polling on a bot that had a webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	err := c.call(ctx, opDeleteWebhook, deleteWebhookRequest{}, nil)
	return models.NewTransportError(opDeleteWebhook, err)
}
