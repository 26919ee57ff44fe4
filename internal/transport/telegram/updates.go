package telegram

import (
	"standbot/internal/models"
	"strings"
)

// ToEvent maps an update to a session event. Updates the bot does not act on
// report false. Only chat messages are read: sessions belong to groups (the
// chat picker excludes channels) and getUpdates asks for "message" alone, so
// channel posts never reach here.
func ToEvent(u Update) (models.Event, bool) {
	msg := u.Message
	if msg == nil {
		return nil, false
	}

	meta := models.EventMeta{
		ConversationID: msg.Chat.ID,
		Timestamp:      msg.Date,
		Message:        models.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
	}

	switch {
	case msg.ChatShared != nil:
		return models.ConversationSelectedEvent{EventMeta: meta, Target: msg.ChatShared.ChatID}, true
	case msg.Sticker != nil:
		return models.MediaEvent{EventMeta: meta, FileID: msg.Sticker.FileID, UniqueID: msg.Sticker.FileUniqueID}, true
	case strings.HasPrefix(msg.Text, "/"):
		name, args := parseCommand(msg.Text)
		if name == "" {
			return models.TextEvent{EventMeta: meta, Text: msg.Text}, true
		}
		return models.CommandEvent{EventMeta: meta, Name: name, Args: args}, true
	case msg.Text != "":
		return models.TextEvent{EventMeta: meta, Text: msg.Text}, true
	}
	return nil, false
}

// parseCommand splits "/stats@bot week sum" into "stats" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}
