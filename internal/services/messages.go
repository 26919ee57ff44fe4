package services

import (
	"fmt"
	"standbot/internal/models"
	"strings"
)

const (
	msgChooseConversation  = "Share the conversation you want to stand in."
	btnShareConversation   = "Share conversation"
	msgCurrentConversation = "Current conversation: %d"
	msgStoodFor            = "Stood for %s"
	msgTotalToday          = "Total stood today: %s"
	msgCancel              = "Cancelling the dialogue."
	msgUnknown             = "Unable to handle the message. Type /help to see the usage."
	msgStatsFailed         = "Unable to build the leaderboard right now, try again later."
	msgStatsUsage          = "Usage: /stats [day|week|month|year|all] [sum|avg]"
	msgNoTotals            = "Nobody has stood yet."
)

func helpText(openPhrase, closePhrase string) string {
	var b strings.Builder
	b.WriteString("/start - pick the conversation to stand in\n")
	b.WriteString("/cancel - drop the current session without counting it\n")
	b.WriteString("/stats [window] [sum|avg] - leaderboard for day, week, month, year or all\n")
	b.WriteString("/help - this message\n")
	fmt.Fprintf(&b, "Send %q to start standing and %q to sit down.", openPhrase, closePhrase)
	return b.String()
}

func reopenPrompt(openPhrase string) string {
	return openPhrase + "?"
}

func shareKeyboard() *models.Keyboard {
	return models.NewKeyboard(models.Button{Text: btnShareConversation, RequestChat: true})
}

func phraseKeyboard(phrase string) *models.Keyboard {
	return models.NewKeyboard(models.Button{Text: phrase})
}
