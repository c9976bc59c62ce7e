package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind classifies a normalized incoming update.
type EventKind int

const (
	// EventCommand is a slash command, e.g. /quiz.
	EventCommand EventKind = iota

	// EventCallback is an inline keyboard button press.
	EventCallback

	// EventText is free text, treated as an answer submission.
	EventText
)

// Event is the normalized form of a Telegram update. Collapsing the update
// variants early keeps the handlers free of tgbotapi nil-pointer chains.
type Event struct {
	Kind    EventKind
	ChatID  int64
	Command string

	// CallbackID and CallbackData are set for EventCallback.
	CallbackID   string
	CallbackData string

	// Text is set for EventText.
	Text string
}

// FromUpdate normalizes a Telegram update into an Event.
// Returns ok=false for update types the bot does not handle (edited
// messages, channel posts, inline queries).
func FromUpdate(update tgbotapi.Update) (Event, bool) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return Event{}, false
		}
		return Event{
			Kind:         EventCallback,
			ChatID:       cb.Message.Chat.ID,
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return Event{}, false
	}

	if msg.IsCommand() {
		return Event{
			Kind:    EventCommand,
			ChatID:  msg.Chat.ID,
			Command: msg.Command(),
		}, true
	}

	if msg.Text == "" {
		return Event{}, false
	}

	return Event{
		Kind:   EventText,
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}, true
}
