package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUpdate(t *testing.T) {
	t.Parallel()

	t.Run("normalizes a command", func(t *testing.T) {
		t.Parallel()

		update := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 42},
			Text: "/quiz",
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: 5},
			},
		}}

		ev, ok := FromUpdate(update)
		require.True(t, ok)
		assert.Equal(t, EventCommand, ev.Kind)
		assert.Equal(t, int64(42), ev.ChatID)
		assert.Equal(t, "quiz", ev.Command)
	})

	t.Run("normalizes a callback press", func(t *testing.T) {
		t.Parallel()

		update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			Data:    "hint:7",
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		}}

		ev, ok := FromUpdate(update)
		require.True(t, ok)
		assert.Equal(t, EventCallback, ev.Kind)
		assert.Equal(t, int64(42), ev.ChatID)
		assert.Equal(t, "cb-1", ev.CallbackID)
		assert.Equal(t, "hint:7", ev.CallbackData)
	})

	t.Run("normalizes free text", func(t *testing.T) {
		t.Parallel()

		update := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 42},
			Text: "my answer",
		}}

		ev, ok := FromUpdate(update)
		require.True(t, ok)
		assert.Equal(t, EventText, ev.Kind)
		assert.Equal(t, "my answer", ev.Text)
	})

	t.Run("ignores updates without a message or callback", func(t *testing.T) {
		t.Parallel()

		_, ok := FromUpdate(tgbotapi.Update{})
		assert.False(t, ok)
	})

	t.Run("ignores non-text messages", func(t *testing.T) {
		t.Parallel()

		update := tgbotapi.Update{Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 42},
		}}

		_, ok := FromUpdate(update)
		assert.False(t, ok)
	})
}

func TestParsePrefixedCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		prefix string
		wantID int64
		wantOK bool
	}{
		{name: "valid hint callback", data: "hint:42", prefix: callbackHintPrefix, wantID: 42, wantOK: true},
		{name: "valid edit callback", data: "edit:7", prefix: callbackEditPrefix, wantID: 7, wantOK: true},
		{name: "wrong prefix", data: "edit:7", prefix: callbackHintPrefix, wantOK: false},
		{name: "non-numeric ID", data: "hint:abc", prefix: callbackHintPrefix, wantOK: false},
		{name: "zero ID", data: "hint:0", prefix: callbackHintPrefix, wantOK: false},
		{name: "negative ID", data: "hint:-3", prefix: callbackHintPrefix, wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, ok := parsePrefixedCallback(tc.data, tc.prefix)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, id)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	t.Run("empty whitelist allows everyone", func(t *testing.T) {
		t.Parallel()

		b := &Bot{}
		assert.True(t, b.allowed(123))
	})

	t.Run("whitelist restricts to listed chats", func(t *testing.T) {
		t.Parallel()

		b := &Bot{whitelist: map[int64]struct{}{42: {}}}
		assert.True(t, b.allowed(42))
		assert.False(t, b.allowed(123))
	})
}
