package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data values for inline keyboard buttons. Prefixed values carry
// a question ID after the colon.
const (
	callbackHintPrefix = "hint:"
	callbackEditPrefix = "edit:"

	callbackQuiz           = "quiz"
	callbackNext           = "next"
	callbackMenu           = "menu"
	callbackStats          = "stats"
	callbackExportMarkdown = "export_md"
	callbackExportCSV      = "export_csv"
	callbackReset          = "reset"
	callbackResetConfirm   = "reset_confirm"
)

// parsePrefixedCallback extracts the question ID from data like "hint:42".
func parsePrefixedCallback(data, prefix string) (int64, bool) {
	raw, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// menuKeyboard is the main menu shown on /start and after "menu".
func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Today's questions", callbackQuiz),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("My stats", callbackStats),
			tgbotapi.NewInlineKeyboardButtonData("Export", callbackExportMarkdown),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset progress", callbackReset),
		),
	)
}

// questionKeyboard is attached to every delivered question.
func questionKeyboard(questionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Hint", fmt.Sprintf("%s%d", callbackHintPrefix, questionID)),
			tgbotapi.NewInlineKeyboardButtonData("Skip", callbackNext),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Menu", callbackMenu),
		),
	)
}

// answeredKeyboard is attached to the answer confirmation.
func answeredKeyboard(questionID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Next question", callbackNext),
			tgbotapi.NewInlineKeyboardButtonData("Edit answer", fmt.Sprintf("%s%d", callbackEditPrefix, questionID)),
		),
	)
}

// exportKeyboard offers the available export formats.
func exportKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Markdown", callbackExportMarkdown),
			tgbotapi.NewInlineKeyboardButtonData("CSV", callbackExportCSV),
		),
	)
}

// resetConfirmKeyboard asks for confirmation before wiping progress.
func resetConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, wipe everything", callbackResetConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackMenu),
		),
	)
}
