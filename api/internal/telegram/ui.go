package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func makeEngineKeyboard() tgbotapi.InlineKeyboardMarkup {
	gpt := tgbotapi.NewInlineKeyboardButtonData("GPT", cbEnginePrefix+"gpt")
	gemini := tgbotapi.NewInlineKeyboardButtonData("Gemini", cbEnginePrefix+"gemini")
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(gpt, gemini))
}

func makeRetryKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Tentar novamente", cbRetry)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}
