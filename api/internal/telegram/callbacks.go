package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbEnginePrefix = "engine:"
	cbRetry        = "retry"
)

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	// drop the keyboard so the button cannot be pressed twice
	edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, _ = r.Bot.Request(edit)

	switch {
	case strings.HasPrefix(cb.Data, cbEnginePrefix):
		r.switchEngine(cid, strings.TrimPrefix(cb.Data, cbEnginePrefix), "")
	case cb.Data == cbRetry:
		v, ok := r.lastQuestion.Load(cid)
		if !ok {
			r.send(cid, "Não encontrei a pergunta anterior. Envie novamente.")
			return
		}
		r.ask(ctx, cid, v.(string))
	}
}
