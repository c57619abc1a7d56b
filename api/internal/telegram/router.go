package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"techsync/api/internal/assistant"
	"techsync/api/internal/docid"
	"techsync/api/internal/llm"
)

const maxMessageRunes = 3900

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Router struct {
	Bot        Bot
	Assistant  *assistant.Pipeline
	Engines    *llm.Engines
	EngManager *llm.Manager
	Logger     *zap.Logger
	AskTimeout time.Duration
	// AllowedChats lists the chats that may use the bot; everyone else
	// gets a refusal. Empty means nobody.
	AllowedChats map[int64]struct{}

	// chat ID -> last question, for the retry button
	lastQuestion sync.Map
}

func (r *Router) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Router) allowed(cid int64) bool {
	_, ok := r.AllowedChats[cid]
	return ok
}

func (r *Router) refuse(cid int64) {
	r.logger().Warn("chat not allowed", zap.Int64("chat_id", cid))
	r.send(cid, fmt.Sprintf("⛔ Este chat (ID %d) não tem acesso. Peça ao administrador para liberá-lo.", cid))
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if cb := upd.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		if !r.allowed(cb.Message.Chat.ID) {
			_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))
			r.refuse(cb.Message.Chat.ID)
			return
		}
		r.handleCallback(ctx, *cb)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	cid := upd.Message.Chat.ID
	if !r.allowed(cid) {
		r.refuse(cid)
		return
	}

	if upd.Message.IsCommand() {
		r.HandleCommand(ctx, upd)
		return
	}
	if q := strings.TrimSpace(upd.Message.Text); q != "" {
		r.ask(ctx, cid, q)
		return
	}
	r.send(cid, "Envie sua pergunta em texto.")
}

func (r *Router) HandleCommand(ctx context.Context, upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	args := strings.TrimSpace(upd.Message.CommandArguments())
	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, "Pergunte qualquer coisa sobre empresas, clientes e transações.\n"+
			"Comandos: /health, /engine, /cpf <número>, /cnpj <número>")
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngineCommand(cid, args)
	case "cpf":
		r.replyValidation(cid, args, docid.KindCPF)
	case "cnpj":
		r.replyValidation(cid, args, docid.KindCNPJ)
	case "ask":
		if args == "" {
			r.send(cid, "Uso: /ask <pergunta>")
			return
		}
		r.ask(ctx, cid, args)
	default:
		r.send(cid, "Comando desconhecido")
	}
}

func (r *Router) ask(ctx context.Context, cid int64, question string) {
	r.lastQuestion.Store(cid, question)
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))

	timeout := r.AskTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := r.Assistant
	if r.EngManager != nil {
		if eng := r.EngManager.Get(cid); eng != nil {
			p = p.WithCompleter(eng)
		}
	}

	ans, err := p.Ask(ctx, question)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.SendAnswer(cid, ans.Text)
}

// handleEngineCommand switches the chat's engine:
//
//	/engine              show the current engine and a picker
//	/engine gpt [model]
//	/engine gemini [model]
func (r *Router) handleEngineCommand(cid int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		cur := "-"
		if r.EngManager != nil {
			if eng := r.EngManager.Get(cid); eng != nil {
				cur = eng.Name() + " (" + eng.GetModel() + ")"
			}
		}
		msg := tgbotapi.NewMessage(cid, "Motor atual: "+cur+"\nUso: /engine gpt|gemini [modelo]")
		msg.ReplyMarkup = makeEngineKeyboard()
		_, _ = r.Bot.Send(msg)
		return
	}
	var model string
	if len(fields) > 1 {
		model = fields[1]
	}
	r.switchEngine(cid, strings.ToLower(fields[0]), model)
}

func (r *Router) switchEngine(cid int64, name, model string) {
	if r.Engines == nil || r.EngManager == nil {
		r.send(cid, "❌ Troca de motor indisponível.")
		return
	}
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			r.send(cid, "❌ "+name+" não está configurado.")
			return
		}
		r.send(cid, "Motor desconhecido. Disponíveis: gpt | gemini")
		return
	}
	// engines are shared by every chat; a model choice gets its own copy
	if model != "" {
		if ms, ok := eng.(llm.ModelSwitcher); ok {
			eng = ms.WithModel(model)
		}
	}
	r.EngManager.Set(cid, eng)
	r.send(cid, "✅ Motor: "+eng.Name()+" ("+eng.GetModel()+").")
}

func (r *Router) replyValidation(cid int64, value string, kind docid.Kind) {
	if value == "" {
		r.send(cid, fmt.Sprintf("Uso: /%s <número>", kind))
		return
	}
	var (
		formatted string
		ok        bool
	)
	if kind == docid.KindCPF {
		formatted, ok = docid.FormatCPF(value)
	} else {
		formatted, ok = docid.FormatCNPJ(value)
	}
	label := strings.ToUpper(string(kind))
	if !ok {
		r.send(cid, "❌ "+label+" inválido")
		return
	}
	r.send(cid, "✅ "+label+" válido: "+formatted)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) SendAnswer(chatID int64, text string) {
	r.send(chatID, truncate(text, maxMessageRunes))
}

// SendError replies with a generic message and a retry button; details go
// to the log only.
func (r *Router) SendError(chatID int64, err error) {
	r.logger().Warn("assistant failed", zap.Int64("chat_id", chatID), zap.Error(err))
	text := "⚠️ Não consegui responder agora. Tente novamente."
	if errors.Is(err, assistant.ErrEmptyQuestion) {
		text = "Envie sua pergunta em texto."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if !errors.Is(err, assistant.ErrEmptyQuestion) {
		msg.ReplyMarkup = makeRetryKeyboard()
	}
	_, _ = r.Bot.Send(msg)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
