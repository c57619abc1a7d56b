package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techsync/api/internal/assistant"
	"techsync/api/internal/llm"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.sent)
	return b.sent[len(b.sent)-1]
}

type stubEngine struct {
	name, model string
	answer      string
	err         error
	calls       int
}

func (s *stubEngine) Name() string     { return s.name }
func (s *stubEngine) GetModel() string { return s.model }
func (s *stubEngine) WithModel(m string) llm.Completer {
	cp := *s
	cp.model, cp.calls = m, 0
	return &cp
}
func (s *stubEngine) Complete(_ context.Context, _ []llm.Message, mode llm.Mode) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if mode == llm.ModeJSON {
		return `{"functions":[]}`, nil
	}
	return s.answer, nil
}

func newRouter(t *testing.T, gpt, gemini *stubEngine) (*Router, *fakeBot) {
	t.Helper()
	funcs := map[assistant.Operation]assistant.FetchFunc{}
	for _, op := range assistant.Operations() {
		funcs[op] = func(context.Context) (any, error) { return nil, nil }
	}
	reg, err := assistant.NewRegistry(funcs)
	require.NoError(t, err)

	engs := &llm.Engines{OpenAI: gpt}
	if gemini != nil {
		engs.Gemini = gemini
	}
	bot := &fakeBot{}
	return &Router{
		Bot:        bot,
		Assistant:  assistant.New(gpt, reg),
		Engines:    engs,
		EngManager: llm.NewManager(gpt),
		AllowedChats: map[int64]struct{}{
			1: {}, 2: {}, 7: {},
		},
	}, bot
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
	if strings.HasPrefix(text, "/") {
		n := strings.IndexByte(text, ' ')
		if n < 0 {
			n = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestRouter_AnswersQuestions(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "gpt-4o-mini", answer: "Você tem 2 empresas."}
	r, bot := newRouter(t, gpt, nil)

	r.HandleUpdate(context.Background(), textUpdate(7, "quantas empresas?"))
	assert.Equal(t, "Você tem 2 empresas.", bot.last(t).Text)
	assert.Equal(t, int64(7), bot.last(t).ChatID)
	assert.Equal(t, 2, gpt.calls)
}

func TestRouter_ErrorOffersRetry(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "m", err: errors.New("quota")}
	r, bot := newRouter(t, gpt, nil)

	r.HandleUpdate(context.Background(), textUpdate(7, "saldo?"))
	last := bot.last(t)
	assert.NotContains(t, last.Text, "quota")
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, last.ReplyMarkup)

	gpt.err = nil
	gpt.answer = "Saldo: R$ 10,00"
	r.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb", Data: cbRetry, Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 7}},
	}})
	assert.Equal(t, "Saldo: R$ 10,00", bot.last(t).Text)
}

func TestRouter_Commands(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "gpt-4o-mini"}
	gemini := &stubEngine{name: "gemini", model: "gemini-2.5-flash", answer: "oi"}
	r, bot := newRouter(t, gpt, gemini)
	ctx := context.Background()

	r.HandleUpdate(ctx, textUpdate(1, "/cpf 11144477735"))
	assert.Equal(t, "✅ CPF válido: 111.444.777-35", bot.last(t).Text)

	r.HandleUpdate(ctx, textUpdate(1, "/cnpj 11.222.333/0001-80"))
	assert.Equal(t, "❌ CNPJ inválido", bot.last(t).Text)

	r.HandleUpdate(ctx, textUpdate(1, "/cpf"))
	assert.Contains(t, bot.last(t).Text, "Uso: /cpf")

	r.HandleUpdate(ctx, textUpdate(1, "/engine gemini gemini-2.5-pro"))
	assert.Contains(t, bot.last(t).Text, "gemini-2.5-pro")
	chosen, ok := r.EngManager.Get(1).(*stubEngine)
	require.True(t, ok)
	assert.Equal(t, "gemini", chosen.Name())
	assert.Equal(t, "gemini-2.5-pro", chosen.GetModel())
	assert.Equal(t, "gemini-2.5-flash", gemini.GetModel())
	assert.Same(t, gpt, r.EngManager.Get(2))

	r.HandleUpdate(ctx, textUpdate(1, "pergunta"))
	assert.Equal(t, "oi", bot.last(t).Text)
	assert.Equal(t, 2, chosen.calls)
	assert.Zero(t, gpt.calls)

	r.HandleUpdate(ctx, textUpdate(1, "/engine claude"))
	assert.Contains(t, bot.last(t).Text, "desconhecido")

	r.HandleUpdate(ctx, textUpdate(1, "/engine"))
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, bot.last(t).ReplyMarkup)

	r.HandleUpdate(ctx, textUpdate(1, "/health"))
	assert.Equal(t, "✅ OK", bot.last(t).Text)
}

func TestRouter_EngineModelIsPerChat(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "gpt-4o-mini", answer: "ok"}
	r, bot := newRouter(t, gpt, nil)
	ctx := context.Background()

	r.HandleUpdate(ctx, textUpdate(1, "/engine gpt gpt-4o"))
	assert.Contains(t, bot.last(t).Text, "gpt-4o")
	assert.Equal(t, "gpt-4o", r.EngManager.Get(1).GetModel())
	assert.Equal(t, "gpt-4o-mini", r.EngManager.Get(2).GetModel())
	assert.Equal(t, "gpt-4o-mini", gpt.GetModel())

	r.HandleUpdate(ctx, textUpdate(2, "pergunta"))
	assert.Equal(t, "ok", bot.last(t).Text)
	assert.Equal(t, 2, gpt.calls)
}

func TestRouter_RejectsUnknownChats(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "m", answer: "segredo"}
	r, bot := newRouter(t, gpt, nil)
	ctx := context.Background()

	r.HandleUpdate(ctx, textUpdate(99, "quanto faturamos?"))
	last := bot.last(t)
	assert.Equal(t, int64(99), last.ChatID)
	assert.Contains(t, last.Text, "não tem acesso")
	assert.Contains(t, last.Text, "99")

	r.HandleUpdate(ctx, textUpdate(99, "/engine gemini"))
	r.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb", Data: cbRetry, Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 99}},
	}})
	assert.Contains(t, bot.last(t).Text, "não tem acesso")
	assert.Equal(t, 1, bot.requests)
	assert.Zero(t, gpt.calls)
	assert.Same(t, gpt, r.EngManager.Get(99))

	r.AllowedChats = nil
	r.HandleUpdate(ctx, textUpdate(7, "oi"))
	assert.Contains(t, bot.last(t).Text, "não tem acesso")
	assert.Zero(t, gpt.calls)
}

func TestRouter_EngineNotConfigured(t *testing.T) {
	gpt := &stubEngine{name: "gpt", model: "m"}
	r, bot := newRouter(t, gpt, nil)
	r.HandleUpdate(context.Background(), textUpdate(1, "/engine gemini"))
	assert.Contains(t, bot.last(t).Text, "não está configurado")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ç", maxMessageRunes+10)
	out := truncate(long, maxMessageRunes)
	assert.Equal(t, maxMessageRunes+1, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, "curto", truncate("curto", maxMessageRunes))
}
