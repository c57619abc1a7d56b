package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"techsync/api/internal/llm"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// WithModel returns a copy of e bound to model m.
func (e *Engine) WithModel(m string) llm.Completer {
	cp := *e
	if m = strings.TrimSpace(m); m != "" {
		cp.Model = m
	}
	return &cp
}

// Complete maps system messages to the system instruction and replays the
// rest of the conversation as history before sending the last user turn.
func (e *Engine) Complete(ctx context.Context, msgs []llm.Message, mode llm.Mode) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is empty: %w", llm.ErrNotConfigured)
	}
	system, history, last, err := splitMessages(msgs)
	if err != nil {
		return "", err
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0.3)}
	if mode == llm.ModeJSON {
		m.GenerationConfig.Temperature = ptrFloat32(0)
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", mode, err)
	}
	txt := strings.TrimSpace(firstText(resp))
	if mode == llm.ModeJSON {
		txt = llm.StripCodeFences(txt)
	}
	if txt == "" {
		return "", fmt.Errorf("gemini %s: %w", mode, llm.ErrEmptyResponse)
	}
	return txt, nil
}

func splitMessages(msgs []llm.Message) (system []genai.Part, history []*genai.Content, last string, err error) {
	n := len(msgs)
	if n == 0 || msgs[n-1].Role != llm.RoleUser {
		return nil, nil, "", errors.New("gemini: conversation must end with a user message")
	}
	for _, m := range msgs[:n-1] {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, genai.Text(m.Content))
		case llm.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	return system, history, msgs[n-1].Content, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
