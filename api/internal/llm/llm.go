// Package llm is the text-completion boundary: a provider-neutral message
// format, the Completer interface and the set of configured engines.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Mode selects between a strict JSON object and free-form prose.
type Mode int

const (
	ModeText Mode = iota
	ModeJSON
)

func (m Mode) String() string {
	if m == ModeJSON {
		return "json"
	}
	return "text"
}

var (
	ErrNotConfigured = errors.New("llm: engine not configured")
	ErrRateLimited   = errors.New("llm: rate limited")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Completer sends role-tagged messages to a model and returns its text output.
// In ModeJSON the returned text is a JSON document with code fences removed.
type Completer interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, msgs []Message, mode Mode) (string, error)
}

// ModelSwitcher is implemented by engines that can serve another model of the
// same provider. The receiver is left untouched.
type ModelSwitcher interface {
	WithModel(model string) Completer
}

type Engines struct {
	OpenAI Completer
	Gemini Completer
}

func (e *Engines) GetEngine(name string) (Completer, error) {
	var c Completer
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gpt", "openai", "":
		c = e.OpenAI
	case "gemini":
		c = e.Gemini
	default:
		return nil, fmt.Errorf("unknown llm name %q; use 'gpt' or 'gemini'", name)
	}
	if c == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return c, nil
}
