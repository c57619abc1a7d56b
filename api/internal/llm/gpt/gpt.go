package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"techsync/api/internal/llm"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// the first header byte of a long completion can take a while
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}

	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: DefaultBaseURL,
		// deadlines come from the caller's context
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

// WithModel returns a copy of e bound to model m; the HTTP client is shared.
func (e *Engine) WithModel(m string) llm.Completer {
	cp := *e
	if m = strings.TrimSpace(m); m != "" {
		cp.Model = m
	}
	return &cp
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []llm.Message     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *Engine) Complete(ctx context.Context, msgs []llm.Message, mode llm.Mode) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty: %w", llm.ErrNotConfigured)
	}
	if len(msgs) == 0 {
		return "", errors.New("openai: no messages")
	}

	body := chatRequest{
		Model:    e.Model,
		Messages: msgs,
	}
	if mode == llm.ModeJSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	} else {
		body.Temperature = 0.3
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", mode, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai %s: read body: %w", mode, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("openai %s %d: %s: %w", mode, resp.StatusCode, truncateBytes(raw, 512), llm.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("openai %s %d: %s", mode, resp.StatusCode, truncateBytes(raw, 512))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai %s: decode envelope: %w", mode, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai %s: %w", mode, llm.ErrEmptyResponse)
	}
	txt := strings.TrimSpace(out.Choices[0].Message.Content)
	if mode == llm.ModeJSON {
		txt = llm.StripCodeFences(txt)
	}
	if txt == "" {
		return "", fmt.Errorf("openai %s: %w", mode, llm.ErrEmptyResponse)
	}
	return txt, nil
}

func truncateBytes(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
