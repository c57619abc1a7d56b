// Package assistant answers free-text questions about the ERP data in three
// stages: classify the question into data operations, fetch them, and have
// the model narrate an answer from the fetched data.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"techsync/api/internal/llm"
	"techsync/api/internal/metrics"
	"techsync/api/internal/prompts"
)

var (
	ErrEmptyQuestion = errors.New("assistant: empty question")
	ErrClassify      = errors.New("assistant: classification failed")
	ErrSynthesize    = errors.New("assistant: synthesis failed")
)

const (
	stageClassify   = "classify"
	stageFetch      = "fetch"
	stageSynthesize = "synthesize"

	errUnknownOperation = "unknown operation"
)

// FetchError stands in for the payload of an operation that could not be
// fetched.
type FetchError struct {
	Error string `json:"error"`
}

// FetchedData maps operation name to payload or FetchError. It lives for a
// single question.
type FetchedData map[string]any

type Answer struct {
	Question   string      `json:"question"`
	Operations []string    `json:"operations"`
	Data       FetchedData `json:"data"`
	Text       string      `json:"answer"`
}

type Pipeline struct {
	llm         llm.Completer
	registry    *Registry
	prompts     *prompts.Loader
	logger      *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithPrompts(l *prompts.Loader) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.prompts = l
		}
	}
}

// WithConcurrency bounds how many fetch operations run at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func New(c llm.Completer, registry *Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		llm:         c,
		registry:    registry,
		prompts:     prompts.NewLoader(""),
		logger:      zap.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "assistant"))
	return p
}

// WithCompleter returns a copy of p that talks to c.
func (p *Pipeline) WithCompleter(c llm.Completer) *Pipeline {
	cp := *p
	cp.llm = c
	return &cp
}

func (p *Pipeline) Completer() llm.Completer { return p.llm }

// Ask runs classify, fetch and synthesize in order. Classification and
// synthesis failures are returned; fetch failures only mark their entry.
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	ops, err := p.Classify(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	data := p.Fetch(ctx, ops)
	text, err := p.Synthesize(ctx, question, data)
	if err != nil {
		return Answer{}, err
	}
	p.metrics.IncAnswered()
	return Answer{Question: question, Operations: ops, Data: data, Text: text}, nil
}

type classification struct {
	Functions *[]string `json:"functions"`
}

// Classify asks the model which operations the question needs. Returned
// names are trimmed and de-duplicated but not checked against the whitelist.
func (p *Pipeline) Classify(ctx context.Context, question string) (ops []string, err error) {
	started := time.Now()
	defer func() { p.metrics.ObserveStage(stageClassify, started, err) }()

	system, err := p.prompts.Load(prompts.Classify, map[string]string{"FUNCTIONS": describe()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassify, err)
	}
	raw, err := p.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: question},
	}, llm.ModeJSON)
	if err != nil {
		p.logger.Warn("classification call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrClassify, err)
	}
	names, err := parseClassification(raw)
	if err != nil {
		p.logger.Warn("classification output unparsable", zap.Error(err), zap.String("raw", truncate(raw, 300)))
		return nil, fmt.Errorf("%w: %w", ErrClassify, err)
	}
	p.logger.Debug("question classified",
		zap.Strings("operations", names),
		zap.Duration("took", time.Since(started)))
	return names, nil
}

func parseClassification(raw string) ([]string, error) {
	var names []string
	if c, err := llm.DecodeJSON[classification](raw); err == nil {
		if c.Functions == nil {
			return nil, errors.New(`missing "functions" field`)
		}
		names = *c.Functions
	} else if list, err2 := llm.DecodeJSON[[]string](raw); err2 == nil {
		names = list
	} else {
		return nil, err
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Fetch runs every named operation and collects the results by name. It
// never fails as a whole: unknown names, errors and panics each turn into a
// FetchError for that entry.
func (p *Pipeline) Fetch(ctx context.Context, names []string) FetchedData {
	started := time.Now()
	defer p.metrics.ObserveStage(stageFetch, started, nil)

	data := make(FetchedData, len(names))
	var mu sync.Mutex
	set := func(name string, v any) {
		mu.Lock()
		data[name] = v
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, name := range names {
		fn, ok := p.registry.Lookup(name)
		if !ok {
			p.logger.Warn("classifier named an unknown operation", zap.String("operation", name))
			p.metrics.IncFetchFailure("unknown")
			set(name, FetchError{Error: errUnknownOperation})
			continue
		}
		g.Go(func() error {
			v, err := invoke(ctx, fn)
			if err != nil {
				p.logger.Warn("fetch failed", zap.String("operation", name), zap.Error(err))
				p.metrics.IncFetchFailure(name)
				set(name, FetchError{Error: err.Error()})
				return nil
			}
			set(name, v)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Debug("data fetched", zap.Int("operations", len(names)), zap.Duration("took", time.Since(started)))
	return data
}

func invoke(ctx context.Context, fn FetchFunc) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Synthesize asks the model for a prose answer and returns it verbatim.
func (p *Pipeline) Synthesize(ctx context.Context, question string, data FetchedData) (text string, err error) {
	started := time.Now()
	defer func() { p.metrics.ObserveStage(stageSynthesize, started, err) }()

	system, err := p.prompts.Load(prompts.Synthesize, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesize, err)
	}
	if data == nil {
		data = FetchedData{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: encode data: %w", ErrSynthesize, err)
	}
	user := "Pergunta: " + question + "\n\nDados (JSON):\n" + string(payload)

	text, err = p.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, llm.ModeText)
	if err != nil {
		p.logger.Warn("synthesis call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSynthesize, err)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "…"
	}
	return s
}
