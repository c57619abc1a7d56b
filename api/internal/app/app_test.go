package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techsync/api/internal/config"
	"techsync/api/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMProvider:      "gpt",
		OpenAIAPIKey:     "sk-test",
		OpenAIModel:      "gpt-4o-mini",
		GeminiModel:      "gemini-2.5-flash",
		AskTimeout:       time.Minute,
		SessionTTL:       time.Hour,
		FetchConcurrency: 2,
	}
}

func TestBuild_InMemory(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.IsType(t, &session.Memory{}, a.Sessions)
	assert.Equal(t, "gpt", a.Default.Name())
	assert.Nil(t, a.Engines.Gemini)
	assert.NotNil(t, a.Assistant)
	assert.Error(t, a.Migrate(context.Background()))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBuild_MissingProviderKey(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = "gemini"
	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewEngines(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "g"
	cfg.OpenAIBaseURL = "http://localhost:11434/v1"
	engs := NewEngines(cfg)
	require.NotNil(t, engs.OpenAI)
	require.NotNil(t, engs.Gemini)
	assert.Equal(t, "gemini-2.5-flash", engs.Gemini.GetModel())
}

func TestSafeDSNSummary(t *testing.T) {
	assert.Equal(t, "postgres://u:xxxxx@db:5432/app", safeDSNSummary("postgres://u:secret@db:5432/app"))
	assert.Equal(t, "(unparsed dsn)", safeDSNSummary("host=db user=u"))
}
