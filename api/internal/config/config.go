package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	PromptDir     string

	TelegramToken string
	WebhookURL    string
	AllowedChats  []int64

	AskTimeout       time.Duration
	SessionTTL       time.Duration
	FetchConcurrency int
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: ResolveDSN(),
		RedisURL:    getEnv("REDIS_URL", ""),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "gpt")),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		PromptDir:     getEnv("PROMPT_DIR", ""),

		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
	}

	var err error
	if cfg.AskTimeout, err = getDuration("ASK_TIMEOUT", 180*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FetchConcurrency, err = getInt("FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.AllowedChats, err = getInt64List("TELEGRAM_ALLOWED_CHATS"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider has its key.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case "gpt", "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for LLM_PROVIDER=gpt"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.FetchConcurrency < 1 {
		errs = append(errs, errors.New("FETCH_CONCURRENCY must be at least 1"))
	}
	if c.AskTimeout <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("ASK_TIMEOUT and SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// ResolveDSN prefers DATABASE_URL and otherwise assembles a URL from the
// POSTGRES_*/PG* variables. It returns "" when none of them is set.
func ResolveDSN() string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}
	if getEnv("POSTGRES_DB", "") == "" && getEnv("PGHOST", "") == "" {
		return ""
	}
	user := getEnv("POSTGRES_USER", "techsync")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnv("PGHOST", "db")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "techsync")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("90s") and bare seconds ("90").
func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// getInt64List parses a comma- or space-separated list of integers.
func getInt64List(k string) ([]int64, error) {
	fields := strings.FieldsFunc(getEnv(k, ""), func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out = append(out, n)
	}
	return out, nil
}
