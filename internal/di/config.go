package di

import (
	"time"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/infrastructure/llm/langchain"
	"browser-guide/internal/infrastructure/logger"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderRelay      = "relay"
	ProviderOllama     = "ollama"
)

type Config struct {
	// Provider selects the decision backend. Empty picks openrouter when a
	// key is set and relay when only a server URL is.
	Provider         string
	OpenRouterAPIKey string
	OpenRouterModel  string
	ServerURL        string
	OllamaURL        string
	OllamaModel      string

	// StatePath is the SQLite file holding the navigation record. Empty keeps
	// state in memory only.
	StatePath string

	Headless           bool
	MaxRetries         int
	InteractionTimeout time.Duration
	SnapshotDir        string

	Log logger.Config
}

// ConfigFromEnv reads the GUIDE_* and provider keys.
func ConfigFromEnv(env output.ConfigPort) Config {
	logCfg := logger.DefaultConfig()
	logCfg.Level = env.GetWithDefault("GUIDE_LOG_LEVEL", logCfg.Level)
	logCfg.File = env.Get("GUIDE_LOG_FILE")

	return Config{
		Provider:           env.Get("GUIDE_PROVIDER"),
		OpenRouterAPIKey:   env.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:    env.Get("OPENROUTER_MODEL_NAME"),
		ServerURL:          env.Get("GUIDE_SERVER_URL"),
		OllamaURL:          env.GetWithDefault("GUIDE_OLLAMA_URL", langchain.DefaultOllamaURL),
		OllamaModel:        env.GetWithDefault("GUIDE_OLLAMA_MODEL", langchain.DefaultOllamaModel),
		StatePath:          env.GetWithDefault("GUIDE_STATE_PATH", "guide-state.db"),
		Headless:           env.GetBool("GUIDE_HEADLESS", false),
		MaxRetries:         env.GetInt("GUIDE_MAX_RETRIES", 5),
		InteractionTimeout: env.GetDuration("GUIDE_INTERACTION_TIMEOUT", 0),
		SnapshotDir:        env.Get("GUIDE_SNAPSHOT_DIR"),
		Log:                logCfg,
	}
}

func (c Config) provider() string {
	if c.Provider != "" {
		return c.Provider
	}
	if c.OpenRouterAPIKey == "" && c.ServerURL != "" {
		return ProviderRelay
	}
	return ProviderOpenRouter
}
