package di

import (
	"context"
	"fmt"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/infrastructure/browser/rod"
	"browser-guide/internal/infrastructure/llm/langchain"
	"browser-guide/internal/infrastructure/llm/openrouter"
	"browser-guide/internal/infrastructure/logger"
	"browser-guide/internal/infrastructure/prompts"
	"browser-guide/internal/infrastructure/store"
	"browser-guide/internal/usecase/decision"
	"browser-guide/internal/usecase/navigator"
)

// Container owns everything that outlives a single navigator: logging, the
// decision backend and the state store.
type Container struct {
	Config  Config
	Logger  output.LoggerPort
	LLM     output.LLMPort
	Decider *decision.Client
	Prompts *prompts.Builder
	Parser  *decision.Parser
	Store   *store.GuardedStore

	closers []func() error
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &Container{Config: cfg, Logger: log}

	llm, err := newLLM(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}
	c.LLM = llm

	builder, err := prompts.NewBuilder()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	c.Prompts = builder

	var durable output.StatePort
	if cfg.StatePath != "" {
		sqlite, err := store.NewSQLiteStore(cfg.StatePath)
		if err != nil {
			log.Warn("State store unavailable, keeping state in memory", "path", cfg.StatePath, "error", err)
		} else {
			durable = sqlite
			c.closers = append(c.closers, sqlite.Close)
		}
	}
	c.Store = store.NewGuardedStore(durable, log)

	c.Decider = decision.NewClient(llm, decision.DefaultClientConfig(), log)
	c.Parser = decision.NewParser()

	log.Debug("Container ready", "provider", cfg.provider(), "statePath", cfg.StatePath)
	return c, nil
}

func newLLM(cfg Config, log output.LoggerPort) (output.LLMPort, error) {
	switch cfg.provider() {
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("provider %s needs OPENROUTER_API_KEY", ProviderOpenRouter)
		}
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		return openrouter.NewOpenRouterAdapter(llmCfg), nil

	case ProviderRelay:
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("provider %s needs GUIDE_SERVER_URL", ProviderRelay)
		}
		llmCfg := openrouter.RelayConfig(cfg.ServerURL, cfg.OpenRouterModel)
		llmCfg.Logger = log
		return openrouter.NewOpenRouterAdapter(llmCfg), nil

	case ProviderOllama:
		adapter, err := langchain.NewOllamaAdapter(langchain.OllamaConfig{
			ServerURL: cfg.OllamaURL,
			Model:     cfg.OllamaModel,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama backend: %w", err)
		}
		return adapter, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// NavigatorConfig maps the container settings onto the controller.
func (c *Container) NavigatorConfig() navigator.Config {
	navCfg := navigator.DefaultConfig()
	if c.Config.MaxRetries > 0 {
		navCfg.MaxNotFoundRetries = c.Config.MaxRetries
	}
	navCfg.InteractionTimeout = c.Config.InteractionTimeout
	navCfg.SnapshotDir = c.Config.SnapshotDir
	return navCfg
}

// NewNavigator builds a controller over page. The caller closes it.
func (c *Container) NewNavigator(page output.PagePort, status output.StatusPort, cfg navigator.Config) *navigator.Controller {
	return navigator.NewController(navigator.Deps{
		Page:    page,
		Decider: c.Decider,
		Prompts: c.Prompts,
		Parser:  c.Parser,
		Store:   c.Store,
		Status:  status,
		Logger:  c.Logger,
	}, cfg)
}

// OpenBrowser launches the tab the user will be guided in. It is closed with
// the container.
func (c *Container) OpenBrowser(ctx context.Context) (*rod.BrowserAdapter, error) {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = c.Config.Headless
	browserCfg.Logger = c.Logger
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}
	c.closers = append(c.closers, func() error {
		browser.Close()
		return nil
	})
	return browser, nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("Close failed", "error", err)
		}
	}
	c.closers = nil
	if c.Logger != nil {
		c.Logger.Close()
	}
}
