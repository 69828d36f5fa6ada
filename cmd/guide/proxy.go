package main

import (
	"os"
	"os/signal"
	"syscall"

	"browser-guide/internal/infrastructure/env"
	"browser-guide/internal/infrastructure/logger"
	"browser-guide/internal/infrastructure/server"

	"github.com/spf13/cobra"
)

func newProxyCmd(flags *rootFlags) *cobra.Command {
	var (
		addr  string
		model string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve the chat relay that keeps the provider key server side",
		Long: `Serve POST /api/chat and GET /health.

Clients send chat-completion requests without a key; the relay adds
OPENROUTER_API_KEY and forwards them upstream. Point other guides at it
with GUIDE_PROVIDER=relay and GUIDE_SERVER_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envService := env.NewEnvService()

			logCfg := logger.DefaultConfig()
			logCfg.Level = envService.GetWithDefault("GUIDE_LOG_LEVEL", logCfg.Level)
			if flags.logLevel != "" {
				logCfg.Level = flags.logLevel
			}
			logCfg.File = envService.Get("GUIDE_LOG_FILE")
			log, err := logger.NewLoggerAdapter(logCfg)
			if err != nil {
				return err
			}
			defer log.Close()

			cfg := server.DefaultConfig(envService.Get("OPENROUTER_API_KEY"))
			cfg.Addr = ":" + envService.GetWithDefault("PORT", "5000")
			if addr != "" {
				cfg.Addr = addr
			}
			if model != "" {
				cfg.DefaultModel = model
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, nil, log).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT or :5000)")
	cmd.Flags().StringVar(&model, "model", "", "model used when a request names none")
	return cmd
}
