package main

import (
	"fmt"
	"os"

	"browser-guide/internal/di"
	"browser-guide/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

type rootFlags struct {
	statePath string
	provider  string
	logLevel  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "guide",
		Short:         "Step-by-step web navigation guide",
		Long:          `Guide highlights the next element to use on a web page until your goal is reached. A language model picks each step; you perform it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.statePath, "state", "", "navigation state database (default $GUIDE_STATE_PATH or guide-state.db)")
	rootCmd.PersistentFlags().StringVar(&flags.provider, "provider", "", "decision backend: openrouter, relay or ollama")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (default $GUIDE_LOG_LEVEL or info)")

	rootCmd.AddCommand(
		newRunCmd(flags),
		newProxyCmd(flags),
		newPlanCmd(flags),
		newStateCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(flags *rootFlags) di.Config {
	cfg := di.ConfigFromEnv(env.NewEnvService())
	if flags.statePath != "" {
		cfg.StatePath = flags.statePath
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg
}
