package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"browser-guide/internal/adapter/control"
	"browser-guide/internal/di"
	"browser-guide/internal/domain/entity"
	"browser-guide/internal/infrastructure/server"
	"browser-guide/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		startURL    string
		goal        string
		headless    bool
		controlAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a browser and guide you towards a goal",
		Long: `Open a browser window and guide you step by step.

Type a goal in the terminal to start. The next element to use is outlined
on the page; once you interact with it the guide picks the following one.
Press Alt+Shift+E in the page, or type /done, when the goal is reached.

A task saved by an earlier run is resumed on the start page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(flags)
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}
			if controlAddr == "" {
				controlAddr = os.Getenv("GUIDE_CONTROL_ADDR")
			}
			if startURL == "" {
				startURL = os.Getenv("GUIDE_START_URL")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			container, err := di.NewContainer(cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			browser, err := container.OpenBrowser(ctx)
			if err != nil {
				return err
			}
			if startURL != "" {
				if err := browser.Navigate(ctx, startURL); err != nil {
					return err
				}
			}

			console := userinteraction.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			nav := container.NewNavigator(browser, console, container.NavigatorConfig())
			defer nav.Close()

			browser.OnShortcut(func() {
				if err := nav.Complete(ctx); err != nil && !errors.Is(err, entity.ErrNoActiveTask) {
					container.Logger.Warn("Shortcut completion failed", "error", err)
				}
			})

			resumed, err := nav.Resume(ctx)
			if err != nil {
				container.Logger.Warn("Could not resume saved navigation", "error", err)
			}
			if goal != "" && !resumed {
				if err := nav.Start(ctx, goal); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer stop()
				return console.Run(gctx, nav)
			})
			if controlAddr != "" {
				srvCfg := server.DefaultConfig(cfg.OpenRouterAPIKey)
				srvCfg.Addr = controlAddr
				srv := server.New(srvCfg, control.NewDispatcher(nav, container.Logger), container.Logger)
				g.Go(func() error { return srv.Run(gctx) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&startURL, "url", "u", "", "page to open first (default $GUIDE_START_URL)")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "start guiding towards this goal right away")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	cmd.Flags().StringVar(&controlAddr, "control", "", "serve /api/control on this address (default $GUIDE_CONTROL_ADDR)")
	return cmd
}
