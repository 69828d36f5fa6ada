package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"browser-guide/internal/di"
	"browser-guide/internal/infrastructure/browser/htmlpage"
	"browser-guide/internal/infrastructure/userinteraction"
	"browser-guide/internal/usecase/navigator"

	"github.com/spf13/cobra"
)

func newPlanCmd(flags *rootFlags) *cobra.Command {
	var (
		htmlFile string
		pageURL  string
		goal     string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run one planning pass against a saved or fetched page",
		Long: `Ask for the next step on a static page without opening a browser.

With --html the page is read from a file and --url is only used as its
address. Without --html the page at --url is fetched.

Examples:
  guide plan --html checkout.html --url https://shop.test/cart --goal "Pay for my order"
  guide plan --url https://example.com --goal "Find more information"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pageURL == "" {
				return errors.New("--url is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			page, err := loadPage(ctx, htmlFile, pageURL)
			if err != nil {
				return err
			}

			cfg := loadConfig(flags)
			// A dry pass must not overwrite a task saved by `guide run`.
			cfg.StatePath = ""
			container, err := di.NewContainer(cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			out := cmd.OutOrStdout()
			navCfg := container.NavigatorConfig()
			navCfg.SnapshotDir = ""
			nav := container.NewNavigator(page, userinteraction.NewConsole(cmd.InOrStdin(), out), navCfg)
			defer nav.Close()

			if err := nav.Start(ctx, goal); err != nil {
				return err
			}
			if err := waitPlanned(ctx, page, nav); err != nil {
				return err
			}

			if h, ok := page.Highlighted(); ok {
				fmt.Fprintf(out, "%s\n%s: %s\n", h.Element.Descriptor(), h.Guidance.Label(), h.Guidance.Instruction)
				return nil
			}
			if !nav.Task().Active {
				fmt.Fprintln(out, "Goal already reached on this page")
				return nil
			}
			if err := nav.Err(); err != nil {
				return err
			}
			return errors.New("no step was planned")
		},
	}

	cmd.Flags().StringVar(&htmlFile, "html", "", "saved HTML document")
	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "address of the page")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "what you want to achieve")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func loadPage(ctx context.Context, htmlFile, pageURL string) (*htmlpage.Page, error) {
	if htmlFile == "" {
		return htmlpage.Fetch(ctx, http.DefaultClient, pageURL)
	}
	f, err := os.Open(htmlFile)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return htmlpage.Parse(pageURL, f)
}

// waitPlanned returns once the first step is highlighted or the flight ended.
func waitPlanned(ctx context.Context, page *htmlpage.Page, nav *navigator.Controller) error {
	ended := make(chan struct{})
	go func() {
		nav.Wait()
		close(ended)
	}()

	select {
	case <-page.Waiting():
		return nil
	case <-ended:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("planning did not finish: %w", ctx.Err())
	}
}
