package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FinSignal/internal/di"
	"FinSignal/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "finsignal",
		Short:        "Derive per-ticker trading signals from Alpha Vantage feeds",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults only when empty)")

	root.AddCommand(newRunCmd(&configPath), newServeCmd(&configPath))
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		tickers   []string
		format    string
		output    string
		dropEmpty bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the signal table once and write it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath, func(c *config.Config) {
				if len(tickers) > 0 {
					c.Universe.Tickers = tickers
				}
				if cmd.Flags().Changed("format") {
					c.Output.Format = format
				}
				if cmd.Flags().Changed("output") {
					c.Output.Path = output
				}
				if cmd.Flags().Changed("drop-empty") {
					c.Output.DropEmptyRows = dropEmpty
				}
			})
			if err != nil {
				return err
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err = app.RunOnce(ctx, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "comma separated ticker universe")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json or csv")
	cmd.Flags().StringVar(&output, "output", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&dropEmpty, "drop-empty", false, "drop rows without any derived value")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve signals over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath, func(c *config.Config) {
				if cmd.Flags().Changed("port") {
					c.Server.Port = port
				}
			})
			if err != nil {
				return err
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	return cmd
}

// loadConfig reads the file and environment, then applies flag overrides and
// validates again.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	override(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
