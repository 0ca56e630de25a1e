package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Payphone-Digital/content-api/config"
	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// rootOptions holds state shared by every command
type rootOptions struct {
	config *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "content-api",
		Short:         "Blogs, posts and products REST service",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.InitLogger(cfg); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.config = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		// serve is the default so the container entrypoint needs no arguments
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
