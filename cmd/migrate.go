package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/pkg/database"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := database.Open(ctx, opts.config, logger.GetLogger())
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			if err := database.AutoMigrate(ctx, db); err != nil {
				return err
			}
			logger.GetLogger().Info("Database migrated successfully")
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample blogs, posts and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), opts, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run migrations before seeding")
	return cmd
}

func runSeed(ctx context.Context, opts *rootOptions, migrate bool) error {
	db, err := database.Open(ctx, opts.config, logger.GetLogger())
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	if migrate {
		if err := database.AutoMigrate(ctx, db); err != nil {
			return err
		}
	}
	res, err := database.Seed(ctx, db)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Database seeded",
		zap.Int("blogs", res.Blogs),
		zap.Int("posts", res.Posts),
		zap.Int("products", res.Products),
	)
	return nil
}
