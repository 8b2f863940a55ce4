package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keelson-db/keelson/internal/config"
	"github.com/keelson-db/keelson/internal/database"
	"github.com/keelson-db/keelson/internal/evidence"
	"github.com/keelson-db/keelson/internal/model"
)

var hydrateTimeout time.Duration

var hydrateCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "Verify modeled relationships against a live database",
	Long: `Connect to the target database, read the foreign key constraints
it actually enforces, match them to the modeled relationships and
record the matches in the evidence cache. Only verified relationships
drive dependency ordering; everything else is counted as skipped.

Hydration is read-only: it never changes the target database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return err
		}

		m, warnings, err := model.Load(cfg.ModelPath)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			color.Yellow("⚠️  %s", w)
		}

		ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
		defer cancel()

		adapter, err := database.NewAdapter(cfg.Database.Provider, logger)
		if err != nil {
			return err
		}
		color.Cyan("🔌 Connecting to %s...", cfg.Database.Provider)
		if err := adapter.Connect(ctx, dbURL); err != nil {
			return err
		}
		defer adapter.Close()

		records, err := adapter.ListForeignKeys(ctx)
		if err != nil {
			return err
		}
		color.Cyan("🔍 Found %d foreign key column pairs in the catalog", len(records))

		matches, unmatched := evidence.MatchRecords(m, records)
		logger.Info("hydration matched",
			zap.Int("matched", len(matches)),
			zap.Int("unmatched", len(unmatched)))

		store, err := evidence.Open(cfg.EvidencePath)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, match := range matches {
			if err := store.Record(ctx, m.Name, cfg.Database.Provider, match); err != nil {
				return err
			}
		}

		color.Green("✅ Verified %d of %d relationships", len(matches), len(m.Relationships))
		for _, name := range unmatched {
			color.Yellow("⚠️  No live constraint found for relationship %s", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hydrateCmd)
	hydrateCmd.Flags().DurationVar(&hydrateTimeout, "timeout", 60*time.Second, "Catalog query timeout")
}
