package cmd

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/bundle"
	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

var bootstrapOut string

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Generate the first-deployment snapshot",
	Long: `Write a single script loading every dataset row, static and
dynamic, in an order that satisfies all mandatory foreign keys. When
nullable foreign keys close a cycle, the load runs in two phases:
inserts with those columns NULL, then UPDATE backfills.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		outDir := bootstrapOut
		if outDir == "" {
			outDir = p.cfg.OutputDir
		}

		plan, err := p.phasedPlan()
		if err != nil {
			if errors.Is(err, depgraph.ErrUnbreakableCycle) {
				color.Red("❌ %v", err)
				color.Yellow("💡 Relax one foreign key to nullable or declare a cycle override in %s", p.cfg.CyclesPath)
			}
			return err
		}

		script, err := sqlgen.WriteBootstrap(p.dialect, p.model, plan, p.cfg.BatchSize)
		if err != nil {
			return err
		}
		if script.RequiresPhasing {
			color.Yellow("⚠️  Bootstrap loads in two phases: %d deferred backfill updates", len(script.Phase2))
		}

		return writeSingle(outDir, []bundle.Artifact{{Path: "bootstrap.sql", Content: script.ToScript()}})
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringVar(&bootstrapOut, "out", "", "Output directory (default from config)")
}
