package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/bundle"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

var seedOut string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate static reference-data seed scripts",
	Long: `Write DELETE-then-INSERT seed scripts for the static entities,
with deletes in reverse dependency order and inserts in dependency
order so the scripts can be re-run against a populated database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		outDir := seedOut
		if outDir == "" {
			outDir = p.cfg.OutputDir
		}

		res, err := p.order()
		if err != nil {
			return err
		}
		p.validate(res)

		seeds := sqlgen.WriteSeeds(p.dialect, p.model, res.Order, p.cfg.BatchSize)
		if len(seeds.Files) == 0 {
			color.Yellow("⚠️  Model has no static entities; nothing to seed")
			return nil
		}

		artifacts := make([]bundle.Artifact, 0, len(seeds.Files)+1)
		for _, f := range seeds.Files {
			artifacts = append(artifacts, bundle.Artifact{Path: bundle.SeedDir + "/" + f.Name, Content: f.Content})
		}
		artifacts = append(artifacts, bundle.Artifact{Path: bundle.SeedDir + "/seed_all.sql", Content: seeds.Combined})

		return writeSingle(outDir, artifacts)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedOut, "out", "", "Output directory (default from config)")
}
