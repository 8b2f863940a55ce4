package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/bundle"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

var dataOut string

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Generate bulk row-insert scripts",
	Long: `Write INSERT scripts for the dataset rows of non-static
entities, one file per entity in dependency order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		outDir := dataOut
		if outDir == "" {
			outDir = p.cfg.OutputDir
		}

		res, err := p.order()
		if err != nil {
			return err
		}
		p.validate(res)

		scripts := sqlgen.WriteInserts(p.dialect, p.model, res.Order, p.cfg.BatchSize)
		if len(scripts) == 0 {
			color.Yellow("⚠️  No dataset rows for dynamic entities; nothing to write")
			return nil
		}

		artifacts := make([]bundle.Artifact, 0, len(scripts))
		for _, f := range scripts {
			artifacts = append(artifacts, bundle.Artifact{Path: bundle.DataDir + "/" + f.Name, Content: f.Content})
		}
		return writeSingle(outDir, artifacts)
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.Flags().StringVar(&dataOut, "out", "", "Output directory (default from config)")
}
