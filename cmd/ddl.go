package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/bundle"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

var ddlOut string

var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Generate the DDL project only",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		outDir := ddlOut
		if outDir == "" {
			outDir = p.cfg.OutputDir
		}

		color.Cyan("🔧 Ordering %d entities...", len(p.model.Entities))
		res, err := p.order()
		if err != nil {
			return err
		}
		validation := p.validate(res)

		project := sqlgen.WriteDDL(p.dialect, p.model, res.Order, p.resolve, validation)
		artifacts := make([]bundle.Artifact, 0, len(project.Files)+1)
		for _, f := range project.Files {
			artifacts = append(artifacts, bundle.Artifact{Path: bundle.DDLDir + "/" + f.Name, Content: f.Content})
		}
		artifacts = append(artifacts, bundle.Artifact{Path: bundle.DDLDir + "/install.sql", Content: project.Install})

		return writeSingle(outDir, artifacts)
	},
}

func init() {
	rootCmd.AddCommand(ddlCmd)
	ddlCmd.Flags().StringVar(&ddlOut, "out", "", "Output directory (default from config)")
}
