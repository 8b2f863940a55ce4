package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/template"
)

var (
	initSQLServer bool
	initPostgres  bool
	initMySQL     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new keelson project",
	Long:  `Scaffold keelson.config.json, a sample model, the cycle override file and the dataset/output directories.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := "sqlserver"
		flagCount := 0
		if initSQLServer {
			flagCount++
		}
		if initPostgres {
			provider = "postgres"
			flagCount++
		}
		if initMySQL {
			provider = "mysql"
			flagCount++
		}
		if flagCount > 1 {
			return fmt.Errorf("please specify only one provider (--sqlserver, --postgres, or --mysql)")
		}

		files := []struct {
			name    string
			content string
		}{
			{"keelson.config.json", template.ConfigJSON(provider)},
			{"keelson.cycles.yaml", template.CyclesYAML},
			{"model.json", template.ModelJSON},
			{".env.example", template.EnvExample(provider)},
		}
		for _, f := range files {
			name, content := f.name, f.content
			if _, err := os.Stat(name); err == nil {
				color.Yellow("⚠️  %s already exists, skipping", name)
				continue
			}
			if err := os.WriteFile(name, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			color.Green("✅ Created %s", name)
		}

		for _, dir := range []string{"data", "out"} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		color.Cyan("📦 Project initialized for %s", provider)
		color.White("Next: put your model export in model.json, then run `keelson generate`")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initSQLServer, "sqlserver", false, "Target SQL Server (default)")
	initCmd.Flags().BoolVar(&initPostgres, "postgres", false, "Target PostgreSQL")
	initCmd.Flags().BoolVar(&initMySQL, "mysql", false, "Target MySQL")
}
