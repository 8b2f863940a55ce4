package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool

	Version = "1.4.2"
)

var rootCmd = &cobra.Command{
	Use:   "keelson",
	Short: "Export a modeled schema into dependency-ordered SQL artifacts",
	Long: `
Keelson turns a modeled application schema (entities, attributes,
relationships, datasets) into deployable SQL artifacts: DDL projects,
static reference-data seed scripts, bulk row-insert scripts and a
first-deployment bootstrap snapshot.

Every artifact is ordered by the foreign key dependency engine, so
parents are always created and loaded before their children. Cycles are
detected, resolved through configured overrides or nullable-column
deferral, and reported.

Target providers: SQL Server (default), PostgreSQL, MySQL.`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("keelson version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./keelson.config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log ordering diagnostics and hydration detail")
	rootCmd.Flags().Bool("version", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("keelson.config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			color.Red("❌ Failed to read config file: %v", err)
		}
	}
}

// newLogger builds the structured logger the pipeline packages log
// diagnostics through. CLI progress stays on color output; zap carries
// the ordering decisions, counts and cycle membership.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
