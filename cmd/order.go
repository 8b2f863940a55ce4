package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/sqlgen"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the computed table order and cycle report",
	Long: `Run the dependency ordering engine and print the result without
writing any artifact: the ordered tables, the ordering mode, counts and
every detected cycle. Use it to decide whether a cycle needs a manual
override before generating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}

		res, orderErr := p.order()
		validation := p.validate(res)

		color.Cyan("Mode: %s", res.Mode)
		color.Cyan("Tables: %d, verified foreign keys: %d, skipped relationships: %d",
			res.NodeCount, res.EdgeCount, res.SkippedEdgeCount)
		if res.CycleDetected {
			color.Yellow("Cycle detected: yes (%d components)", len(res.Components))
		}
		if res.AlphabeticalFallbackApplied {
			color.Red("Alphabetical fallback applied: dependency ordering was abandoned")
		}
		fmt.Println()

		for i, node := range res.Order {
			fmt.Printf("%4d  %s\n", i+1, node.Table.Qualified())
		}
		fmt.Println()

		for _, diag := range res.Diagnostics {
			color.Yellow("• %s", diag)
		}
		if len(validation.Cycles) > 0 {
			fmt.Println()
			fmt.Print(sqlgen.WriteReport(res, validation))
		}

		return orderErr
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
}
