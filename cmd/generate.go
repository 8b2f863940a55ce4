package cmd

import (
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelson-db/keelson/internal/bundle"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

var (
	generateOut           string
	generateZip           bool
	generateSkipData      bool
	generateDeferJunction bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate all SQL artifacts",
	Long: `Run the full export pipeline: order the model by foreign key
dependencies, validate the order, then write the DDL project, seed
scripts, bulk insert scripts, the bootstrap snapshot and the ordering
report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		if generateDeferJunction {
			p.cfg.Sort.DeferJunctionTables = true
		}
		outDir := generateOut
		if outDir == "" {
			outDir = p.cfg.OutputDir
		}

		color.Cyan("🔧 Ordering %d entities (%s)...", len(p.model.Entities), p.cfg.Database.Provider)
		res, err := p.order()
		if err != nil {
			return err
		}
		validation := p.validate(res)

		// The writers are independent consumers of the same immutable
		// model; each data writer recomputes its own ordering run.
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			artifacts []bundle.Artifact
			errs      []error
		)
		add := func(items []bundle.Artifact, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			artifacts = append(artifacts, items...)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			project := sqlgen.WriteDDL(p.dialect, p.model, res.Order, p.resolve, validation)
			items := make([]bundle.Artifact, 0, len(project.Files)+1)
			for _, f := range project.Files {
				items = append(items, bundle.Artifact{Path: bundle.DDLDir + "/" + f.Name, Content: f.Content})
			}
			items = append(items, bundle.Artifact{Path: bundle.DDLDir + "/install.sql", Content: project.Install})
			add(items, nil)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			seedRes, err := p.order()
			if err != nil {
				add(nil, err)
				return
			}
			seeds := sqlgen.WriteSeeds(p.dialect, p.model, seedRes.Order, p.cfg.BatchSize)
			items := make([]bundle.Artifact, 0, len(seeds.Files)+1)
			for _, f := range seeds.Files {
				items = append(items, bundle.Artifact{Path: bundle.SeedDir + "/" + f.Name, Content: f.Content})
			}
			items = append(items, bundle.Artifact{Path: bundle.SeedDir + "/seed_all.sql", Content: seeds.Combined})
			add(items, nil)
		}()

		if !generateSkipData {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dataRes, err := p.order()
				if err != nil {
					add(nil, err)
					return
				}
				var items []bundle.Artifact
				for _, f := range sqlgen.WriteInserts(p.dialect, p.model, dataRes.Order, p.cfg.BatchSize) {
					items = append(items, bundle.Artifact{Path: bundle.DataDir + "/" + f.Name, Content: f.Content})
				}
				add(items, nil)
			}()

			wg.Add(1)
			go func() {
				defer wg.Done()
				plan, err := p.phasedPlan()
				if err != nil {
					add(nil, err)
					return
				}
				script, err := sqlgen.WriteBootstrap(p.dialect, p.model, plan, p.cfg.BatchSize)
				if err != nil {
					add(nil, err)
					return
				}
				add([]bundle.Artifact{{Path: "bootstrap.sql", Content: script.ToScript()}}, nil)
			}()
		}

		wg.Wait()
		if len(errs) > 0 {
			return errs[0]
		}

		artifacts = append(artifacts, bundle.Artifact{
			Path:    "report.sql",
			Content: sqlgen.WriteReport(res, validation),
		})

		if err := bundle.Write(outDir, artifacts); err != nil {
			return err
		}
		color.Green("✅ Wrote %d artifacts to %s", len(artifacts), outDir)

		if generateZip {
			zipPath := filepath.Join(outDir, bundle.ArchiveName(p.model.Name, p.model.Version))
			if err := bundle.Zip(zipPath, artifacts); err != nil {
				return err
			}
			color.Green("✅ Packed deployment archive %s", zipPath)
		}

		if !validation.Valid {
			color.Yellow("⚠️  Review %s before deploying", filepath.Join(outDir, "report.sql"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Output directory (default from config)")
	generateCmd.Flags().BoolVar(&generateZip, "zip", false, "Pack artifacts into a deployment archive")
	generateCmd.Flags().BoolVar(&generateSkipData, "skip-data", false, "Skip bulk insert and bootstrap scripts")
	generateCmd.Flags().BoolVar(&generateDeferJunction, "defer-junction-tables", false, "Place pure junction tables as late as dependencies allow")
}

func writeSingle(outDir string, artifacts []bundle.Artifact) error {
	if err := bundle.Write(outDir, artifacts); err != nil {
		return err
	}
	color.Green("✅ Wrote %d artifacts to %s", len(artifacts), outDir)
	return nil
}
