package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/keelson-db/keelson/internal/config"
	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/evidence"
	"github.com/keelson-db/keelson/internal/model"
	"github.com/keelson-db/keelson/internal/sqlgen"
)

// pipeline carries the loaded inputs every artifact command shares:
// config, hydrated model, naming resolver, cycle overrides and the
// target dialect. Each command then runs its own ordering pass over
// this immutable state.
type pipeline struct {
	cfg       *config.Config
	model     *model.Model
	resolve   model.NameResolver
	overrides []depgraph.CycleOverride
	dialect   sqlgen.Dialect
	logger    *zap.Logger
}

func loadPipeline() (*pipeline, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, warnings, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		color.Yellow("⚠️  %s", w)
		logger.Warn("model warning", zap.String("detail", w))
	}

	if err := model.LoadDatasets(cfg.DatasetDir, m); err != nil {
		return nil, err
	}

	if err := applyEvidence(cfg, m, logger); err != nil {
		return nil, err
	}

	overrides, err := config.LoadOverrides(cfg.CyclesPath)
	if err != nil {
		return nil, err
	}

	dialect, err := sqlgen.ForProvider(cfg.Database.Provider)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:       cfg,
		model:     m,
		resolve:   cfg.Resolver(),
		overrides: overrides,
		dialect:   dialect,
		logger:    logger,
	}, nil
}

// applyEvidence hydrates relationships from the cache when one exists.
// A missing cache is a fresh project: everything stays unverified and
// the ordering run reports every relationship skipped.
func applyEvidence(cfg *config.Config, m *model.Model, logger *zap.Logger) error {
	if _, err := os.Stat(cfg.EvidencePath); os.IsNotExist(err) {
		logger.Info("no evidence cache; relationships stay unverified",
			zap.String("path", cfg.EvidencePath))
		return nil
	}

	store, err := evidence.Open(cfg.EvidencePath)
	if err != nil {
		return err
	}
	defer store.Close()

	applied, err := store.Apply(context.Background(), m)
	if err != nil {
		return err
	}
	logger.Info("evidence applied",
		zap.Int("verified_relationships", applied),
		zap.Int("total_relationships", len(m.Relationships)))
	return nil
}

func (p *pipeline) sortOptions() depgraph.SortOptions {
	return depgraph.SortOptions{
		DeferJunctionTables: p.cfg.Sort.DeferJunctionTables,
		Overrides:           p.overrides,
	}
}

// order runs one full ordering pass: build, sort, log diagnostics.
// A configured override that matched no detected cycle is stale
// configuration and fails the run rather than being silently skipped.
func (p *pipeline) order() (depgraph.OrderingResult, error) {
	g, err := depgraph.Build(p.model.Entities, p.model.Relationships, p.resolve)
	if err != nil {
		return depgraph.OrderingResult{}, err
	}

	res := depgraph.Sort(g, p.sortOptions())
	for _, diag := range res.Diagnostics {
		p.logger.Info("ordering", zap.String("detail", diag))
	}
	p.logger.Info("ordering complete",
		zap.String("mode", string(res.Mode)),
		zap.Int("tables", res.NodeCount),
		zap.Int("edges", res.EdgeCount),
		zap.Int("skipped", res.SkippedEdgeCount),
		zap.Bool("cycle_detected", res.CycleDetected))

	if len(res.UnmatchedOverrides) > 0 {
		var names []string
		for _, ov := range res.UnmatchedOverrides {
			for _, t := range ov.Tables {
				names = append(names, t.Qualified())
			}
		}
		sort.Strings(names)
		return res, fmt.Errorf("cycle override for {%s} matched no detected cycle; remove or fix the declaration in %s",
			strings.Join(names, ", "), p.cfg.CyclesPath)
	}

	return res, nil
}

// validate re-checks an emitted order and warns prominently on
// violations without stopping generation.
func (p *pipeline) validate(res depgraph.OrderingResult) depgraph.ValidationResult {
	v := depgraph.Validate(res.Order, p.model.Entities, p.model.Relationships, p.resolve, p.overrides)
	if !v.Valid {
		allowed := true
		for _, c := range v.Cycles {
			if !c.IsAllowed {
				allowed = false
			}
		}
		broken := len(res.BrokenEdges) > 0
		switch {
		case broken:
			color.Yellow("⚠️  Order defers %d nullable foreign keys; bootstrap loads them in two phases", len(res.BrokenEdges))
		case allowed && len(v.Cycles) > 0:
			color.Yellow("⚠️  Order violates constraints inside cycles declared allowed")
		default:
			color.Red("❌ Generated order violates %d foreign key constraints; see the report", len(v.Violations))
		}
		for _, violation := range v.Violations {
			p.logger.Warn("ordering violation",
				zap.String("kind", string(violation.Kind)),
				zap.String("detail", violation.Detail))
		}
	}
	return v
}

// phasedPlan computes the two-phase bootstrap plan.
func (p *pipeline) phasedPlan() (*depgraph.PhasedPlan, error) {
	g, err := depgraph.Build(p.model.Entities, p.model.Relationships, p.resolve)
	if err != nil {
		return nil, err
	}
	plan, err := depgraph.PlanPhases(g, p.sortOptions())
	if err != nil {
		return nil, err
	}
	p.logger.Info("phased plan",
		zap.Int("tables", len(plan.Order)),
		zap.Int("tables_with_deferred_columns", len(plan.Deferred)),
		zap.Bool("requires_phasing", plan.RequiresPhasing))
	return plan, nil
}
