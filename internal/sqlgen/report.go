package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

const bannerRule = "-- ============================================================"

// commentBlock renders lines as a framed SQL comment.
func commentBlock(lines ...string) string {
	var b strings.Builder
	b.WriteString(bannerRule + "\n")
	for _, line := range lines {
		b.WriteString("-- " + line + "\n")
	}
	b.WriteString(bannerRule + "\n")
	return b.String()
}

// validationBanner is the prominent warning stamped into artifacts when
// the emitted order still violates a constraint.
func validationBanner(v depgraph.ValidationResult) string {
	lines := []string{
		"WARNING: the generated order violates foreign key constraints",
	}
	for _, violation := range v.Violations {
		if violation.Kind == depgraph.ViolationChildBeforeParent {
			lines = append(lines, violation.Detail)
		}
	}
	lines = append(lines, "review the cycle report before applying this script")
	return commentBlock(lines...)
}

// cycleBanner explains why one table's file needs attention, using the
// diagnostics that mention it.
func cycleBanner(t model.TableName, cycles []depgraph.CycleDiagnostic) string {
	for _, c := range cycles {
		for _, member := range c.Tables {
			if member == t {
				lines := []string{
					fmt.Sprintf("%s participates in a circular dependency", t.Qualified()),
				}
				lines = append(lines, cycleLines(c)...)
				return commentBlock(lines...)
			}
		}
	}
	return ""
}

// WriteReport renders the full ordering report artifact: how the order
// was produced, what was skipped, every detected cycle with its foreign
// keys, and what to do about each one.
func WriteReport(res depgraph.OrderingResult, v depgraph.ValidationResult) string {
	var b strings.Builder

	b.WriteString(commentBlock(
		"keelson ordering report",
		fmt.Sprintf("mode: %s", res.Mode),
		fmt.Sprintf("tables: %d, verified foreign keys: %d, skipped relationships: %d",
			res.NodeCount, res.EdgeCount, res.SkippedEdgeCount),
		fmt.Sprintf("cycle detected: %t, alphabetical fallback: %t",
			res.CycleDetected, res.AlphabeticalFallbackApplied),
	))
	b.WriteString("\n")

	if len(res.Diagnostics) > 0 {
		b.WriteString(commentBlock("ordering decisions"))
		for _, diag := range res.Diagnostics {
			b.WriteString("-- " + diag + "\n")
		}
		b.WriteString("\n")
	}

	if !v.Valid {
		b.WriteString(validationBanner(v))
		b.WriteString("\n")
	}

	for i, c := range v.Cycles {
		lines := []string{fmt.Sprintf("cycle %d of %d", i+1, len(v.Cycles))}
		lines = append(lines, cycleLines(c)...)
		b.WriteString(commentBlock(lines...))
		b.WriteString("\n")
	}

	if v.Valid && len(v.Cycles) == 0 {
		b.WriteString("-- no ordering violations\n")
	}

	return b.String()
}

func cycleLines(c depgraph.CycleDiagnostic) []string {
	names := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		names[i] = t.Qualified()
	}
	lines := []string{"tables: " + strings.Join(names, ", ")}

	for _, fk := range c.ForeignKeys {
		cols := make([]string, len(fk.Columns))
		for i, p := range fk.Columns {
			cols[i] = p.OwnerColumn
		}
		kind := "mandatory"
		if fk.Weak() {
			kind = "deferrable"
		}
		lines = append(lines, fmt.Sprintf("  %s: %s(%s) -> %s, nullable=%t, on delete %s (%s)",
			fk.Constraint, fk.Child.Qualified(), strings.Join(cols, ", "),
			fk.Parent.Qualified(), fk.Nullable, fk.DeleteRule, kind))
	}

	if c.IsAllowed {
		reason := c.Reason
		if reason == "" {
			reason = "declared allowed by configuration"
		}
		lines = append(lines, "allowed: "+reason)
	}
	if c.Recommendation != "" {
		lines = append(lines, "recommendation: "+c.Recommendation)
	}
	return lines
}
