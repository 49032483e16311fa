package orchestrator

import (
	"github.com/tabload/tabload/internal/compare"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/internal/util"
)

// ReportDiff logs one line per file column plus a constraint summary.
func ReportDiff(fileSchema *schema.TableSchema, diff *compare.SchemaDiffResult) {
	logging.Info("\nSchema Comparison:")
	logging.Info("------------------")

	for i := range diff.Columns {
		d := &diff.Columns[i]
		// Long column names are clipped so the verdict column stays aligned.
		name := util.Truncate(d.Name, 27)
		typ := ""
		if col := fileSchema.Column(d.Name); col != nil {
			typ = col.Type.String()
		}
		switch {
		case d.Unmatched:
			logging.Error("%-30s %-12s MISSING in destination", name, typ)
		case d.NoComparator:
			logging.Error("%-30s %-12s NO COMPARATOR", name, typ)
		case !d.Result.CanLoad:
			logging.Error("%-30s %-12s INCOMPATIBLE", name, typ)
		case !d.Result.TypeMatched:
			logging.Warn("%-30s %-12s LOADABLE (type differs)", name, typ)
		default:
			logging.Info("%-30s %-12s OK", name, typ)
		}
	}

	if diff.ConstraintsEqual {
		logging.Info("%-30s OK", "constraints")
	} else {
		logging.Warn("%-30s DIFFER", "constraints")
	}
	if diff.NoDifference {
		logging.Info("Schemas match.")
	} else if diff.CanLoadAll() {
		logging.Warn("Schemas differ but every column is loadable.")
	} else {
		logging.Error("Schemas differ and some columns cannot be stored.")
	}
}
