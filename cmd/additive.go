package cmd

import (
	"github.com/huangsam/attrplot/core"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/spf13/cobra"
)

// additiveCmd renders stacked additive attribution charts.
var additiveCmd = &cobra.Command{
	Use:   "additive <table>",
	Short: "Render stacked additive attribution charts from a table.",
	Long: `Read a CSV or parquet table with one row per time step, an identifier
column and one attribution column per feature, and render:
- main_plot: every row of the table
- plot_for_id_<id>: the rows of each identifier

Positive attributions stack upward and negative ones downward from zero.
Every feature keeps the same color in every chart.

Examples:
  # Chart every identifier, using the step column for tick labels
  attrplot additive shap_over_time.csv --index-column step

  # Chart five random identifiers
  attrplot additive shap_over_time.parquet --sample 5 --seed 7`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAdditive(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot render additive charts", err)
		}
	},
}
