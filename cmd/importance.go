package cmd

import (
	"github.com/huangsam/attrplot/core"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/spf13/cobra"
)

// importanceCmd prints ranked features per model and dataset.
var importanceCmd = &cobra.Command{
	Use:   "importance",
	Short: "Rank features per model and dataset.",
	Long: `Rank the features of every compatible model and dataset pair.

Models that store feature importances report them as is. Other models are
ranked by the mean absolute SHAP value over the dataset rows.

Examples:
  attrplot importance
  attrplot importance --output csv --output-file importance.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteImportance(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot rank features", err)
		}
	},
}
