package cmd

import (
	"github.com/huangsam/attrplot/core"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/spf13/cobra"
)

// generateCmd renders the per-observation SHAP plots.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render SHAP importance, scatter and force plots for every model and dataset.",
	Long: `Explain every model against every dataset of the same task kind and render:
- an overall feature importance bar chart per pair (when the model stores importances)
- one attribution scatter plot per feature and selected class
- one force plot per selected row identifier and class
- attribution tables as CSV next to the plots

The task kind of a dataset comes from its name: 'reg' means regression and
'clf' means classification. Pairs whose kinds differ are skipped.

WARNING: the output root is deleted and recreated at the start of every run.

Examples:
  # Plot class 1 for two rows
  attrplot generate --ids 17,42

  # Plot several classes with percentile labels as SVG
  attrplot generate --classes 0,1,2 --label-mode percentile --image-format svg

  # Keep a JSON summary of the written files
  attrplot generate --output json --output-file plots.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot generate plots", err)
		}
	},
}
