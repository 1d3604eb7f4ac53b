package outwriter

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/attrplot/internal/contract"
)

// LogGenerateHeader prints a concise, 2-line header for a per-observation run.
func LogGenerateHeader(cfg *contract.Config, models, datasets int) {
	// Line 1: The inputs
	fmt.Printf("%sInputs: %d models x %d datasets (%s, %s)\n",
		emoji(cfg, "🔎 "), models, datasets, cfg.ModelDir, cfg.DataDir)

	// Line 2: Where the plots go
	fmt.Printf("%sOutput: %s (%s, %d workers)\n",
		emoji(cfg, "🖼️  "), cfg.OutputRoot, cfg.ImageFormat, cfg.Workers)
}

// LogAdditiveHeader prints a concise, 2-line header for an additive run.
func LogAdditiveHeader(cfg *contract.Config, rows, features, ids int) {
	fmt.Printf("%sTable: %s (%d rows, %d features, %d identifiers)\n",
		emoji(cfg, "🔎 "), filepath.Base(cfg.TablePath), rows, features, ids)
	fmt.Printf("%sOutput: %s (%s)\n", emoji(cfg, "🖼️  "), cfg.OutputRoot, cfg.ImageFormat)
}

// emoji returns e when emojis are enabled.
func emoji(cfg *contract.Config, e string) string {
	if cfg.UseEmojis {
		return e
	}
	return ""
}
