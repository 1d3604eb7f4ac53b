package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Task kind label constants.
const (
	ClassifierValue = "Classifier"
	RegressorValue  = "Regressor"
)

// Color variables for console output.
var (
	ClassifierColor = color.New(color.FgMagenta, color.Bold) // ClassifierColor marks classification models and datasets.
	RegressorColor  = color.New(color.FgCyan, color.Bold)    // RegressorColor marks regression models and datasets.
)

// GetColorTaskLabel returns a colored label for a classifier flag.
func GetColorTaskLabel(classifier bool) string {
	if classifier {
		return ClassifierColor.Sprint(ClassifierValue)
	}
	return RegressorColor.Sprint(RegressorValue)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the attribution cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".attrplot_cache.db"
	}
	return filepath.Join(homeDir, ".attrplot_cache.db")
}

// GetBoltDBFilePath returns the path to the bbolt file for the attribution cache.
func GetBoltDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".attrplot_cache.bolt"
	}
	return filepath.Join(homeDir, ".attrplot_cache.bolt")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run history.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".attrplot_runs.db"
	}
	return filepath.Join(homeDir, ".attrplot_runs.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
