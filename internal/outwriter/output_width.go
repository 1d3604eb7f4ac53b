package outwriter

import (
	"os"

	"golang.org/x/term"
)

// Bounds for the truncated name columns of text tables.
const (
	minLabelWidth = 15
	maxLabelWidth = 60
)

// getTerminalWidth returns the stdout terminal width, or 80 when stdout is not a terminal.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return width
}

// getMaxLabelWidth splits the space left by fixedWidth columns between
// labelColumns name columns.
func getMaxLabelWidth(termWidth, fixedWidth, labelColumns int) int {
	if labelColumns < 1 {
		labelColumns = 1
	}
	// Reserve generous space for table borders, separators, and padding
	available := (termWidth - fixedWidth - 4*labelColumns) / labelColumns
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}
