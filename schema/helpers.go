package schema

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// unsafeNameChars matches characters that should not end up in output file names.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._=+-]+`)

// TaskKindFromName derives the task kind from a dataset name.
// "reg" is checked before "clf", so a name containing both is a regression set.
func TaskKindFromName(name string) (TaskKind, error) {
	switch {
	case strings.Contains(name, "reg"):
		return Regression, nil
	case strings.Contains(name, "clf"):
		return Classification, nil
	default:
		return "", fmt.Errorf("%w: %q (expected 'clf' or 'reg' in the name)", ErrUnknownTaskKind, name)
	}
}

// SafeFileComponent replaces path separators and other awkward characters
// so a model, feature or row identifier can be embedded in a file name.
// A rewritten value gets a short digest of the original appended, so "a/b"
// and "a_b" never share a file.
func SafeFileComponent(s string) string {
	if s == "" {
		return "_"
	}
	out := unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if out == s {
		return out
	}
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%s_%x", out, sum[:4])
}

// Ext returns the file extension for an image format, including the dot.
func (f ImageFormat) Ext() string {
	if f == SVGFormat {
		return ".svg"
	}
	return ".png"
}
