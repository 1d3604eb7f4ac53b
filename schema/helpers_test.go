package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskKindFromName(t *testing.T) {
	tests := []struct {
		name string
		want TaskKind
	}{
		{"model_clf_v2", Classification}, // classification marker
		{"housing_reg", Regression},      // regression marker
		{"clf", Classification},          // bare marker
		{"reg_clf", Regression},          // both markers, regression wins
		{"clf_regional", Regression},     // "reg" inside another word still counts
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TaskKindFromName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskKindFromNameUnknown(t *testing.T) {
	_, err := TaskKindFromName("iris")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTaskKind))
	assert.Contains(t, err.Error(), "iris")
}

func TestSafeFileComponent(t *testing.T) {
	for _, in := range []string{"rf", "a_b", "x=1.5", "c1"} {
		assert.Equal(t, in, SafeFileComponent(in))
	}
	assert.Equal(t, "_", SafeFileComponent(""))

	for _, in := range []string{"petal width (cm)", "a/b", "  spaced  ", "../up"} {
		got := SafeFileComponent(in)
		assert.Regexp(t, `^[A-Za-z0-9._=+-]+_[0-9a-f]{8}$`, got, in)
		assert.NotContains(t, got, "/")
		assert.Equal(t, got, SafeFileComponent(in), "stable for %q", in)
	}
	assert.True(t, strings.HasPrefix(SafeFileComponent("petal width (cm)"), "petal_width_cm__"))

	// Values that sanitize alike still map to distinct names.
	seen := map[string]string{}
	for _, in := range []string{"a_b", "a/b", "a b", "a:b", " a_b"} {
		got := SafeFileComponent(in)
		prev, dup := seen[got]
		assert.False(t, dup, "%q and %q both map to %q", prev, in, got)
		seen[got] = in
	}
}

func TestImageFormatExt(t *testing.T) {
	assert.Equal(t, ".png", PNGFormat.Ext())
	assert.Equal(t, ".svg", SVGFormat.Ext())
	assert.Equal(t, ".png", ImageFormat("").Ext())
}

func TestPipelineSubdirs(t *testing.T) {
	assert.Equal(t, []string{"feature_importance", "force_plots", "feature"}, PipelineSubdirs())
}
