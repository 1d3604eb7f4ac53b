// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
)

// taskLabel names the task kind of a dataset, colored when enabled.
func taskLabel(dataset string, useColors bool) string {
	kind, err := schema.TaskKindFromName(dataset)
	if err != nil {
		return "-"
	}
	classifier := kind == schema.Classification
	if useColors {
		return contract.GetColorTaskLabel(classifier)
	}
	if classifier {
		return contract.ClassifierValue
	}
	return contract.RegressorValue
}
