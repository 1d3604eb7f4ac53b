package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/explain"
	"github.com/huangsam/attrplot/internal/frame"
	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/schema"
)

// RunImportance ranks the features of every (model, dataset) pair of matching
// task kind. Importances stored with the model are used as is; otherwise the
// mean absolute attribution value over the dataset is the score.
func RunImportance(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.ImportanceResult, error) {
	models, err := model.LoadModels(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	datasets, err := frame.LoadDatasets(cfg.DataDir, datasetOptions(cfg))
	if err != nil {
		return nil, err
	}
	ctx = contextWithCacheManager(ctx, mgr)

	var results []schema.ImportanceResult
	for _, m := range models {
		for _, ds := range datasets {
			if !m.Kind.Matches(ds.Kind) {
				continue
			}
			result, err := pairImportance(ctx, m, ds)
			if err != nil {
				return nil, fmt.Errorf("model %s on dataset %s: %w", m.Name, ds.Name, err)
			}
			results = append(results, result)
		}
	}
	slices.SortFunc(results, func(a, b schema.ImportanceResult) int {
		if c := strings.Compare(a.Model, b.Model); c != 0 {
			return c
		}
		return strings.Compare(a.Dataset, b.Dataset)
	})
	return results, nil
}

func pairImportance(ctx context.Context, m *model.Model, ds *frame.Dataset) (schema.ImportanceResult, error) {
	result := schema.ImportanceResult{Model: m.Name, Dataset: ds.Name}
	if m.HasImportances() {
		result.Source = schema.ModelImportanceSource
		result.Features = explain.Rank(m.Features, m.Importances)
		return result, nil
	}

	rows, err := ds.Features.Rows(m.Features)
	if err != nil {
		return result, err
	}
	exp, err := cachedExplain(ctx, m, ds, rows)
	if err != nil {
		return result, err
	}
	result.Source = schema.SHAPImportanceSource
	result.Features = explain.Rank(m.Features, exp.MeanAbs())
	return result, nil
}
