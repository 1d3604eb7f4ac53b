package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/attrplot/schema"
)

// TableReader reads a non-CSV table into a header and string records.
type TableReader func(path string) ([]string, [][]string, error)

// Dataset is one X_<name> / y_<name> pair from the data directory.
type Dataset struct {
	Name     string
	Kind     schema.TaskKind
	Features *Frame    // feature columns only, identifier and dropped columns removed
	IDs      []string  // identifier column, aligned with Features rows
	Target   []float64 // the Target column of y_<name>
	XPath    string
	YPath    string
}

// LoadOptions controls how datasets are read.
type LoadOptions struct {
	IDColumn    string
	DropColumns []string
	Parquet     TableReader
}

// Row returns the position of the row with the given identifier.
func (d *Dataset) Row(id string) (int, bool) {
	for i, v := range d.IDs {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// DiscoverDatasets returns the dataset names found in dir with their X and y paths,
// sorted by name. A dataset needs both files; either may be CSV or Parquet.
func DiscoverDatasets(dir string) (map[string][2]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	xs := make(map[string]string)
	ys := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".parquet" {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		switch {
		case strings.HasPrefix(stem, schema.FeaturePrefix):
			xs[strings.TrimPrefix(stem, schema.FeaturePrefix)] = filepath.Join(dir, name)
		case strings.HasPrefix(stem, schema.TargetPrefix):
			ys[strings.TrimPrefix(stem, schema.TargetPrefix)] = filepath.Join(dir, name)
		}
	}

	pairs := make(map[string][2]string, len(xs))
	names := make([]string, 0, len(xs))
	for name, x := range xs {
		y, ok := ys[name]
		if !ok {
			return nil, nil, fmt.Errorf("dataset %q has no %s%s file in %s", name, schema.TargetPrefix, name, dir)
		}
		if name == "" {
			return nil, nil, fmt.Errorf("feature file %s has an empty dataset name", x)
		}
		pairs[name] = [2]string{x, y}
		names = append(names, name)
	}
	sort.Strings(names)
	return pairs, names, nil
}

// LoadDatasets reads every dataset in dir. The task kind of each dataset is
// derived from its name, so a name without "clf" or "reg" fails the whole load.
func LoadDatasets(dir string, opts LoadOptions) ([]*Dataset, error) {
	pairs, names, err := DiscoverDatasets(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", schema.ErrNoDatasets, dir)
	}

	datasets := make([]*Dataset, 0, len(names))
	for _, name := range names {
		ds, err := LoadDataset(name, pairs[name][0], pairs[name][1], opts)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// LoadDataset reads one feature file and its target file.
func LoadDataset(name, xPath, yPath string, opts LoadOptions) (*Dataset, error) {
	kind, err := schema.TaskKindFromName(name)
	if err != nil {
		return nil, err
	}

	x, err := ReadTable(xPath, opts.Parquet)
	if err != nil {
		return nil, err
	}
	if !x.Has(opts.IDColumn) {
		return nil, fmt.Errorf("dataset %q: %w: identifier %q", name, ErrColumnNotFound, opts.IDColumn)
	}
	ids, err := x.Column(opts.IDColumn)
	if err != nil {
		return nil, err
	}

	y, err := ReadTable(yPath, opts.Parquet)
	if err != nil {
		return nil, err
	}
	target, err := y.Float(schema.TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	if len(target) != x.Len() {
		return nil, fmt.Errorf("dataset %q: %d target rows for %d feature rows", name, len(target), x.Len())
	}

	drop := append([]string{opts.IDColumn}, opts.DropColumns...)
	return &Dataset{
		Name:     name,
		Kind:     kind,
		Features: x.Drop(drop...),
		IDs:      ids,
		Target:   target,
		XPath:    xPath,
		YPath:    yPath,
	}, nil
}
