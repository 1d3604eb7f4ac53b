package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/attrplot/schema"
	"gopkg.in/yaml.v3"
)

// Kind names accepted in model files.
const (
	kindClassifier = "classifier"
	kindRegressor  = "regressor"
)

// File is the on-disk form of a model, shared by the JSON and YAML encodings.
type File struct {
	Name               string             `json:"name,omitempty" yaml:"name,omitempty"`
	Kind               string             `json:"kind" yaml:"kind"`
	NClasses           int                `json:"n_classes,omitempty" yaml:"n_classes,omitempty"`
	Features           []string           `json:"features" yaml:"features"`
	FeatureImportances []float64          `json:"feature_importances,omitempty" yaml:"feature_importances,omitempty"`
	Aggregation        schema.Aggregation `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	BaseScore          float64            `json:"base_score,omitempty" yaml:"base_score,omitempty"`
	Trees              []FileTree         `json:"trees" yaml:"trees"`
}

// FileTree is the on-disk form of a tree.
type FileTree struct {
	Nodes []FileNode `json:"nodes" yaml:"nodes"`
}

// FileNode is the on-disk form of a tree node.
type FileNode struct {
	Feature   int       `json:"feature" yaml:"feature"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Left      int       `json:"left" yaml:"left"`
	Right     int       `json:"right" yaml:"right"`
	Cover     float64   `json:"cover" yaml:"cover"`
	Value     []float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// IsModelFile reports whether a file name has a supported model extension.
func IsModelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadModels reads every model file in dir, sorted by model name.
func LoadModels(dir string) ([]*Model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory %s: %w", dir, err)
	}

	var models []*Model
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !IsModelFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.Name]; dup {
			return nil, fmt.Errorf("model name %q is defined by both %s and %s", m.Name, prev, path)
		}
		seen[m.Name] = path
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w in %s", schema.ErrNoModels, dir)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Load reads and validates a single model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}

	m, err := FromFile(f, path)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return m, nil
}

// FromFile validates a decoded model. The name defaults to the file stem.
func FromFile(f File, path string) (*Model, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if name == "" || name == "." {
		return nil, fmt.Errorf("model has no name")
	}

	kind, err := parseKind(f.Kind, f.NClasses)
	if err != nil {
		return nil, err
	}

	if len(f.Features) == 0 {
		return nil, fmt.Errorf("model %q lists no features", name)
	}
	seen := make(map[string]struct{}, len(f.Features))
	for _, feat := range f.Features {
		if _, dup := seen[feat]; dup {
			return nil, fmt.Errorf("duplicate feature %q", feat)
		}
		seen[feat] = struct{}{}
	}

	if len(f.FeatureImportances) > 0 && len(f.FeatureImportances) != len(f.Features) {
		return nil, fmt.Errorf("%d feature importances for %d features", len(f.FeatureImportances), len(f.Features))
	}

	agg := f.Aggregation
	if agg == "" {
		agg = schema.MeanAggregation
	}
	if _, ok := schema.ValidAggregations[agg]; !ok {
		return nil, fmt.Errorf("invalid aggregation %q. must be mean, sum", agg)
	}

	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("model %q has no trees", name)
	}
	trees := make([]Tree, len(f.Trees))
	for i, ft := range f.Trees {
		t, err := convertTree(ft, len(f.Features), kind.Outputs())
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = t
	}

	return &Model{
		Name:        name,
		Path:        path,
		Kind:        kind,
		Features:    f.Features,
		Importances: f.FeatureImportances,
		Aggregation: agg,
		BaseScore:   f.BaseScore,
		Trees:       trees,
	}, nil
}

func parseKind(kind string, nClasses int) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case kindClassifier:
		if nClasses < 2 {
			return Kind{}, fmt.Errorf("classifier needs n_classes >= 2 (received %d)", nClasses)
		}
		return Classifier(nClasses), nil
	case kindRegressor:
		if nClasses > 1 {
			return Kind{}, fmt.Errorf("regressor cannot have n_classes %d", nClasses)
		}
		return Regressor(), nil
	default:
		return Kind{}, fmt.Errorf("invalid model kind %q. must be classifier, regressor", kind)
	}
}

// convertTree checks the node graph. Children must come after their parent,
// which rules out cycles and keeps every node reachable from the root in one pass.
func convertTree(ft FileTree, nFeatures, nOutputs int) (Tree, error) {
	if len(ft.Nodes) == 0 {
		return Tree{}, fmt.Errorf("tree has no nodes")
	}
	nodes := make([]Node, len(ft.Nodes))
	for i, fn := range ft.Nodes {
		n := Node(fn)
		if !(n.Cover > 0) {
			return Tree{}, fmt.Errorf("node %d: cover must be positive", i)
		}
		if n.IsLeaf() {
			if len(n.Value) != nOutputs {
				return Tree{}, fmt.Errorf("node %d: leaf has %d values, expected %d", i, len(n.Value), nOutputs)
			}
			nodes[i] = n
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return Tree{}, fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(ft.Nodes) {
				return Tree{}, fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
		nodes[i] = n
	}
	return Tree{Nodes: nodes}, nil
}
