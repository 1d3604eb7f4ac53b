package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/attrplot/core"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// modelSummary describes one model for list_models.
type modelSummary struct {
	Name           string   `json:"name"`
	Path           string   `json:"path"`
	Kind           string   `json:"kind"`
	Classes        int      `json:"classes,omitempty"`
	Trees          int      `json:"trees"`
	Features       []string `json:"features"`
	HasImportances bool     `json:"has_importances"`
}

func (h *toolHandler) handleGeneratePlots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	applyDirs(cfg, request)
	if ids := request.GetString("ids", ""); ids != "" {
		cfg.IDs = contract.ParseCSVList(ids)
	}
	if c := request.GetString("classes", ""); c != "" {
		classes, err := contract.ParseClassList(c)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid plot parameters: %v", err)), nil
		}
		cfg.Classes = classes
	}
	if l := request.GetString("label_mode", ""); l != "" {
		mode := schema.LabelMode(strings.ToLower(l))
		if _, ok := schema.ValidLabelModes[mode]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid plot parameters: unknown label mode '%s'", l)), nil
		}
		cfg.LabelMode = mode
	}

	result, err := core.RunGenerate(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("plot generation failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleRenderAdditive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.TablePath = strings.TrimSpace(request.GetString("table_path", ""))
	if cfg.TablePath == "" {
		return mcp.NewToolResultError("invalid additive parameters: table_path is required"), nil
	}
	if o := request.GetString("output_root", ""); o != "" {
		cfg.OutputRoot = filepath.Clean(o)
	}
	if c := request.GetString("index_column", ""); c != "" {
		cfg.IndexColumn = c
	}
	if ids := request.GetString("ids", ""); ids != "" {
		cfg.IDs = contract.ParseCSVList(ids)
	}
	cfg.Sample = request.GetInt("sample", cfg.Sample)
	if cfg.Sample < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid additive parameters: sample must be 0 or greater (received %d)", cfg.Sample)), nil
	}
	if cfg.Sample > 0 && len(cfg.IDs) > 0 {
		return mcp.NewToolResultError("invalid additive parameters: sample and ids cannot be combined"), nil
	}
	if seed := request.GetInt("seed", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}

	result, err := core.RunAdditive(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("additive rendering failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleListModels(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := h.baseCfg.ModelDir
	if d := request.GetString("model_dir", ""); d != "" {
		dir = filepath.Clean(d)
	}

	models, err := model.LoadModels(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing models failed: %v", err)), nil
	}

	summaries := make([]modelSummary, 0, len(models))
	for _, m := range models {
		summaries = append(summaries, modelSummary{
			Name:           m.Name,
			Path:           m.Path,
			Kind:           string(m.Kind.Task),
			Classes:        m.Kind.NClasses,
			Trees:          len(m.Trees),
			Features:       m.Features,
			HasImportances: m.HasImportances(),
		})
	}
	return jsonResult(summaries)
}

func (h *toolHandler) handleFeatureImportance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	applyDirs(cfg, request)

	results, err := core.RunImportance(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("importance ranking failed: %v", err)), nil
	}
	return jsonResult(results)
}

// applyDirs overrides the input and output directories named in the request.
func applyDirs(cfg *contract.Config, request mcp.CallToolRequest) {
	if d := request.GetString("data_dir", ""); d != "" {
		cfg.DataDir = filepath.Clean(d)
	}
	if d := request.GetString("model_dir", ""); d != "" {
		cfg.ModelDir = filepath.Clean(d)
	}
	if o := request.GetString("output_root", ""); o != "" {
		cfg.OutputRoot = filepath.Clean(o)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
