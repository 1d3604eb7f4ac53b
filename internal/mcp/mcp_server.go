// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the attrplot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"attrplot Attribution Plot Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: generate_plots ---
	s.AddTool(mcp.NewTool("generate_plots",
		mcp.WithDescription("Render SHAP importance, scatter and force plots for every model and dataset pair. The output root is reset first."),
		mcp.WithString("data_dir", mcp.Description("Directory with X_<dataset> and y_<dataset> tables.")),
		mcp.WithString("model_dir", mcp.Description("Directory with exported tree ensemble models.")),
		mcp.WithString("output_root", mcp.Description("Directory that receives the plots. It is removed and recreated.")),
		mcp.WithString("ids", mcp.Description("Comma separated row identifiers that get force plots.")),
		mcp.WithString("classes", mcp.Description("Comma separated class indices for classifiers. Defaults to '1'.")),
		mcp.WithString("label_mode", mcp.Description("Force plot feature labels."), mcp.Enum("value", "percentile")),
	), h.handleGeneratePlots)

	// --- 2. Tool: render_additive ---
	s.AddTool(mcp.NewTool("render_additive",
		mcp.WithDescription("Render stacked additive attribution charts from a table of per-row attributions."),
		mcp.WithString("table_path", mcp.Description("CSV or parquet table with an identifier column and one column per feature."), mcp.Required()),
		mcp.WithString("index_column", mcp.Description("Column used for x axis tick labels.")),
		mcp.WithString("output_root", mcp.Description("Directory that receives the charts.")),
		mcp.WithString("ids", mcp.Description("Comma separated identifiers that get their own chart.")),
		mcp.WithNumber("sample", mcp.Description("Render this many randomly chosen identifiers instead of all.")),
		mcp.WithNumber("seed", mcp.Description("Random seed for sample.")),
	), h.handleRenderAdditive)

	// --- 3. Tool: list_models ---
	s.AddTool(mcp.NewTool("list_models",
		mcp.WithDescription("List the tree ensemble models found in the model directory."),
		mcp.WithString("model_dir", mcp.Description("Directory with exported tree ensemble models.")),
	), h.handleListModels)

	// --- 4. Tool: feature_importance ---
	s.AddTool(mcp.NewTool("feature_importance",
		mcp.WithDescription("Rank features per model and dataset pair, using stored importances or mean absolute SHAP values."),
		mcp.WithString("data_dir", mcp.Description("Directory with X_<dataset> and y_<dataset> tables.")),
		mcp.WithString("model_dir", mcp.Description("Directory with exported tree ensemble models.")),
	), h.handleFeatureImportance)

	return s
}

// StartMCPServer starts the attrplot MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
