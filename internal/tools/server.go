package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"
	"chartkit-backend/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ToolIngestDataset  = "ingest_dataset"
	ToolRenderChart    = "render_chart"
	ToolListChartTypes = "list_chart_types"
)

// ChartTools exposes the chart pipeline as MCP tools.
type ChartTools struct {
	chartService *service.ChartService
}

func NewChartTools(chartService *service.ChartService) *ChartTools {
	return &ChartTools{chartService: chartService}
}

// NewServer builds an MCP server with every chart tool registered.
func NewServer(chartService *service.ChartService, version string) *server.MCPServer {
	s := server.NewMCPServer("chartkit", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	t := NewChartTools(chartService)
	s.AddTool(ingestDatasetTool(), t.IngestDataset)
	s.AddTool(renderChartTool(), t.RenderChart)
	s.AddTool(listChartTypesTool(), t.ListChartTypes)
	return s
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
// Logging must not go to stdout while this runs.
func ServeStdio(chartService *service.ChartService, version string) error {
	logger.SetOutput(os.Stderr)
	return server.ServeStdio(NewServer(chartService, version))
}

func ingestDatasetTool() mcp.Tool {
	return mcp.NewTool(ToolIngestDataset,
		mcp.WithDescription("Ingest a local CSV or Excel file and return its columns, row count, preview and dataPath for render_chart."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of a .csv, .xlsx or .xls file on the server"),
		),
	)
}

func renderChartTool() mcp.Tool {
	types := make([]string, 0, len(chart.Types))
	for _, t := range chart.Types {
		types = append(types, string(t))
	}
	return mcp.NewTool(ToolRenderChart,
		mcp.WithDescription("Render a chart from an ingested dataset and return it as a PNG image."),
		mcp.WithString("chartType", mcp.Required(), mcp.Enum(types...), mcp.Description("Chart type")),
		mcp.WithString("dataPath", mcp.Description("Snapshot path returned by ingest_dataset")),
		mcp.WithString("datasetId", mcp.Description("Catalog id returned by ingest_dataset; overrides dataPath")),
		mcp.WithString("xColumn", mcp.Description("Column for the x axis")),
		mcp.WithString("yColumn", mcp.Description("Column for the y axis, where the chart type uses one")),
		mcp.WithString("groupColumn", mcp.Description("Optional grouping column")),
		mcp.WithString("title", mcp.Description("Chart title")),
		mcp.WithBoolean("useR", mcp.Description("Try the primary backend before the fallback")),
	)
}

func listChartTypesTool() mcp.Tool {
	return mcp.NewTool(ToolListChartTypes,
		mcp.WithDescription("List the chart types render_chart accepts and how each treats yColumn and groupColumn."),
	)
}

type ingestResult struct {
	model.DataUploadResponse
	Format string `json:"format"`
}

func (t *ChartTools) IngestDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return toolError(ToolIngestDataset, err), nil
	}
	if path, err = expandPath(strings.TrimSpace(path)); err != nil {
		return toolError(ToolIngestDataset, err), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return toolError(ToolIngestDataset, err), nil
	}
	defer f.Close()

	out, err := t.chartService.IngestUpload(ctx, f, filepath.Base(path))
	if err != nil {
		return toolError(ToolIngestDataset, err), nil
	}

	ds := out.Dataset
	return jsonResult(ingestResult{
		DataUploadResponse: model.DataUploadResponse{
			Success:   true,
			Message:   "data ingested",
			Filename:  out.Filename,
			RowCount:  ds.RowCount,
			Columns:   ds.Columns,
			Preview:   ds.Preview(ingest.PreviewRows),
			DataPath:  ds.DataPath,
			DatasetID: out.Entry.ID,
		},
		Format: string(out.Format),
	})
}

func (t *ChartTools) RenderChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chartType, err := request.RequireString("chartType")
	if err != nil {
		return toolError(ToolRenderChart, err), nil
	}

	req := model.ChartRequest{
		ChartType:   chartType,
		DataPath:    request.GetString("dataPath", ""),
		XColumn:     request.GetString("xColumn", ""),
		YColumn:     request.GetString("yColumn", ""),
		GroupColumn: request.GetString("groupColumn", ""),
		Title:       request.GetString("title", ""),
		UsePrimary:  request.GetBool("useR", false),
	}
	res, err := t.chartService.RenderChart(ctx, req, request.GetString("datasetId", ""))
	if err != nil {
		return toolError(ToolRenderChart, err), nil
	}

	data := strings.TrimPrefix(res.DataURI, "data:image/png;base64,")
	text := fmt.Sprintf("%s chart rendered by %s backend: %s", res.ChartType, res.Backend, t.chartService.ImagePath(res.OutputPath))
	return mcp.NewToolResultImage(text, data, "image/png"), nil
}

type chartTypeInfo struct {
	Type        string `json:"type"`
	YColumn     string `json:"yColumn"`
	GroupColumn string `json:"groupColumn"`
	Title       string `json:"defaultTitle"`
}

func (t *ChartTools) ListChartTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := make([]chartTypeInfo, 0, len(chart.Types))
	for _, ct := range chart.Types {
		p, _ := chart.PolicyFor(ct)
		out = append(out, chartTypeInfo{
			Type:        string(ct),
			YColumn:     p.YColumn.String(),
			GroupColumn: p.GroupColumn.String(),
			Title:       chart.DefaultTitle(ct),
		})
	}
	return jsonResult(map[string]any{"chartTypes": out})
}
