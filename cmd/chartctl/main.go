// Package main provides chartctl, the command line front end of the chart
// pipeline.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"
	"chartkit-backend/internal/storage"
	"chartkit-backend/internal/tools"
	"chartkit-backend/pkg/logger"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath string

	dataPath    string
	datasetID   string
	chartType   string
	xColumn     string
	yColumn     string
	groupColumn string
	title       string
	usePrimary  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "chartctl",
		Short:        "Ingest tabular data and render charts",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "Config file path")

	ingestCmd := &cobra.Command{
		Use:   "ingest [file.csv|file.xlsx]",
		Short: "Ingest a local CSV or spreadsheet into the uploads tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart from an ingested dataset",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&dataPath, "data", "", "Snapshot path returned by ingest")
	renderCmd.Flags().StringVar(&datasetID, "dataset", "", "Catalog id returned by ingest (overrides --data)")
	renderCmd.Flags().StringVarP(&chartType, "type", "t", "", "Chart type")
	renderCmd.Flags().StringVarP(&xColumn, "x", "x", "", "X column")
	renderCmd.Flags().StringVarP(&yColumn, "y", "y", "", "Y column")
	renderCmd.Flags().StringVarP(&groupColumn, "group", "g", "", "Group column")
	renderCmd.Flags().StringVar(&title, "title", "", "Chart title")
	renderCmd.Flags().BoolVar(&usePrimary, "use-r", false, "Try the primary backend first")
	renderCmd.MarkFlagRequired("type")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve ingest and render as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}

	rootCmd.AddCommand(ingestCmd, renderCmd, mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the service. Logs go to stderr so stdout
// only carries command output.
func setup() (*service.ChartService, storage.Storage, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, nil, err
	}
	logger.SetOutput(os.Stderr)
	return service.NewFromConfig(cfg)
}

func runIngest(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	svc, catalog, err := setup()
	if err != nil {
		return err
	}
	defer catalog.Close()

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	out, err := svc.IngestUpload(cmd.Context(), f, filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	ds := out.Dataset
	return printJSON(model.DataUploadResponse{
		Success:   true,
		Message:   "data ingested",
		Filename:  out.Filename,
		RowCount:  ds.RowCount,
		Columns:   ds.Columns,
		Preview:   ds.Preview(ingest.PreviewRows),
		DataPath:  ds.DataPath,
		DatasetID: out.Entry.ID,
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	svc, catalog, err := setup()
	if err != nil {
		return err
	}
	defer catalog.Close()

	req := model.ChartRequest{
		ChartType:   chartType,
		DataPath:    dataPath,
		XColumn:     xColumn,
		YColumn:     yColumn,
		GroupColumn: groupColumn,
		Title:       title,
		UsePrimary:  usePrimary,
	}
	res, err := svc.RenderChart(cmd.Context(), req, datasetID)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return printJSON(map[string]string{
		"chartType": res.ChartType,
		"imagePath": res.OutputPath,
		"backend":   res.Backend,
	})
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, catalog, err := setup()
	if err != nil {
		return err
	}
	defer catalog.Close()

	return tools.ServeStdio(svc, version)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
