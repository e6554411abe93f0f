package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/render"
	"chartkit-backend/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolErrorResult is the JSON body of every failed tool call.
type ToolErrorResult struct {
	Success      bool   `json:"success"`
	Error        bool   `json:"error"`
	ErrorKind    string `json:"error_kind"`
	ErrorMessage string `json:"error_message"`
	ToolName     string `json:"tool_name"`
}

// errorKind names the error taxonomy entry err belongs to.
func errorKind(err error) string {
	var (
		perr *ingest.ParseError
		berr *render.BackendInvocationError
	)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.As(err, &perr):
		return "ParseError"
	case errors.Is(err, chart.ErrMissingDataReference):
		return "MissingDataReference"
	case errors.Is(err, chart.ErrUnknownChartType):
		return "UnknownChartType"
	case errors.Is(err, chart.ErrMissingColumn):
		return "MissingColumn"
	case errors.Is(err, storage.ErrDatasetNotFound):
		return "DatasetNotFound"
	case errors.Is(err, render.ErrBufferOverflow):
		return "BufferOverflow"
	case errors.As(err, &berr):
		return "BackendInvocationError"
	default:
		return "InternalError"
	}
}

// toolError converts err into an error tool result so the client sees the
// failure as data rather than a protocol error.
func toolError(name string, err error) *mcp.CallToolResult {
	body, merr := json.Marshal(ToolErrorResult{
		Success:      false,
		Error:        true,
		ErrorKind:    errorKind(err),
		ErrorMessage: err.Error(),
		ToolName:     name,
	})
	if merr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err))
	}
	return mcp.NewToolResultError(string(body))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
