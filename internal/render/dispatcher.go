package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/utils"
	"chartkit-backend/pkg/logger"
)

// Dispatcher turns a validated chart request into a rendered PNG.
type Dispatcher struct {
	fallback  Renderer
	composite *FallbackRenderer
	tempDir   string
}

func NewDispatcher(primary, fallback Renderer, tempDir string, unavailableTTL time.Duration) *Dispatcher {
	return &Dispatcher{
		fallback:  fallback,
		composite: NewFallbackRenderer(primary, fallback, unavailableTTL),
		tempDir:   tempDir,
	}
}

// NewDispatcherFromConfig builds both backends from configuration.
func NewDispatcherFromConfig(cfg config.RendererConfig, tempDir string) (*Dispatcher, error) {
	primary, err := newBackend(cfg.Primary, cfg, tempDir)
	if err != nil {
		return nil, fmt.Errorf("primary backend: %w", err)
	}
	fallback, err := newBackend(cfg.Fallback, cfg, tempDir)
	if err != nil {
		return nil, fmt.Errorf("fallback backend: %w", err)
	}
	return NewDispatcher(primary, fallback, tempDir, cfg.UnavailableTTL), nil
}

func newBackend(b config.BackendConfig, cfg config.RendererConfig, tempDir string) (Renderer, error) {
	switch b.Kind {
	case config.BackendNative:
		return NewNativeRenderer(b.Name), nil
	case config.BackendCommand:
		return NewCommandRenderer(b, tempDir, cfg.MaxOutputBytes, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", b.Kind)
	}
}

func (d *Dispatcher) TempDir() string {
	return d.tempDir
}

// BuildParams assembles the parameter contract for req.
func BuildParams(req model.ChartRequest, outputPath string) model.RenderParams {
	return model.RenderParams{
		ChartType:   req.ChartType,
		DataPath:    req.DataPath,
		OutputPath:  outputPath,
		XColumn:     req.XColumn,
		YColumn:     req.YColumn,
		GroupColumn: req.GroupColumn,
		Title:       req.Title,
	}
}

// Dispatch renders req. With UsePrimary the primary backend is tried first
// and the fallback runs at most once after it; otherwise only the fallback runs.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.ChartRequest) (*model.ChartResult, error) {
	if err := utils.EnsureDirs(d.tempDir); err != nil {
		return nil, err
	}
	outputPath := filepath.Join(d.tempDir, fmt.Sprintf("chart_%d.png", utils.UniqueTimestamp()))
	params := BuildParams(req, outputPath)

	var (
		backend string
		err     error
	)
	if req.UsePrimary {
		backend, err = d.composite.RenderWith(ctx, params)
	} else {
		backend = d.fallback.Name()
		err = attempt(ctx, d.fallback, params)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, invocationError(backend, ErrMissingOutput, err.Error())
	}

	logger.WithFields(map[string]interface{}{
		"chart_type": req.ChartType,
		"backend":    backend,
		"output":     outputPath,
		"bytes":      len(data),
	}).Info("chart rendered")

	return &model.ChartResult{
		ChartType:  req.ChartType,
		DataURI:    utils.PNGDataURI(data),
		OutputPath: outputPath,
		Backend:    backend,
	}, nil
}
