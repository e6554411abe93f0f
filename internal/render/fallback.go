package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"chartkit-backend/internal/model"
	"chartkit-backend/pkg/logger"
)

// FallbackRenderer tries the primary backend and, on any failure, runs the
// fallback exactly once with the same parameters. The fallback's error is
// the one returned.
//
// A primary that cannot even be started (ErrBackendUnavailable) is skipped
// for unavailableTTL so later requests go straight to the fallback.
type FallbackRenderer struct {
	primary        Renderer
	fallback       Renderer
	unavailableTTL time.Duration
	now            func() time.Time

	mu               sync.Mutex
	unavailableUntil time.Time
}

func NewFallbackRenderer(primary, fallback Renderer, unavailableTTL time.Duration) *FallbackRenderer {
	return &FallbackRenderer{
		primary:        primary,
		fallback:       fallback,
		unavailableTTL: unavailableTTL,
		now:            time.Now,
	}
}

func (f *FallbackRenderer) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

func (f *FallbackRenderer) Render(ctx context.Context, params model.RenderParams) error {
	_, err := f.RenderWith(ctx, params)
	return err
}

// RenderWith renders and returns the name of the backend whose output was kept.
func (f *FallbackRenderer) RenderWith(ctx context.Context, params model.RenderParams) (string, error) {
	fields := map[string]interface{}{
		"chart_type": params.ChartType,
		"primary":    f.primary.Name(),
		"fallback":   f.fallback.Name(),
	}

	if f.primaryAvailable() {
		err := attempt(ctx, f.primary, params)
		if err == nil {
			return f.primary.Name(), nil
		}
		logger.WithFields(fields).Warnf("primary backend failed, trying fallback: %v", err)
		if errors.Is(err, ErrBackendUnavailable) {
			f.markUnavailable()
		}
	} else {
		logger.WithFields(fields).Debug("primary backend marked unavailable, skipping")
	}

	if err := attempt(ctx, f.fallback, params); err != nil {
		return "", err
	}
	return f.fallback.Name(), nil
}

func (f *FallbackRenderer) primaryAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.now().Before(f.unavailableUntil)
}

func (f *FallbackRenderer) markUnavailable() {
	if f.unavailableTTL <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailableUntil = f.now().Add(f.unavailableTTL)
}
