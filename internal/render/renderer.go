package render

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"chartkit-backend/internal/model"
)

// Renderer produces the PNG named by params.OutputPath.
type Renderer interface {
	Name() string
	Render(ctx context.Context, params model.RenderParams) error
}

// attempt runs r once and treats a missing output file as a failure. Any
// file left at the output path by an earlier attempt is removed first.
func attempt(ctx context.Context, r Renderer, params model.RenderParams) error {
	if err := os.Remove(params.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return invocationError(r.Name(), err, "clear stale output")
	}
	if err := r.Render(ctx, params); err != nil {
		return err
	}
	info, err := os.Stat(params.OutputPath)
	if err != nil || info.IsDir() {
		return invocationError(r.Name(), ErrMissingOutput, "")
	}
	return nil
}
