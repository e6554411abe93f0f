package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/utils"
	"chartkit-backend/pkg/logger"
)

// CommandRenderer runs an external program that consumes the parameter
// contract, either as the last argv entry or through a temporary JSON file.
type CommandRenderer struct {
	name      string
	command   string
	args      []string
	script    string
	paramMode string
	tempDir   string
	maxOutput int
	timeout   time.Duration
}

func NewCommandRenderer(b config.BackendConfig, tempDir string, maxOutput int, timeout time.Duration) *CommandRenderer {
	name := b.Name
	if name == "" {
		name = filepath.Base(b.Command)
	}
	return &CommandRenderer{
		name:      name,
		command:   b.Command,
		args:      append([]string(nil), b.Args...),
		script:    b.Script,
		paramMode: b.ParamMode,
		tempDir:   tempDir,
		maxOutput: maxOutput,
		timeout:   timeout,
	}
}

func (r *CommandRenderer) Name() string {
	return r.name
}

func (r *CommandRenderer) Render(ctx context.Context, params model.RenderParams) error {
	blob, err := json.Marshal(params)
	if err != nil {
		return invocationError(r.name, err, "")
	}

	argv := append([]string(nil), r.args...)
	if r.script != "" {
		if _, err := os.Stat(r.script); err != nil {
			return invocationError(r.name, fmt.Errorf("%w: script %s: %v", ErrBackendUnavailable, r.script, err), "")
		}
		argv = append(argv, r.script)
	}

	if r.paramMode == config.ParamModeFile {
		paramsFile := filepath.Join(r.tempDir, fmt.Sprintf("params_%d.json", utils.UniqueTimestamp()))
		if err := os.WriteFile(paramsFile, blob, 0o644); err != nil {
			return invocationError(r.name, err, "")
		}
		// cleanup errors are ignored
		defer os.Remove(paramsFile)
		argv = append(argv, paramsFile)
	} else {
		argv = append(argv, string(blob))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	runCtx, kill := context.WithCancel(ctx)
	defer kill()

	cmd := exec.CommandContext(runCtx, r.command, argv...)
	cmd.WaitDelay = time.Second
	stdout := newCappedBuffer(r.maxOutput, kill)
	stderr := newCappedBuffer(r.maxOutput, kill)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	runErr := cmd.Run()

	if stdout.Overflowed() || stderr.Overflowed() {
		return invocationError(r.name, ErrBufferOverflow, fmt.Sprintf("output exceeded %d bytes", r.maxOutput))
	}
	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
			return invocationError(r.name, fmt.Errorf("%w: %v", ErrBackendUnavailable, runErr), "")
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return invocationError(r.name, context.DeadlineExceeded, fmt.Sprintf("timed out after %s", r.timeout))
		}
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = runErr.Error()
		}
		return invocationError(r.name, runErr, diag)
	}

	logger.WithFields(map[string]interface{}{
		"backend": r.name,
		"elapsed": time.Since(started).String(),
		"output":  params.OutputPath,
	}).Debugf("backend finished: %s", strings.TrimSpace(stdout.String()))
	return nil
}

// cappedBuffer keeps at most limit bytes. Past the limit it records the
// overflow, calls onOverflow once and keeps draining so the child never
// blocks on a full pipe.
type cappedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int
	overflow   bool
	onOverflow func()
}

func newCappedBuffer(limit int, onOverflow func()) *cappedBuffer {
	return &cappedBuffer{limit: limit, onOverflow: onOverflow}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overflow {
		return len(p), nil
	}
	if room := b.limit - b.buf.Len(); len(p) > room {
		b.buf.Write(p[:room])
		b.overflow = true
		if b.onOverflow != nil {
			b.onOverflow()
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
