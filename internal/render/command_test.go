package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/model"
)

const extractOutput = `out=$(printf '%s' "$PARAMS" | sed -n 's/.*"outputPath":"\([^"]*\)".*/\1/p')`

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "backend.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func shellRenderer(t *testing.T, dir, body, mode string, maxOutput int, timeout time.Duration) *CommandRenderer {
	t.Helper()
	return NewCommandRenderer(config.BackendConfig{
		Name:      "sh",
		Kind:      config.BackendCommand,
		Command:   "sh",
		Script:    writeScript(t, dir, body),
		ParamMode: mode,
	}, dir, maxOutput, timeout)
}

func testParams(dir string) model.RenderParams {
	return model.RenderParams{
		ChartType:  "bar",
		DataPath:   filepath.Join(dir, "data.json"),
		OutputPath: filepath.Join(dir, "chart_1.png"),
		XColumn:    "region",
		YColumn:    "amount",
		Title:      "Bar Chart",
	}
}

func TestCommandRendererFileMode(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	body := strings.Join([]string{
		`PARAMS=$(cat "$1")`,
		extractOutput,
		`cp "$1" "$(dirname "$out")/seen.json"`,
		`printf 'PNGDATA' > "$out"`,
		`echo "Chart created successfully: $out"`,
	}, "\n")
	r := shellRenderer(t, dir, body, config.ParamModeFile, 1<<20, 5*time.Second)

	p := testParams(dir)
	if err := attempt(context.Background(), r, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(p.OutputPath)
	if err != nil || string(data) != "PNGDATA" {
		t.Fatalf("output = %q, %v", data, err)
	}

	seen, err := os.ReadFile(filepath.Join(dir, "seen.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got model.RenderParams
	if err := json.Unmarshal(seen, &got); err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("backend saw %+v, want %+v", got, p)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "params_*.json"))
	if len(leftovers) != 0 {
		t.Errorf("params file not cleaned up: %v", leftovers)
	}
}

func TestCommandRendererArgMode(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	body := strings.Join([]string{
		`PARAMS="$1"`,
		extractOutput,
		`printf 'PNGDATA' > "$out"`,
	}, "\n")
	r := shellRenderer(t, dir, body, config.ParamModeArg, 1<<20, 5*time.Second)

	if err := attempt(context.Background(), r, testParams(dir)); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestCommandRendererNonZeroExit(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := shellRenderer(t, dir, "echo \"Error: column 'amount' not found\" >&2\nexit 3\n", config.ParamModeFile, 1<<20, 5*time.Second)

	err := r.Render(context.Background(), testParams(dir))
	var inv *BackendInvocationError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want *BackendInvocationError", err)
	}
	if !strings.Contains(inv.Diagnostic, "column 'amount' not found") {
		t.Errorf("Diagnostic = %q, want stderr text", inv.Diagnostic)
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Error("a failing run is not an unavailable backend")
	}
}

func TestCommandRendererSuccessWithoutOutput(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := shellRenderer(t, dir, "exit 0\n", config.ParamModeFile, 1<<20, 5*time.Second)

	err := attempt(context.Background(), r, testParams(dir))
	if !errors.Is(err, ErrMissingOutput) {
		t.Errorf("err = %v, want ErrMissingOutput", err)
	}
}

func TestCommandRendererBufferOverflow(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := shellRenderer(t, dir, "head -c 8192 /dev/zero\n", config.ParamModeFile, 1024, 5*time.Second)

	err := r.Render(context.Background(), testParams(dir))
	if !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("err = %v, want ErrBufferOverflow", err)
	}
}

func TestCommandRendererTimeout(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := shellRenderer(t, dir, "exec sleep 5\n", config.ParamModeFile, 1024, 200*time.Millisecond)

	start := time.Now()
	err := r.Render(context.Background(), testParams(dir))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("timeout not enforced, took %s", time.Since(start))
	}
}

func TestCommandRendererUnavailable(t *testing.T) {
	dir := t.TempDir()

	missingBinary := NewCommandRenderer(config.BackendConfig{
		Name: "r", Kind: config.BackendCommand, Command: "chartkit-no-such-binary", ParamMode: config.ParamModeArg,
	}, dir, 1024, time.Second)
	if err := missingBinary.Render(context.Background(), testParams(dir)); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("missing binary: err = %v, want ErrBackendUnavailable", err)
	}

	missingScript := NewCommandRenderer(config.BackendConfig{
		Name: "python", Kind: config.BackendCommand, Command: "python", Script: filepath.Join(dir, "nope.py"), ParamMode: config.ParamModeFile,
	}, dir, 1024, time.Second)
	if err := missingScript.Render(context.Background(), testParams(dir)); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("missing script: err = %v, want ErrBackendUnavailable", err)
	}
}

func TestRenderParamsJSONFieldSet(t *testing.T) {
	blob, err := json.Marshal(model.RenderParams{ChartType: "pie", DataPath: "d.json", OutputPath: "o.png", XColumn: "x", Title: "Pie Chart"})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(blob, &fields); err != nil {
		t.Fatal(err)
	}
	want := []string{"chartType", "dataPath", "outputPath", "xColumn", "yColumn", "groupColumn", "title"}
	if len(fields) != len(want) {
		t.Errorf("contract has %d fields, want %d: %s", len(fields), len(want), blob)
	}
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			t.Errorf("contract missing %q: %s", k, blob)
		}
	}
}

func TestCappedBuffer(t *testing.T) {
	fired := 0
	b := newCappedBuffer(4, func() { fired++ })
	b.Write([]byte("ab"))
	b.Write([]byte("cdef"))
	b.Write([]byte("gh"))
	if !b.Overflowed() {
		t.Error("expected overflow")
	}
	if b.String() != "abcd" {
		t.Errorf("kept %q, want abcd", b.String())
	}
	if fired != 1 {
		t.Errorf("onOverflow fired %d times, want 1", fired)
	}
}
