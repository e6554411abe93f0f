package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"chartkit-backend/internal/model"
)

// fakeRenderer records every call. With fail set it returns that error; with
// skipOutput it reports success without writing the file. With partial set
// it writes the file before returning fail.
type fakeRenderer struct {
	name       string
	fail       error
	skipOutput bool
	partial    bool

	mu    sync.Mutex
	calls []model.RenderParams
}

func (f *fakeRenderer) Name() string { return f.name }

func (f *fakeRenderer) Render(ctx context.Context, p model.RenderParams) error {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	if f.partial {
		os.WriteFile(p.OutputPath, []byte("\x89PNG-partial-"+f.name), 0o644)
	}
	if f.fail != nil {
		return f.fail
	}
	if f.skipOutput {
		return nil
	}
	return os.WriteFile(p.OutputPath, []byte("\x89PNG-"+f.name), 0o644)
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func barRequest(usePrimary bool) model.ChartRequest {
	return model.ChartRequest{
		ChartType:  "bar",
		DataPath:   "uploads/data/sales.json",
		XColumn:    "region",
		YColumn:    "amount",
		Title:      "Bar Chart",
		UsePrimary: usePrimary,
	}
}

func TestDispatchPrimarySuccess(t *testing.T) {
	primary := &fakeRenderer{name: "r"}
	fallback := &fakeRenderer{name: "python"}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	res, err := d.Dispatch(context.Background(), barRequest(true))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if primary.count() != 1 || fallback.count() != 0 {
		t.Errorf("calls primary=%d fallback=%d, want 1/0", primary.count(), fallback.count())
	}
	if res.Backend != "r" || res.ChartType != "bar" {
		t.Errorf("result = %+v", res)
	}
	if !strings.HasPrefix(res.DataURI, "data:image/png;base64,") {
		t.Errorf("DataURI = %q", res.DataURI)
	}
	base := filepath.Base(res.OutputPath)
	if !strings.HasPrefix(base, "chart_") || filepath.Ext(base) != ".png" {
		t.Errorf("OutputPath = %q, want chart_<timestamp>.png", res.OutputPath)
	}
}

func TestDispatchPrimaryFailureFallsBackOnce(t *testing.T) {
	primary := &fakeRenderer{name: "r", fail: invocationError("r", errors.New("exit status 1"), "R error")}
	fallback := &fakeRenderer{name: "python"}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	res, err := d.Dispatch(context.Background(), barRequest(true))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if primary.count() != 1 {
		t.Errorf("primary called %d times, want 1", primary.count())
	}
	if fallback.count() != 1 {
		t.Fatalf("fallback called %d times, want 1", fallback.count())
	}
	if primary.calls[0] != fallback.calls[0] {
		t.Errorf("fallback got different params:\n primary %+v\nfallback %+v", primary.calls[0], fallback.calls[0])
	}
	if res.Backend != "python" {
		t.Errorf("Backend = %q, want python", res.Backend)
	}
}

func TestDispatchMissingOutputTriggersFallback(t *testing.T) {
	primary := &fakeRenderer{name: "r", skipOutput: true}
	fallback := &fakeRenderer{name: "python"}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	if _, err := d.Dispatch(context.Background(), barRequest(true)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fallback.count() != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.count())
	}
}

func TestDispatchBothFail(t *testing.T) {
	primary := &fakeRenderer{name: "r", fail: invocationError("r", errors.New("exit status 1"), "primary diagnostic")}
	fallback := &fakeRenderer{name: "python", fail: invocationError("python", errors.New("exit status 1"), "KeyError: 'amount'")}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	_, err := d.Dispatch(context.Background(), barRequest(true))
	if err == nil {
		t.Fatal("expected error")
	}
	var inv *BackendInvocationError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %T, want *BackendInvocationError", err)
	}
	if inv.Backend != "python" {
		t.Errorf("Backend = %q, want python", inv.Backend)
	}
	if !strings.Contains(err.Error(), "KeyError") || strings.Contains(err.Error(), "primary diagnostic") {
		t.Errorf("error should reference the fallback only: %v", err)
	}
	if primary.count() != 1 || fallback.count() != 1 {
		t.Errorf("calls primary=%d fallback=%d, want 1/1", primary.count(), fallback.count())
	}
}

func TestDispatchWithoutPrimaryOptIn(t *testing.T) {
	primary := &fakeRenderer{name: "r"}
	fallback := &fakeRenderer{name: "python", fail: invocationError("python", errors.New("exit status 2"), "boom")}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	_, err := d.Dispatch(context.Background(), barRequest(false))
	if err == nil {
		t.Fatal("fallback failure should be terminal")
	}
	if primary.count() != 0 {
		t.Errorf("primary called %d times without opt-in", primary.count())
	}
	if fallback.count() != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.count())
	}
}

func TestFallbackSkipsUnavailablePrimary(t *testing.T) {
	primary := &fakeRenderer{name: "r", fail: invocationError("r", ErrBackendUnavailable, "")}
	fallback := &fakeRenderer{name: "python"}
	f := NewFallbackRenderer(primary, fallback, time.Minute)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	dir := t.TempDir()
	render := func(i int) {
		t.Helper()
		p := BuildParams(barRequest(true), filepath.Join(dir, "out.png"))
		if _, err := f.RenderWith(context.Background(), p); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	render(1)
	render(2)
	if primary.count() != 1 {
		t.Errorf("primary called %d times within TTL, want 1", primary.count())
	}

	now = now.Add(2 * time.Minute)
	render(3)
	if primary.count() != 2 {
		t.Errorf("primary should be retried after TTL, calls = %d", primary.count())
	}
	if fallback.count() != 3 {
		t.Errorf("fallback calls = %d, want 3", fallback.count())
	}
}

func TestFallbackDoesNotCacheRequestFailures(t *testing.T) {
	primary := &fakeRenderer{name: "r", fail: invocationError("r", errors.New("exit status 1"), "bad column")}
	fallback := &fakeRenderer{name: "python"}
	f := NewFallbackRenderer(primary, fallback, time.Minute)

	p := BuildParams(barRequest(true), filepath.Join(t.TempDir(), "out.png"))
	for i := 0; i < 3; i++ {
		if err := f.Render(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}
	if primary.count() != 3 {
		t.Errorf("primary calls = %d, want 3", primary.count())
	}
}

func TestBuildParamsFieldSet(t *testing.T) {
	p := BuildParams(model.ChartRequest{ChartType: "pie", DataPath: "d.json", XColumn: "x", Title: "Pie Chart"}, "temp/chart_1.png")
	want := model.RenderParams{ChartType: "pie", DataPath: "d.json", OutputPath: "temp/chart_1.png", XColumn: "x", Title: "Pie Chart"}
	if p != want {
		t.Errorf("BuildParams = %+v, want %+v", p, want)
	}
}

func TestDispatchFallbackCannotReusePrimaryLeftover(t *testing.T) {
	primary := &fakeRenderer{name: "r", partial: true, fail: errors.New("exit status 1")}
	fallback := &fakeRenderer{name: "python", skipOutput: true}
	d := NewDispatcher(primary, fallback, t.TempDir(), time.Minute)

	res, err := d.Dispatch(context.Background(), barRequest(true))
	if !errors.Is(err, ErrMissingOutput) {
		t.Fatalf("Dispatch = %+v, %v; want ErrMissingOutput", res, err)
	}
	var berr *BackendInvocationError
	if !errors.As(err, &berr) || berr.Backend != "python" {
		t.Errorf("err = %v, want python invocation error", err)
	}
	if primary.count() != 1 || fallback.count() != 1 {
		t.Errorf("calls primary=%d fallback=%d, want 1/1", primary.count(), fallback.count())
	}
}
