package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestUniqueTimestampStrictlyIncreasing(t *testing.T) {
	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			prev := int64(0)
			for i := 0; i < perWorker; i++ {
				ts := UniqueTimestamp()
				if ts <= prev {
					t.Errorf("timestamp went backwards: %d after %d", ts, prev)
				}
				prev = ts
				local = append(local, ts)
			}
			mu.Lock()
			for _, ts := range local {
				if seen[ts] {
					t.Errorf("duplicate timestamp %d", ts)
				}
				seen[ts] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestUploadFilename(t *testing.T) {
	name := UploadFilename("Sales Report.CSV")
	if !strings.HasSuffix(name, ".csv") {
		t.Errorf("extension not normalized: %q", name)
	}
	if !strings.Contains(name, "-") {
		t.Errorf("expected <millis>-<random> form, got %q", name)
	}
	if UploadFilename("a.csv") == UploadFilename("a.csv") {
		t.Error("two upload names should differ")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := WriteFileAtomic(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestPNGDataURI(t *testing.T) {
	got := PNGDataURI([]byte{0x89, 'P', 'N', 'G'})
	if got != "data:image/png;base64,iVBORw==" {
		t.Errorf("PNGDataURI = %q", got)
	}
}
