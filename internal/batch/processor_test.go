package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"region-maptile/internal/encode"
	"region-maptile/internal/maptile"
	"region-maptile/internal/raster"
	"region-maptile/internal/snapshotio"
	"region-maptile/internal/terrain"
	"region-maptile/internal/tilestore"
)

type memSink struct {
	mu    sync.Mutex
	tiles map[[2]int]tilestore.Tile
}

func (m *memSink) Put(_ context.Context, t tilestore.Tile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tiles == nil {
		m.tiles = make(map[[2]int]tilestore.Tile)
	}
	m.tiles[[2]int{t.X, t.Y}] = t
	return nil
}

func writeSnapshot(t *testing.T, dir string, x, y int) string {
	t.Helper()
	ground := 21.0
	f := &snapshotio.File{
		Region:  snapshotio.Region{X: x, Y: y},
		Terrain: snapshotio.Terrain{Flat: &ground},
		Entities: []snapshotio.Entity{{
			Type:     snapshotio.TypeObject,
			ID:       "cube",
			Position: [3]float64{128, 128, 25},
			Parts: []snapshotio.Part{{
				Scale: [3]float64{4, 4, 4},
				Color: []float64{1, 0, 0},
			}},
		}},
	}
	path := filepath.Join(dir, "snap", filepath.Base(t.Name())+"_"+strconv.Itoa(x)+"_"+strconv.Itoa(y)+".json")
	if err := snapshotio.Save(path, f); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func testConfig(t *testing.T, out string) Config {
	return Config{
		OutputDir: out,
		Tile:      maptile.DefaultOptions(),
		Terrain:   terrain.DefaultOptions(),
		Encoder:   encode.ZRaw{},
		Workers:   3,
		Log:       zaptest.NewLogger(t),
	}
}

func TestRunRendersTiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tiles")
	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, writeSnapshot(t, dir, 1000+i, 1000))
	}

	sink := &memSink{}
	cfg := testConfig(t, out)
	cfg.Store = sink
	results := Run(context.Background(), cfg, paths)

	if len(results) != len(paths) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("result %d failed: %s", i, r.Error)
		}
		if r.Source != paths[i] || r.X != 1000+i {
			t.Errorf("result %d out of order: %+v", i, r)
		}
		if r.Drawn != 1 || r.Faces != 1 {
			t.Errorf("result %d stats: drawn %d faces %d", i, r.Drawn, r.Faces)
		}

		data, err := os.ReadFile(filepath.Join(out, OutputName(r.X, r.Y, encode.ZRaw{})))
		if err != nil {
			t.Fatalf("tile file: %v", err)
		}
		buf, err := encode.DecodeZRaw(data)
		if err != nil {
			t.Fatalf("DecodeZRaw: %v", err)
		}
		if got := buf.At(128, 128); got != raster.RGB(255, 0, 0) {
			t.Errorf("tile %d centre = %#x, want red", i, got)
		}
		if got := buf.At(5, 5); got == 0 {
			t.Errorf("tile %d should have terrain under the objects", i)
		}
	}

	if len(sink.tiles) != len(paths) {
		t.Errorf("store got %d tiles, want %d", len(sink.tiles), len(paths))
	}
	if tile := sink.tiles[[2]int{1002, 1000}]; tile.Format != "zraw" || tile.Drawn != 1 {
		t.Errorf("stored tile = %+v", tile)
	}
}

func TestRunReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeSnapshot(t, dir, 1, 1)
	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(bad, []byte(`{"version": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.json")

	results := Run(context.Background(), testConfig(t, dir), []string{good, bad, missing})
	if !results[0].Success {
		t.Errorf("good file failed: %s", results[0].Error)
	}
	for _, r := range results[1:] {
		if r.Success || r.Error == "" {
			t.Errorf("%s should fail with an error, got %+v", r.Source, r)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, 2, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, testConfig(t, dir), []string{path, path})
	for _, r := range results {
		if r.Success {
			t.Error("canceled run should not render")
		}
	}
}

func TestRunWithSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	store, err := tilestore.Open(filepath.Join(dir, "tiles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	cfg := testConfig(t, filepath.Join(dir, "out"))
	cfg.Encoder = encode.PNG{}
	cfg.Store = store
	results := Run(context.Background(), cfg, []string{writeSnapshot(t, dir, 7, 9)})
	if !results[0].Success {
		t.Fatalf("render failed: %s", results[0].Error)
	}

	tile, err := store.Get(context.Background(), 7, 9)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tile.Format != "png" || len(tile.Data) != results[0].Bytes {
		t.Errorf("stored tile = %s %d bytes, want png %d", tile.Format, len(tile.Data), results[0].Bytes)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	results := []Result{
		{Source: "a.json", X: 1, Y: 2, Output: filepath.Join(dir, "1_2.webp"), Bytes: 10, Success: true},
		{Source: "b.json", Error: "boom"},
	}
	path := filepath.Join(dir, "manifest.json")
	if err := WriteManifest(path, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Image != "1_2.webp" || entries[0].X != 1 {
		t.Errorf("manifest = %+v", entries)
	}
}
