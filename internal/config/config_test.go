package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Enabled() {
		t.Error("default config should enable the generator")
	}
	if !cfg.DrawPrimVolume() {
		t.Error("object volumes should be drawn by default")
	}
	if cfg.TextureTerrain() {
		t.Error("terrain textures should be off by default")
	}
	if cfg.WorldMap.RegionSize != 256 || cfg.WorldMap.TileSize != 256 {
		t.Errorf("expected 256/256, got %v/%d", cfg.WorldMap.RegionSize, cfg.WorldMap.TileSize)
	}
	if cfg.WorldMap.Format != "webp" {
		t.Errorf("expected webp, got %s", cfg.WorldMap.Format)
	}
	if cfg.WorldMap.WaterHeight != 20 {
		t.Errorf("expected water height 20, got %v", cfg.WorldMap.WaterHeight)
	}
	if cfg.Render.Workers <= 0 {
		t.Errorf("expected positive workers, got %d", cfg.Render.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maptile.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
world_map:
  format: png
  water_height: 5
render:
  tile_db: tiles.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorldMap.Format != "png" || cfg.WorldMap.WaterHeight != 5 {
		t.Errorf("file values not applied: %+v", cfg.WorldMap)
	}
	if cfg.WorldMap.TileSize != 256 {
		t.Errorf("missing key should keep default, got %d", cfg.WorldMap.TileSize)
	}
	if cfg.Render.TileDB != "tiles.db" {
		t.Errorf("tile_db = %q", cfg.Render.TileDB)
	}
}

func TestSwitchPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPrims   bool
		wantTexture bool
	}{
		{"defaults", ``, true, false},
		{"startup only", "startup:\n  draw_prim_on_map_tile: false\n  texture_on_map_tile: true\n", false, true},
		{"world map wins", "startup:\n  draw_prim_on_map_tile: false\nworld_map:\n  draw_prim_on_map_tile: true\n", true, false},
		{"world map only", "world_map:\n  texture_on_map_tile: true\n", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.DrawPrimVolume(); got != tt.wantPrims {
				t.Errorf("DrawPrimVolume = %v, want %v", got, tt.wantPrims)
			}
			if got := cfg.TextureTerrain(); got != tt.wantTexture {
				t.Errorf("TextureTerrain = %v, want %v", got, tt.wantTexture)
			}
			if got := cfg.GeneratorOptions().DrawObjectVolumes; got != tt.wantPrims {
				t.Errorf("GeneratorOptions().DrawObjectVolumes = %v", got)
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	cfg := Default()
	cfg.Startup.MapImageModule = "Warp3DImageModule"
	if cfg.Enabled() {
		t.Error("another image module should disable the generator")
	}
	cfg.Startup.MapImageModule = ""
	if !cfg.Enabled() {
		t.Error("empty module name should fall back to the default")
	}
}

func TestLoadMalformed(t *testing.T) {
	cfg, err := Load(writeConfig(t, "world_map: [not, a, map"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg == nil || cfg.WorldMap.Format != "webp" {
		t.Error("malformed config should still hand back defaults")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.WorldMap.TileSize = -1
	cfg.Render.Workers = 0
	cfg.Resolve(Flags{
		OutputDir: "out",
		Format:    "zraw",
		Workers:   3,
		NoPrims:   true,
		Textured:  true,
	})

	if cfg.Render.OutputDir != "out" || cfg.WorldMap.Format != "zraw" || cfg.Render.Workers != 3 {
		t.Errorf("flags not applied: %+v %+v", cfg.Render, cfg.WorldMap)
	}
	if cfg.WorldMap.TileSize != 256 {
		t.Errorf("invalid tile size should reset, got %d", cfg.WorldMap.TileSize)
	}
	if cfg.DrawPrimVolume() {
		t.Error("-no-prims should disable object volumes")
	}
	if !cfg.TextureTerrain() {
		t.Error("-textured should enable terrain textures")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "maptile.yaml")
	cfg := Default()
	on := true
	cfg.WorldMap.TextureOnMapTile = &on
	cfg.WorldMap.TerrainTextures = []string{"textures/sand.tga"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.TextureTerrain() || len(loaded.WorldMap.TerrainTextures) != 1 || loaded.TerrainOptions().Textures[0] != "textures/sand.tga" {
		t.Errorf("round trip lost values: %+v", loaded.WorldMap)
	}
}

func TestTerrainOptions(t *testing.T) {
	cfg := Default()
	cfg.WorldMap.WaterHeight = 0
	cfg.WorldMap.TerrainStartHeight = 5
	cfg.WorldMap.TerrainHeightRange = 40

	opts := cfg.TerrainOptions()
	if opts.WaterHeight != 0 || opts.StartHeight != 5 || opts.HeightRange != 40 || opts.RegionSize != 256 {
		t.Errorf("TerrainOptions = %+v", opts)
	}
}
