// Package config holds map tile settings loaded from YAML and overridden
// by command-line flags.
package config

import (
	"runtime"

	"region-maptile/internal/maptile"
	"region-maptile/internal/terrain"
)

// ModuleName is the map image module this generator answers to.
const ModuleName = "MapImageModule"

// Config holds all configurable map tile settings.
type Config struct {
	Startup  StartupConfig  `yaml:"startup"`
	WorldMap WorldMapConfig `yaml:"world_map"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StartupConfig carries the legacy startup switches.
type StartupConfig struct {
	MapImageModule    string `yaml:"map_image_module"`
	DrawPrimOnMapTile *bool  `yaml:"draw_prim_on_map_tile,omitempty"`
	TextureOnMapTile  *bool  `yaml:"texture_on_map_tile,omitempty"`
}

// WorldMapConfig describes the tile itself. Its switches win over the
// startup ones when present.
type WorldMapConfig struct {
	DrawPrimOnMapTile  *bool    `yaml:"draw_prim_on_map_tile,omitempty"`
	TextureOnMapTile   *bool    `yaml:"texture_on_map_tile,omitempty"`
	RegionSize         float64  `yaml:"region_size"`
	TileSize           int      `yaml:"tile_size"`
	Format             string   `yaml:"format"`
	WaterHeight        float64  `yaml:"water_height"`
	TerrainTextures    []string `yaml:"terrain_textures,omitempty"`
	TerrainStartHeight float64  `yaml:"terrain_start_height"`
	TerrainHeightRange float64  `yaml:"terrain_height_range"`
}

// RenderConfig controls batch rendering.
type RenderConfig struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
	TileDB    string `yaml:"tile_db"`
}

// LoggingConfig selects the log level and optional log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with default values.
func Default() *Config {
	td := terrain.DefaultOptions()
	return &Config{
		Startup: StartupConfig{
			MapImageModule: ModuleName,
		},
		WorldMap: WorldMapConfig{
			RegionSize:         maptile.DefaultRegionSize,
			TileSize:           maptile.DefaultTileSize,
			Format:             "webp",
			WaterHeight:        td.WaterHeight,
			TerrainStartHeight: td.StartHeight,
			TerrainHeightRange: td.HeightRange,
		},
		Render: RenderConfig{
			Workers:   runtime.NumCPU(),
			OutputDir: "maptiles",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Enabled reports whether this generator is the configured map image
// module. An empty name counts as the default.
func (c *Config) Enabled() bool {
	return c.Startup.MapImageModule == "" || c.Startup.MapImageModule == ModuleName
}

// DrawPrimVolume reports whether object volumes go on the tile.
func (c *Config) DrawPrimVolume() bool {
	return pick(c.WorldMap.DrawPrimOnMapTile, c.Startup.DrawPrimOnMapTile, true)
}

// TextureTerrain reports whether terrain uses the textured renderer.
func (c *Config) TextureTerrain() bool {
	return pick(c.WorldMap.TextureOnMapTile, c.Startup.TextureOnMapTile, false)
}

func pick(primary, fallback *bool, def bool) bool {
	if primary != nil {
		return *primary
	}
	if fallback != nil {
		return *fallback
	}
	return def
}

// GeneratorOptions converts the world map settings for maptile.
func (c *Config) GeneratorOptions() maptile.Options {
	return maptile.Options{
		DrawObjectVolumes: c.DrawPrimVolume(),
		RegionSize:        c.WorldMap.RegionSize,
		TileSize:          c.WorldMap.TileSize,
	}
}

// TerrainOptions converts the world map settings for terrain.
func (c *Config) TerrainOptions() terrain.Options {
	opts := terrain.DefaultOptions()
	if c.WorldMap.RegionSize > 0 {
		opts.RegionSize = c.WorldMap.RegionSize
	}
	opts.WaterHeight = c.WorldMap.WaterHeight
	if c.WorldMap.TerrainHeightRange > 0 {
		opts.StartHeight = c.WorldMap.TerrainStartHeight
		opts.HeightRange = c.WorldMap.TerrainHeightRange
	}
	copy(opts.Textures[:], c.WorldMap.TerrainTextures)
	return opts
}
