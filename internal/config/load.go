package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file over the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the config to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", path, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir string
	Format    string
	TileDB    string
	Workers   int
	NoPrims   bool
	Textured  bool
	LogLevel  string
}

// Resolve applies CLI flags and fills invalid values with defaults.
// Flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.Render.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.WorldMap.Format = flags.Format
	}
	if flags.TileDB != "" {
		c.Render.TileDB = flags.TileDB
	}
	if flags.Workers > 0 {
		c.Render.Workers = flags.Workers
	}
	if flags.NoPrims {
		off := false
		c.WorldMap.DrawPrimOnMapTile = &off
	}
	if flags.Textured {
		on := true
		c.WorldMap.TextureOnMapTile = &on
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}

	def := Default()
	if c.WorldMap.RegionSize <= 0 {
		c.WorldMap.RegionSize = def.WorldMap.RegionSize
	}
	if c.WorldMap.TileSize <= 0 {
		c.WorldMap.TileSize = def.WorldMap.TileSize
	}
	if c.WorldMap.Format == "" {
		c.WorldMap.Format = def.WorldMap.Format
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = def.Render.Workers
	}
	if c.Render.OutputDir == "" {
		c.Render.OutputDir = def.Render.OutputDir
	}
}
