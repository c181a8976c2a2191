package maptile

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"region-maptile/internal/encode"
	"region-maptile/internal/raster"
	"region-maptile/internal/scene"
	"region-maptile/internal/terrain"
)

// DefaultTileSize is the edge length of a map tile in pixels.
const DefaultTileSize = 256

var errNoEncoder = errors.New("maptile: no encoder configured")

// SnapshotSource yields a point-in-time copy of the region's entities.
type SnapshotSource interface {
	Snapshot() *scene.Snapshot
}

// Options configure a Generator.
type Options struct {
	DrawObjectVolumes bool
	RegionSize        float64
	TileSize          int
}

// DefaultOptions draws object volumes on a 256px tile of a 256m region.
func DefaultOptions() Options {
	return Options{
		DrawObjectVolumes: true,
		RegionSize:        DefaultRegionSize,
		TileSize:          DefaultTileSize,
	}
}

// Generator renders one region's map tile: terrain first, then object
// volumes, then encoding. A Generator may be shared between goroutines;
// each call works on its own buffer.
type Generator struct {
	opts    Options
	terrain terrain.Renderer
	volumes *VolumeRenderer
	encoder encode.Encoder
	log     *zap.Logger
}

// NewGenerator wires the stages together. terrainRenderer may be nil to
// leave the ground transparent.
func NewGenerator(opts Options, terrainRenderer terrain.Renderer, enc encode.Encoder, log *zap.Logger) *Generator {
	if opts.TileSize <= 0 {
		opts.TileSize = DefaultTileSize
	}
	if opts.RegionSize <= 0 {
		opts.RegionSize = DefaultRegionSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "maptile"))
	return &Generator{
		opts:    opts,
		terrain: terrainRenderer,
		volumes: NewVolumeRenderer(opts.RegionSize, log),
		encoder: enc,
		log:     log,
	}
}

// Draw renders terrain and object volumes into a new buffer. The caller
// owns the result and must Release it.
func (g *Generator) Draw(src SnapshotSource, height HeightFunc) (*raster.PixelBuffer, Stats) {
	buf := raster.NewPixelBuffer(g.opts.TileSize, g.opts.TileSize)
	if g.terrain != nil {
		g.terrain.Render(buf)
	}

	var stats Stats
	if g.opts.DrawObjectVolumes && src != nil {
		stats = g.volumes.Render(src.Snapshot(), buf, height)
	}
	return buf, stats
}

// Encode renders the tile and encodes it with the configured encoder.
func (g *Generator) Encode(src SnapshotSource, height HeightFunc) ([]byte, Stats, error) {
	buf, stats := g.Draw(src, height)
	defer buf.Release()

	if g.encoder == nil {
		return nil, stats, errNoEncoder
	}
	start := time.Now()
	data, err := g.encoder.Encode(buf)
	if err != nil {
		return nil, stats, fmt.Errorf("maptile: encode %s: %w", g.encoder.Format(), err)
	}
	g.log.Info("map tile encoded",
		zap.String("format", g.encoder.Format()),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, stats, nil
}

// Generate renders and encodes the tile. It returns nil when encoding
// fails; callers treat that as "tile unavailable".
func (g *Generator) Generate(src SnapshotSource, height HeightFunc) []byte {
	data, _, err := g.Encode(src, height)
	if err != nil {
		g.log.Error("failed generating map tile", zap.Error(err))
		return nil
	}
	return data
}
