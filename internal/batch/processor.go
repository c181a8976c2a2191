// Package batch renders many region snapshot files to map tiles on a
// worker pool.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"region-maptile/internal/encode"
	"region-maptile/internal/maptile"
	"region-maptile/internal/snapshotio"
	"region-maptile/internal/terrain"
	"region-maptile/internal/texture"
	"region-maptile/internal/tilestore"
)

// TileSink receives every tile a run renders.
type TileSink interface {
	Put(ctx context.Context, t tilestore.Tile) error
}

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Tile      maptile.Options
	Terrain   terrain.Options
	Textured  bool
	Textures  texture.Resolver
	Encoder   encode.Encoder

	// Store is optional; nil writes files only.
	Store TileSink

	Workers          int
	ProgressInterval time.Duration
	Log              *zap.Logger
}

// Result holds the outcome of processing one snapshot file.
type Result struct {
	Source  string
	X, Y    int
	Output  string
	Bytes   int
	Drawn   int
	Faces   int
	Success bool
	Error   string
}

// Run renders every path using a worker pool. Results are in input order.
// Files not yet started when ctx is done are reported as failed.
func Run(ctx context.Context, cfg Config, paths []string) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 2 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	log := cfg.Log.With(zap.String("component", "batch"))

	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		ticker := time.NewTicker(cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("batch progress", zap.Int64("done", p), zap.Int("total", total), zap.Float64("tiles_per_sec", rate))
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Source: paths[idx], Error: err.Error()}
				} else {
					results[idx] = processFile(ctx, cfg, log, paths[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	<-reporterDone

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.Info("batch finished",
		zap.Int("total", total),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

// OutputName is the tile file name for region (x, y).
func OutputName(x, y int, enc encode.Encoder) string {
	return fmt.Sprintf("%d_%d%s", x, y, enc.Ext())
}

func processFile(ctx context.Context, cfg Config, log *zap.Logger, path string) Result {
	res := Result{Source: path}
	fail := func(err error) Result {
		res.Error = err.Error()
		log.Warn("tile failed", zap.String("source", path), zap.Error(err))
		return res
	}

	file, err := snapshotio.Load(path)
	if err != nil {
		return fail(err)
	}
	res.X, res.Y = file.Region.X, file.Region.Y

	snap, err := file.Snapshot()
	if err != nil {
		return fail(fmt.Errorf("%s: %w", path, err))
	}
	if cfg.Encoder == nil {
		return fail(fmt.Errorf("batch: no encoder configured"))
	}

	hm := file.Heightmap()
	tileOpts := cfg.Tile
	tileOpts.RegionSize = file.RegionSize()
	terrainOpts := cfg.Terrain
	terrainOpts.RegionSize = file.RegionSize()

	gen := maptile.NewGenerator(
		tileOpts,
		terrain.NewRenderer(cfg.Textured, hm, terrainOpts, cfg.Textures),
		cfg.Encoder,
		log.With(zap.Int("x", res.X), zap.Int("y", res.Y)),
	)
	data, stats, err := gen.Encode(snap, hm.Sample)
	if err != nil {
		return fail(err)
	}
	res.Bytes = len(data)
	res.Drawn = stats.Drawn
	res.Faces = stats.Faces

	res.Output = filepath.Join(cfg.OutputDir, OutputName(res.X, res.Y, cfg.Encoder))
	if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(res.Output, data, 0644); err != nil {
		return fail(err)
	}

	if cfg.Store != nil {
		err := cfg.Store.Put(ctx, tilestore.Tile{
			X:      res.X,
			Y:      res.Y,
			Format: cfg.Encoder.Format(),
			Data:   data,
			Drawn:  stats.Drawn,
			Faces:  stats.Faces,
		})
		if err != nil {
			return fail(err)
		}
	}

	res.Success = true
	return res
}
