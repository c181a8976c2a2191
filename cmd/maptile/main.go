package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"region-maptile/internal/batch"
	"region-maptile/internal/config"
	"region-maptile/internal/encode"
	"region-maptile/internal/logger"
	"region-maptile/internal/texture"
	"region-maptile/internal/tilestore"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to YAML config file")
	outputDir := flag.String("output", "", "Output directory (default: maptiles)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	format := flag.String("format", "", "Tile format: webp, png or zraw (default: webp)")
	dbPath := flag.String("db", "", "Also store tiles in this SQLite database")
	noPrims := flag.Bool("no-prims", false, "Do not draw object volumes")
	textured := flag.Bool("textured", false, "Use terrain textures")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] snapshot.json[.zst]...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.Parse()

	// Load config; a broken file falls back to defaults.
	cfg := config.Default()
	var cfgErr error
	if *configFile != "" {
		cfg, cfgErr = config.Load(*configFile)
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		Format:    *format,
		TileDB:    *dbPath,
		Workers:   *workers,
		NoPrims:   *noPrims,
		Textured:  *textured,
		LogLevel:  *logLevel,
	})

	var fileCfg logger.FileConfig
	if cfg.Logging.File != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.File)
	}
	log, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: fileCfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	if cfgErr != nil {
		log.Warn("failed to load config, using defaults", zap.Error(cfgErr))
	}
	if !cfg.Enabled() {
		log.Info("map image module not selected, nothing to do", zap.String("module", cfg.Startup.MapImageModule))
		return
	}

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	enc, err := encode.ByName(cfg.WorldMap.Format)
	if err != nil {
		log.Error("bad tile format", zap.Error(err))
		os.Exit(1)
	}

	var store *tilestore.Store
	if cfg.Render.TileDB != "" {
		store, err = tilestore.Open(cfg.Render.TileDB)
		if err != nil {
			log.Error("cannot open tile database", zap.Error(err))
			os.Exit(1)
		}
		defer store.Close()
	}

	if err := os.MkdirAll(cfg.Render.OutputDir, 0755); err != nil {
		log.Error("cannot create output directory", zap.Error(err))
		os.Exit(1)
	}

	log.Info("rendering map tiles",
		zap.Int("snapshots", len(paths)),
		zap.Int("workers", cfg.Render.Workers),
		zap.String("format", enc.Format()),
		zap.Bool("draw_prims", cfg.DrawPrimVolume()),
		zap.Bool("textured", cfg.TextureTerrain()),
		zap.String("output", cfg.Render.OutputDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	batchCfg := batch.Config{
		OutputDir: cfg.Render.OutputDir,
		Tile:      cfg.GeneratorOptions(),
		Terrain:   cfg.TerrainOptions(),
		Textured:  cfg.TextureTerrain(),
		Textures:  texture.NewCache(log),
		Encoder:   enc,
		Workers:   cfg.Render.Workers,
		Log:       log,
	}
	if store != nil {
		batchCfg.Store = store
	}

	start := time.Now()
	results := batch.Run(ctx, batchCfg, paths)

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			continue
		}
		failed++
		if failed <= 20 {
			log.Warn("not rendered", zap.String("source", r.Source), zap.String("error", r.Error))
		}
	}
	log.Info("done",
		zap.Int("rendered", success),
		zap.Int("total", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	// Write manifest
	manifestPath := filepath.Join(cfg.Render.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		log.Warn("manifest write failed", zap.Error(err))
	} else {
		log.Info("manifest written", zap.String("path", manifestPath))
	}

	if failed > 0 {
		logger.Sync(log)
		os.Exit(1)
	}
}
