package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"region-maptile/internal/tilestore"
)

func main() {
	dbPath := flag.String("db", "maptiles.db", "Tile database")
	exportDir := flag.String("export", "", "Write every stored tile into this directory")
	x := flag.Int("x", -1, "Region X for -get or -delete")
	y := flag.Int("y", -1, "Region Y for -get or -delete")
	get := flag.String("get", "", "Write the tile at -x,-y to this file")
	del := flag.Bool("delete", false, "Delete the tile at -x,-y")
	flag.Parse()

	store, err := tilestore.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(context.Background(), store, *exportDir, *get, *del, *x, *y); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, store *tilestore.Store, exportDir, get string, del bool, x, y int) error {
	switch {
	case del:
		if err := store.Delete(ctx, x, y); err != nil {
			return err
		}
		fmt.Printf("Deleted %d,%d\n", x, y)
		return nil
	case get != "":
		t, err := store.Get(ctx, x, y)
		if errors.Is(err, tilestore.ErrNotFound) {
			return fmt.Errorf("no tile for %d,%d", x, y)
		}
		if err != nil {
			return err
		}
		return os.WriteFile(get, t.Data, 0644)
	}

	list, err := store.List(ctx)
	if err != nil {
		return err
	}
	if exportDir == "" {
		for _, t := range list {
			fmt.Printf("%6d %6d  %-5s %8d bytes  %s\n", t.X, t.Y, t.Format, t.Size, t.RenderedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d tiles\n", len(list))
		return nil
	}

	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return err
	}
	for _, info := range list {
		t, err := store.Get(ctx, info.X, info.Y)
		if err != nil {
			return fmt.Errorf("get %d,%d: %w", info.X, info.Y, err)
		}
		name := filepath.Join(exportDir, fmt.Sprintf("%d_%d.%s", t.X, t.Y, t.Format))
		if err := os.WriteFile(name, t.Data, 0644); err != nil {
			return err
		}
	}
	fmt.Printf("Exported %d tiles to %s\n", len(list), exportDir)
	return nil
}
