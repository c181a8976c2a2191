package main

import (
	"flag"
	"fmt"
	"os"

	"region-maptile/internal/encode"
	"region-maptile/internal/maptile"
	"region-maptile/internal/scene"
	"region-maptile/internal/snapshotio"
	"region-maptile/internal/terrain"
)

func main() {
	preview := flag.String("png", "", "Also write the rendered tile as PNG to this path")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspectsnap [-png out.png] snapshot.json[.zst]")
		os.Exit(2)
	}

	file, err := snapshotio.Load(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	snap, err := file.Snapshot()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	hm := file.Heightmap()
	size := file.RegionSize()

	fmt.Printf("Region %d,%d size %.0fm, %d entities\n", file.Region.X, file.Region.Y, size, len(snap.Entities))

	counts := map[maptile.Reason]int{}
	for _, e := range snap.Entities {
		holder, ok := e.(scene.PartHolder)
		if !ok {
			fmt.Printf("  %s: not renderable (%T)\n", e.EntityID(), e)
			continue
		}
		for i, p := range holder.Parts() {
			reason, skip := maptile.Exclude(p, size, hm.Sample)
			counts[reason]++
			if skip {
				fmt.Printf("  %s[%d]: skipped (%s)\n", e.EntityID(), i, reason)
				continue
			}
			obb := maptile.BuildOBB(p.WorldPosition(), p.WorldRotation(), p.Scale)
			up := 0
			for _, u := range maptile.FacesUp(&obb) {
				if u {
					up++
				}
			}
			pos := p.WorldPosition()
			fmt.Printf("  %s[%d]: drawn at (%.1f, %.1f, %.1f), top %.1f, %d faces up\n",
				e.EntityID(), i, pos[0], pos[1], pos[2], maptile.SortKey(&obb), up)
		}
	}

	fmt.Println("Summary:")
	for r := maptile.Drawn; r <= maptile.ReasonTooHigh; r++ {
		if counts[r] > 0 {
			fmt.Printf("  %-14s %d\n", r, counts[r])
		}
	}

	if *preview == "" {
		return
	}
	opts := maptile.DefaultOptions()
	opts.RegionSize = size
	topts := terrain.DefaultOptions()
	topts.RegionSize = size
	gen := maptile.NewGenerator(opts, terrain.NewShadedRenderer(hm, topts), encode.PNG{}, nil)
	data, stats, err := gen.Encode(snap, hm.Sample)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*preview, data, 0644); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Preview: %s (%d faces, %s)\n", *preview, stats.Faces, stats.Elapsed)
}
