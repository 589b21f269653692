// Command debugrun runs a small seeded grid for a fixed number of ticks,
// prints every tick and the final board, and writes the per-tick census to
// a single parquet file for inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/engine"
	"github.com/brensch/evoblock/grid"
	"github.com/brensch/evoblock/rules"
	"github.com/brensch/evoblock/store"
	"github.com/brensch/evoblock/viewer"
	"github.com/google/uuid"
)

func main() {
	width := flag.Int("width", 24, "Grid width")
	height := flag.Int("height", 12, "Grid height")
	ticks := flag.Uint64("ticks", 50, "Number of ticks to run")
	seed := flag.Uint64("seed", 1, "Random seed")
	initial := flag.Float64("initial", 0.2, "Fraction of cells seeded with organisms")
	variant := flag.String("variant", "blocks", "Rule variant: blocks or brain-only")
	outDir := flag.String("out-dir", "debug_runs", "Output directory for the census parquet file")
	boards := flag.Bool("boards", false, "Print the board after every tick, not just the last")
	flag.Parse()

	v, err := rules.ParseVariant(*variant)
	if err != nil {
		log.Fatalf("Bad variant: %v", err)
	}
	p := rules.DefaultParams()
	p.Variant = v

	eng, err := engine.New(engine.Config{
		Width:            *width,
		Height:           *height,
		Workers:          1,
		Seed:             *seed,
		Rules:            p,
		InitialOrganisms: *initial,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	runID := uuid.NewString()
	info := store.RunInfo{RunID: runID, Width: *width, Height: *height, Variant: v.String()}
	rows := make([]store.CensusRow, 0, *ticks)

	log.Printf("Debug run %s: %dx%d, %d ticks, seed %d, variant %s", runID, *width, *height, *ticks, *seed, v)

	printBoard := func(tick uint64) {
		eng.View(func(g *grid.Grid[cell.Cell]) {
			fmt.Print(viewer.Trace(tick, g))
		})
	}

	err = eng.Run(ctx, *ticks, func(st engine.Stats) {
		rows = append(rows, store.NewCensusRow(info, st, time.Now()))
		fmt.Printf("  Tick %4d | %3d organisms | %3d birth | %3d death | entered %d incubated %d obliterated %d\n",
			st.Tick, st.Census.Organisms, st.Census.BirthBlocks, st.Census.DeathBlocks,
			st.Events.Entered, st.Events.Incubated, st.Events.Obliterated)
		if *boards {
			printBoard(st.Tick)
		}
	})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	if !*boards {
		printBoard(eng.Ticks())
	}
	if len(rows) == 0 {
		log.Printf("No ticks ran; nothing written")
		return
	}

	path, err := store.WriteCensusBatch(*outDir, rows)
	if err != nil {
		log.Fatalf("Failed to write census: %v", err)
	}
	log.Printf("Census written to: %s (%d rows)", path, len(rows))
}
