package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/evoblock/engine"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const censusSchema = "census_row_v1"

// CensusRow is one sampled tick of a run. Rows are telemetry only; nothing
// in the simulator reads them back.
type CensusRow struct {
	RunID     string `parquet:"run_id,dict"`
	Tick      int64  `parquet:"tick"`
	UnixNano  int64  `parquet:"unix_nano"`
	TickMicro int64  `parquet:"tick_us"`
	Width     int32  `parquet:"width"`
	Height    int32  `parquet:"height"`
	Variant   string `parquet:"variant,dict"`

	Organisms    int64 `parquet:"organisms"`
	BirthBlocks  int64 `parquet:"birth_blocks"`
	DeathBlocks  int64 `parquet:"death_blocks"`
	Empty        int64 `parquet:"empty"`
	HoldingBirth int64 `parquet:"holding_birth"`
	HoldingDeath int64 `parquet:"holding_death"`

	Entered          int64 `parquet:"entered"`
	Refused          int64 `parquet:"refused"`
	Incubated        int64 `parquet:"incubated"`
	Dropped          int64 `parquet:"dropped"`
	Destroyed        int64 `parquet:"destroyed"`
	Obliterated      int64 `parquet:"obliterated"`
	SpawnedOrganisms int64 `parquet:"spawned_organisms"`
	SpawnedBirths    int64 `parquet:"spawned_births"`
	SpawnedDeaths    int64 `parquet:"spawned_deaths"`
	Mutated          int64 `parquet:"mutated"`
}

// RunInfo is the per-run part of every row.
type RunInfo struct {
	RunID   string
	Width   int
	Height  int
	Variant string
}

func NewCensusRow(run RunInfo, st engine.Stats, at time.Time) CensusRow {
	return CensusRow{
		RunID:     run.RunID,
		Tick:      int64(st.Tick),
		UnixNano:  at.UnixNano(),
		TickMicro: st.Duration.Microseconds(),
		Width:     int32(run.Width),
		Height:    int32(run.Height),
		Variant:   run.Variant,

		Organisms:    st.Census.Organisms,
		BirthBlocks:  st.Census.BirthBlocks,
		DeathBlocks:  st.Census.DeathBlocks,
		Empty:        st.Census.Empty,
		HoldingBirth: st.Census.HoldingBirth,
		HoldingDeath: st.Census.HoldingDeath,

		Entered:          st.Events.Entered,
		Refused:          st.Events.Refused,
		Incubated:        st.Events.Incubated,
		Dropped:          st.Events.Dropped,
		Destroyed:        st.Events.Destroyed,
		Obliterated:      st.Events.Obliterated,
		SpawnedOrganisms: st.Events.SpawnedOrganisms,
		SpawnedBirths:    st.Events.SpawnedBirths,
		SpawnedDeaths:    st.Events.SpawnedDeaths,
		Mutated:          st.Events.Mutated,
	}
}

// WriteCensusBatch writes rows into outDir/tmp and then atomically moves the
// file into outDir, so readers never observe a partial file.
func WriteCensusBatch(outDir string, rows []CensusRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no census rows to write")
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("census_%s_%010d.parquet", rows[0].RunID, rows[0].Tick)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", censusSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
