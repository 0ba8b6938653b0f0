package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pigdbc/dat-conditional-updater/internal/fixture"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/writer"
)

var (
	fixtureRecordSize int
	fixtureRandom     int
	fixtureSeed       uint64
	fixtureMatchPct   float64
	fixtureUnknownPct float64
)

func init() {
	cmd := newFixtureCmd()
	cmd.Flags().IntVar(&fixtureRecordSize, "record-size", format.DefaultRecordSize, "Bytes per record")
	cmd.Flags().IntVar(&fixtureRandom, "random", 0, "Generate N random records instead of the reference file")
	cmd.Flags().Uint64Var(&fixtureSeed, "seed", 0, "Seed for --random (0 = random)")
	cmd.Flags().Float64Var(&fixtureMatchPct, "match-pct", 0.3, "Share of random data records that match Rule-1")
	cmd.Flags().Float64Var(&fixtureUnknownPct, "unknown-pct", 0, "Share of random records with an unknown marker")
	rootCmd.AddCommand(cmd)
}

func newFixtureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture <path>",
		Short: "Write a test record file",
		Long: `The fixture command writes the 5-record reference file matching
testdata/config.ini, or a seeded random file with --random.

Example:
  datctl fixture in/data.dat
  datctl fixture in/big.dat --random 100000 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(args)
		},
	}
	return cmd
}

func runFixture(args []string) error {
	path := args[0]
	s := format.DefaultSettings()
	s.RecordSize = fixtureRecordSize

	var (
		data []byte
		err  error
	)
	if fixtureRandom > 0 {
		data, err = fixture.Random(fixture.Profile{
			Records:    fixtureRandom,
			Settings:   s,
			MatchPct:   fixtureMatchPct,
			UnknownPct: fixtureUnknownPct,
			Seed:       fixtureSeed,
		})
	} else {
		data, err = fixture.Reference(s)
	}
	if err != nil {
		return fmt.Errorf("failed to build fixture: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := writer.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}

	records := len(data) / s.RecordSize
	if jsonOut {
		return printJSON(map[string]interface{}{
			"path":        path,
			"records":     records,
			"record_size": s.RecordSize,
			"bytes":       len(data),
		})
	}
	printInfo("%s Created %s with %d records (%d bytes, %s)\n",
		styled(successStyle, "✓"), path, records, len(data), humanize.Bytes(uint64(len(data))))
	if fixtureRandom == 0 {
		printVerbose("  Records 2,3: match Rule-1 (Byte50='02' AND Byte78='534')\n")
		printVerbose("  Record 4: matches Rule-2 (Byte234='99')\n")
	}
	return nil
}
