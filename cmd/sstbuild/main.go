package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lsmkit/tablebuilder/pkg/config"
	"github.com/lsmkit/tablebuilder/pkg/log"
	"github.com/lsmkit/tablebuilder/table"
)

var (
	configPath string
	inputPath  string
	outputName string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sstbuild",
		Short: "Builds an immutable sorted-string table from a sorted record stream",
		RunE:  runBuild,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "./conf/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a newline-delimited key\\tvalue record file, sorted by key (stdin if empty)")
	rootCmd.Flags().StringVarP(&outputName, "output", "o", "output.sst", "Name of the table file to write, relative to the configured output directory")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runBuild(_ *cobra.Command, _ []string) error {
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg := config.GetConfig()

	log.Init(cfg.Log)

	in := os.Stdin
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	if err := os.MkdirAll(cfg.Table.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(cfg.Table.OutputDir, outputName)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	opts := optionsFromConfig(cfg.Table)
	sink := table.NewFileSink(out)
	builder := table.NewBuilder(opts, sink)

	n, err := loadRecords(in, builder)
	if err != nil {
		if abErr := builder.Abandon(); abErr != nil {
			log.Errorf("Failed to abandon builder: %v", abErr)
		}
		return fmt.Errorf("failed to load records: %w", err)
	}

	if err := builder.Finish(); err != nil {
		return fmt.Errorf("failed to finish table: %w", err)
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("failed to flush table file: %w", err)
	}

	log.Infof("Wrote %s: %d records, %d bytes", outPath, n, builder.FileSize())
	return nil
}

// loadRecords feeds tab-separated key/value lines from r into builder, in
// order, returning the number of records added.
func loadRecords(r *os.File, builder *table.Builder) (uint64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var n uint64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			return n, fmt.Errorf("malformed record line %q: missing tab separator", line)
		}
		if err := builder.Add([]byte(key), []byte(value)); err != nil {
			return n, fmt.Errorf("failed to add record %q: %w", key, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to read input: %w", err)
	}
	return n, nil
}

func optionsFromConfig(tc config.TableConfig) *table.Options {
	opts := table.DefaultOptions()
	if tc.BlockSize > 0 {
		opts.BlockSize = tc.BlockSize
	}
	if tc.BlockRestartInterval > 0 {
		opts.BlockRestartInterval = tc.BlockRestartInterval
	}
	switch tc.Compression {
	case "none":
		opts.Compression = table.NoCompression
	default:
		opts.Compression = table.SnappyCompression
	}
	if tc.FilterBitsPerKey > 0 {
		opts.FilterPolicy = table.NewBloomFilterPolicy(tc.FilterBitsPerKey)
	} else {
		opts.FilterPolicy = nil
	}
	return opts
}
