package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/geneflank/internal/bed"
	"github.com/inodb/geneflank/internal/duckdb"
	"github.com/inodb/geneflank/internal/flank"
	"github.com/inodb/geneflank/internal/output"
)

// Config keys under the flank section.
const (
	keyBPLimit   = "flank.bp_limit"
	keyStream    = "flank.stream"
	keyPolicy    = "flank.policy"
	keyOutput    = "flank.output"
	keyWorkers   = "flank.workers"
	keyByChrom   = "flank.by_chrom"
	keySymmetric = "flank.symmetric_strand"
	keyDuckDB    = "flank.duckdb"
	keyVerbose   = "flank.verbose"
	keyFormat    = "flank.input_format"
)

// flankConfig is the resolved configuration of one flank run.
type flankConfig struct {
	input   string
	format  bed.Format
	output  string
	duckdb  string
	stream  flank.StreamMode
	workers int
	verbose bool
	opts    flank.Options
}

func newFlankCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flank [options] <input.bed> [output.bed [bp_limit [stream [policy]]]]",
		Short: "Compute gene flanks that stop at neighboring genes",
		Long: `Compute, for every gene in a BED file, the largest flank that can be added to
its 5' and/or 3' end without overlapping another gene, up to --bp-limit bases.

Input lines need at least 6 tab-separated columns:
  chrom  start  end  name  score  strand

GTF annotations (.gtf, .gtf.gz) are also accepted; their "gene" records are
used, named by gene_name or the unversioned gene_id.

Each flank is written as a BED line named <gene>_<5|3>_<distance>.`,
		Example: `  geneflank flank -l 2000 -s 5 genes.bed
  geneflank flank -l 2000 -s both -p any -o flanks.bed genes.bed
  geneflank flank genes.bed flanks.bed 2000 5 1    # positional form
  geneflank flank -l 5000 --duckdb flanks.duckdb genes.bed.gz
  geneflank flank -l 1000 -s both gencode.v44.annotation.gtf.gz`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 5)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlankFlags(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			applyPositional(v, args[1:])
			cfg, err := resolveFlankConfig(v, args[0])
			if err != nil {
				return err
			}
			logger := newLogger(stderr, cfg.verbose)
			defer logger.Sync()
			return runFlank(cfg, stdout, logger)
		},
	}

	f := cmd.Flags()
	f.Int64P("bp-limit", "l", 0, "Maximum flank length in bases (required)")
	f.StringP("stream", "s", "5", "Ends to extend: 5, 3 or both")
	f.StringP("policy", "p", "same", "Blocking neighbors: same (same strand, 1) or any (either strand, 2)")
	f.StringP("output", "o", "", "Output BED file (default: stdout)")
	f.IntP("workers", "w", 0, "Worker goroutines (0 = number of CPUs)")
	f.Bool("by-chrom", false, "Only let genes on the same chromosome block each other")
	f.Bool("symmetric-strand", false, "With --policy same, filter left-side neighbors by the gene's own strand")
	f.String("duckdb", "", "Also export flanks to this DuckDB database")
	f.BoolP("verbose", "v", false, "Verbose (debug) logging")
	f.String("input-format", "auto", "Input format: bed, gtf or auto (by file extension)")

	return cmd
}

// bindFlankFlags binds the flank flags to their config keys. Done at run
// time so the config command only sees values that were actually set.
func bindFlankFlags(v *viper.Viper, cmd *cobra.Command) error {
	f := cmd.Flags()
	for key, name := range map[string]string{
		keyBPLimit:   "bp-limit",
		keyStream:    "stream",
		keyPolicy:    "policy",
		keyOutput:    "output",
		keyWorkers:   "workers",
		keyByChrom:   "by-chrom",
		keySymmetric: "symmetric-strand",
		keyDuckDB:    "duckdb",
		keyVerbose:   "verbose",
		keyFormat:    "input-format",
	} {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// applyPositional maps the legacy positional form
// <output> <bp_limit> <stream> <policy> onto config keys.
func applyPositional(v *viper.Viper, rest []string) {
	keys := []string{keyOutput, keyBPLimit, keyStream, keyPolicy}
	for i, val := range rest {
		v.Set(keys[i], val)
	}
}

func resolveFlankConfig(v *viper.Viper, input string) (flankConfig, error) {
	cfg := flankConfig{
		input:   input,
		output:  v.GetString(keyOutput),
		duckdb:  v.GetString(keyDuckDB),
		workers: v.GetInt(keyWorkers),
		verbose: v.GetBool(keyVerbose),
	}

	limit, err := strconv.ParseInt(v.GetString(keyBPLimit), 10, 64)
	if err != nil || limit <= 0 {
		return cfg, usagef("bp limit must be a positive integer, got %q", v.GetString(keyBPLimit))
	}

	stream, err := flank.ParseStreamMode(v.GetString(keyStream))
	if err != nil {
		return cfg, &usageError{err: err}
	}
	policy, err := flank.ParseNeighborPolicy(v.GetString(keyPolicy))
	if err != nil {
		return cfg, &usageError{err: err}
	}
	format, err := bed.ParseFormat(v.GetString(keyFormat), input)
	if err != nil {
		return cfg, &usageError{err: err}
	}
	if cfg.workers < 0 {
		return cfg, usagef("workers must not be negative, got %d", cfg.workers)
	}

	cfg.stream = stream
	cfg.format = format
	cfg.opts = flank.Options{
		BPLimit:         limit,
		Policy:          policy,
		SymmetricStrand: v.GetBool(keySymmetric),
		ByChrom:         v.GetBool(keyByChrom),
	}
	return cfg, nil
}

func runFlank(cfg flankConfig, stdout io.Writer, logger *zap.Logger) error {
	logger.Info("loading intervals", zap.String("input", cfg.input), zap.Stringer("format", cfg.format))
	intervals, err := bed.LoadFile(cfg.input, cfg.format)
	if err != nil {
		var fe *bed.FormatError
		if errors.As(err, &fe) {
			logger.Error("malformed record",
				zap.Int("line", fe.Line),
				zap.String("hint", formatHint(cfg.format)))
		}
		return fmt.Errorf("load intervals: %w", err)
	}
	logger.Info("loaded intervals", zap.Int("count", len(intervals)))

	engine, err := flank.NewEngine(intervals, cfg.opts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	engine.SetLogger(logger)

	if engine.AsymmetricLeftRule() && hasStrand(intervals, bed.Plus) {
		logger.Warn("same-strand policy: only minus-strand genes block leftward flanks; use --symmetric-strand to filter by each gene's own strand")
	}

	genes, err := engine.ComputeAll(cfg.stream, cfg.workers)
	if err != nil {
		return err
	}

	if err := writeFlanks(cfg.output, genes, stdout); err != nil {
		return err
	}
	logger.Info("wrote flanks",
		zap.String("output", outputName(cfg.output)),
		zap.Int("genes", len(genes)),
		zap.String("stream", cfg.stream.String()),
		zap.String("policy", cfg.opts.Policy.String()),
		zap.Int64("bp_limit", cfg.opts.BPLimit))

	if cfg.duckdb != "" {
		if err := exportFlanks(cfg, genes, logger); err != nil {
			return err
		}
	}

	return nil
}

// writeFlanks writes every gene's flanks to path, or to stdout when path is
// empty or "-". A file is only created once everything has been written.
func writeFlanks(path string, genes []flank.Gene, stdout io.Writer) (err error) {
	var out io.Writer = stdout
	var file *output.AtomicFile
	if path != "" && path != "-" {
		file, err = output.CreateAtomic(path)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				file.Abort()
			}
		}()
		out = file
	}

	w := output.NewBEDWriter(out)
	for _, g := range genes {
		if err := w.WriteGene(g); err != nil {
			return fmt.Errorf("write flank: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if file != nil {
		return file.Commit()
	}
	return nil
}

func exportFlanks(cfg flankConfig, genes []flank.Gene, logger *zap.Logger) error {
	store, err := duckdb.Open(cfg.duckdb)
	if err != nil {
		return fmt.Errorf("open export database: %w", err)
	}
	defer store.Close()

	fp, err := duckdb.StatFile(cfg.input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	runID, err := store.BeginRun(duckdb.Run{
		Input:           fp,
		BPLimit:         cfg.opts.BPLimit,
		Stream:          cfg.stream.String(),
		Policy:          cfg.opts.Policy.String(),
		SymmetricStrand: cfg.opts.SymmetricStrand,
		ByChrom:         cfg.opts.ByChrom,
		IntervalCount:   int64(len(genes)),
	})
	if err != nil {
		return err
	}

	n, err := store.WriteGenes(runID, genes)
	if err != nil {
		return err
	}
	logger.Info("exported flanks", zap.String("duckdb", cfg.duckdb), zap.Int64("run_id", runID), zap.Int("rows", n))
	return nil
}

func hasStrand(intervals []bed.Interval, s bed.Strand) bool {
	for _, iv := range intervals {
		if iv.Strand == s {
			return true
		}
	}
	return false
}

func formatHint(f bed.Format) string {
	if f == bed.FormatGTF {
		return "line format: seqname source feature start end score strand frame attributes"
	}
	return "line format: chrom start end name score strand ..."
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
