package flank

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/geneflank/internal/bed"
)

// progressEvery is how many genes are collected between progress logs.
const progressEvery = 2000

type slot struct {
	part *partition
	pos  int
}

// Engine answers flank distance queries over a fixed, start-sorted set of
// intervals. It is safe for concurrent use once built.
type Engine struct {
	intervals []bed.Interval
	opts      Options
	slots     []slot
	logger    *zap.Logger
}

// NewEngine indexes intervals, which must already be sorted by start
// (see bed.SortByStart). The slice must not be modified afterwards.
func NewEngine(intervals []bed.Interval, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !slices.IsSortedFunc(intervals, func(a, b bed.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	}) {
		return nil, ErrUnsorted
	}

	e := &Engine{
		intervals: intervals,
		opts:      opts,
		slots:     make([]slot, len(intervals)),
		logger:    zap.NewNop(),
	}

	parts := make(map[string]*partition)
	for i, iv := range intervals {
		key := ""
		if opts.ByChrom {
			key = iv.Chrom
		}
		pt, ok := parts[key]
		if !ok {
			pt = &partition{}
			parts[key] = pt
		}
		e.slots[i] = slot{part: pt, pos: pt.add(iv)}
	}

	return e, nil
}

// SetLogger sets the logger for progress messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Len returns the number of indexed intervals.
func (e *Engine) Len() int {
	return len(e.intervals)
}

// AsymmetricLeftRule reports whether the minus-only left-side filter is in
// effect, i.e. same-strand blocking without SymmetricStrand.
func (e *Engine) AsymmetricLeftRule() bool {
	return e.opts.Policy == SameStrand && !e.opts.SymmetricStrand
}

// Distance returns how many bases interval i can be extended from the given
// end, in [0, BPLimit].
func (e *Engine) Distance(i int, end End) int64 {
	s := e.slots[i]
	if sideFor(e.intervals[i].Strand, end) == right {
		return s.part.rightDistance(s.pos, e.opts)
	}
	return s.part.leftDistance(s.pos, e.opts)
}

// Compute returns the Result for one end of interval i.
func (e *Engine) Compute(i int, end End) Result {
	return Result{Index: i, End: end, Distance: e.Distance(i, end)}
}

// ComputeAll computes every requested end of every interval using workers
// goroutines (0 means runtime.NumCPU()). Genes come back in start order,
// each with its results in mode order.
func (e *Engine) ComputeAll(mode StreamMode, workers int) ([]Gene, error) {
	ends := mode.Ends()
	genes := make([]Gene, len(e.intervals))
	for i, iv := range e.intervals {
		genes[i] = Gene{Interval: iv, Results: make([]Result, 0, len(ends))}
	}

	items := make(chan WorkItem, 2*len(ends))
	go func() {
		defer close(items)
		seq := 0
		for i := range e.intervals {
			for _, end := range ends {
				items <- WorkItem{Seq: seq, Index: i, End: end}
				seq++
			}
		}
	}()

	done := 0
	err := OrderedCollect(e.ParallelCompute(items, workers), func(r WorkResult) error {
		g := &genes[r.Result.Index]
		g.Results = append(g.Results, r.Result)
		if len(g.Results) == len(ends) {
			done++
			if done%progressEvery == 0 {
				e.logger.Debug("flank progress", zap.Int("done", done), zap.Int("total", len(genes)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect flank results: %w", err)
	}

	return genes, nil
}
