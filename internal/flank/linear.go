package flank

import "github.com/inodb/geneflank/internal/bed"

// LinearScan computes the flank distance for intervals[i] by scanning the
// whole slice. intervals must be sorted by start. It is the O(n) reference
// that Engine answers in O(log n).
func LinearScan(intervals []bed.Interval, i int, end End, opts Options) int64 {
	cur := intervals[i]

	if sideFor(cur.Strand, end) == right {
		for j, cand := range intervals {
			if j == i || cand.End <= cur.End {
				continue
			}
			if opts.ByChrom && cand.Chrom != cur.Chrom {
				continue
			}
			if opts.Policy == SameStrand && cand.Strand == cur.Strand.Opposite() {
				continue
			}
			if cand.Start <= cur.End {
				return 0
			}
			return capGap(cand.Start-cur.End, opts.BPLimit)
		}
		return opts.BPLimit
	}

	blocking := leftBlockingStrand(cur.Strand, opts)
	for j := i - 1; j >= 0; j-- {
		cand := intervals[j]
		if cand.Start >= cur.Start {
			continue
		}
		if opts.ByChrom && cand.Chrom != cur.Chrom {
			continue
		}
		if opts.Policy == SameStrand && cand.Strand != blocking {
			continue
		}
		if cand.End >= cur.Start {
			return 0
		}
		return capGap(cur.Start-cand.End, opts.BPLimit)
	}
	return opts.BPLimit
}

// leftBlockingStrand is the strand a left-side neighbor must carry to block
// under SameStrand. Without SymmetricStrand it is always minus.
func leftBlockingStrand(query bed.Strand, opts Options) bed.Strand {
	if opts.SymmetricStrand {
		return query
	}
	return bed.Minus
}

func capGap(gap, limit int64) int64 {
	if gap > limit {
		return limit
	}
	return gap
}
