package flank

import (
	"sort"

	"github.com/inodb/geneflank/internal/bed"
)

// partition holds the intervals that may block each other, in start order.
// Without Options.ByChrom there is a single partition for the whole input.
type partition struct {
	starts  []int64
	ends    []int64
	strands []bed.Strand

	all   candidateList
	plus  candidateList
	minus candidateList
}

// candidateList is an ascending list of partition positions that can block
// under some filter, with maxEnd[k] = max(ends[pos[0..k]]).
type candidateList struct {
	pos    []int
	maxEnd []int64
}

func (c *candidateList) add(p int, end int64) {
	m := end
	if n := len(c.maxEnd); n > 0 && c.maxEnd[n-1] > m {
		m = c.maxEnd[n-1]
	}
	c.pos = append(c.pos, p)
	c.maxEnd = append(c.maxEnd, m)
}

func (pt *partition) add(iv bed.Interval) int {
	p := len(pt.starts)
	pt.starts = append(pt.starts, iv.Start)
	pt.ends = append(pt.ends, iv.End)
	pt.strands = append(pt.strands, iv.Strand)

	pt.all.add(p, iv.End)
	if iv.Strand == bed.Plus {
		pt.plus.add(p, iv.End)
	} else {
		pt.minus.add(p, iv.End)
	}
	return p
}

func (pt *partition) byStrand(s bed.Strand) *candidateList {
	if s == bed.Plus {
		return &pt.plus
	}
	return &pt.minus
}

// firstEndingAfter returns the first candidate in start order whose end is
// greater than end. maxEnd is non-decreasing, so a binary search finds it.
func (c *candidateList) firstEndingAfter(end int64) (int, bool) {
	k := sort.Search(len(c.maxEnd), func(k int) bool {
		return c.maxEnd[k] > end
	})
	if k == len(c.maxEnd) {
		return 0, false
	}
	return c.pos[k], true
}

// lastBefore returns the greatest candidate position strictly below limit.
func (c *candidateList) lastBefore(limit int) (int, bool) {
	k := sort.SearchInts(c.pos, limit) - 1
	if k < 0 {
		return 0, false
	}
	return c.pos[k], true
}

// rightDistance answers the right-side search for partition position p.
func (pt *partition) rightDistance(p int, opts Options) int64 {
	cands := &pt.all
	if opts.Policy == SameStrand {
		cands = pt.byStrand(pt.strands[p])
	}

	end := pt.ends[p]
	j, ok := cands.firstEndingAfter(end)
	if !ok {
		return opts.BPLimit
	}
	if pt.starts[j] <= end {
		return 0
	}
	return capGap(pt.starts[j]-end, opts.BPLimit)
}

// leftDistance answers the left-side search for partition position p.
func (pt *partition) leftDistance(p int, opts Options) int64 {
	cands := &pt.all
	if opts.Policy == SameStrand {
		cands = pt.byStrand(leftBlockingStrand(pt.strands[p], opts))
	}

	start := pt.starts[p]
	// Positions before lo are exactly those starting before this interval.
	lo := sort.Search(p, func(k int) bool {
		return pt.starts[k] >= start
	})
	j, ok := cands.lastBefore(lo)
	if !ok {
		return opts.BPLimit
	}
	if pt.ends[j] >= start {
		return 0
	}
	return capGap(start-pt.ends[j], opts.BPLimit)
}
