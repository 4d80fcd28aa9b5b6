// Package bed loads gene intervals from BED and GTF files.
package bed

import (
	"cmp"
	"fmt"
	"slices"
)

// Strand is the genomic strand of an interval.
type Strand byte

const (
	Plus  Strand = '+'
	Minus Strand = '-'
)

// ParseStrand converts a BED strand token to a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Plus, nil
	case "-":
		return Minus, nil
	}
	return 0, fmt.Errorf("invalid strand %q (want + or -)", s)
}

// Opposite returns the other strand.
func (s Strand) Opposite() Strand {
	if s == Plus {
		return Minus
	}
	return Plus
}

func (s Strand) String() string {
	return string(s)
}

// Interval is a single BED record (0-based start, end as written in the file).
type Interval struct {
	Chrom  string // Chromosome name (e.g., "chr12")
	Start  int64
	End    int64
	Name   string
	Strand Strand
}

// Len returns the number of bases covered by the interval.
func (iv Interval) Len() int64 {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", iv.Chrom, iv.Start, iv.End, iv.Strand)
}

// SortByStart sorts intervals by start coordinate in place.
// Intervals with equal starts keep their input order.
func SortByStart(intervals []Interval) {
	slices.SortStableFunc(intervals, func(a, b Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})
}
