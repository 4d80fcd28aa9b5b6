// Package flank computes how far each gene can be extended from its 5' or 3'
// end before it runs into a neighboring gene.
package flank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/geneflank/internal/bed"
)

// End is a strand-relative end of an interval.
type End int

const (
	Five  End = 5
	Three End = 3
)

func (e End) String() string {
	if e == Three {
		return "3"
	}
	return "5"
}

// StreamMode selects which ends are computed for every interval.
type StreamMode int

const (
	StreamFive StreamMode = iota
	StreamThree
	StreamBoth
)

// ParseStreamMode parses "5", "3" or "both".
func ParseStreamMode(s string) (StreamMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "5", "5'", "five":
		return StreamFive, nil
	case "3", "3'", "three":
		return StreamThree, nil
	case "both":
		return StreamBoth, nil
	}
	return 0, fmt.Errorf("invalid stream direction %q (want 5, 3 or both)", s)
}

// Ends returns the ends to compute, in output order.
func (m StreamMode) Ends() []End {
	switch m {
	case StreamThree:
		return []End{Three}
	case StreamBoth:
		return []End{Five, Three}
	}
	return []End{Five}
}

func (m StreamMode) String() string {
	switch m {
	case StreamThree:
		return "3"
	case StreamBoth:
		return "both"
	}
	return "5"
}

// NeighborPolicy controls which neighbors block an extension.
type NeighborPolicy int

const (
	// SameStrand only lets neighbors on the query interval's strand block.
	SameStrand NeighborPolicy = iota
	// AnyStrand lets every neighbor block regardless of strand.
	AnyStrand
)

// ParseNeighborPolicy accepts "same"/"any" and the numeric forms 1/2.
func ParseNeighborPolicy(s string) (NeighborPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "same", "same-strand", "1":
		return SameStrand, nil
	case "any", "any-strand", "2":
		return AnyStrand, nil
	}
	return 0, fmt.Errorf("invalid neighbor policy %q (want same or any)", s)
}

func (p NeighborPolicy) String() string {
	if p == AnyStrand {
		return "any"
	}
	return "same"
}

// Options configures an Engine.
type Options struct {
	BPLimit int64
	Policy  NeighborPolicy

	// SymmetricStrand makes the left-side same-strand filter use the query
	// interval's strand. Off by default: the left side then only lets
	// minus-strand neighbors block, whatever the query strand.
	SymmetricStrand bool

	// ByChrom restricts neighbors to the query interval's chromosome.
	ByChrom bool
}

var (
	ErrInvalidLimit = errors.New("bp limit must be positive")
	ErrUnsorted     = errors.New("intervals are not sorted by start")
)

// Validate checks the options.
func (o Options) Validate() error {
	if o.BPLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, o.BPLimit)
	}
	return nil
}

// Result is the allowed flank length for one end of one interval.
type Result struct {
	Index    int // position in the sorted interval slice
	End      End
	Distance int64
}

// Gene is an interval together with its computed flanks.
type Gene struct {
	bed.Interval
	Results []Result
}

type side int

const (
	left side = iota
	right
)

// sideFor maps a strand-relative end onto a physical side: on + the 5' end
// is the start, on - it is the end.
func sideFor(strand bed.Strand, end End) side {
	if (strand == bed.Plus && end == Three) || (strand == bed.Minus && end == Five) {
		return right
	}
	return left
}
