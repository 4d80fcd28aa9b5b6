// Package output provides flank record formatters.
package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/inodb/geneflank/internal/bed"
	"github.com/inodb/geneflank/internal/flank"
)

// Record is one flanking region ready to be written.
type Record struct {
	Chrom  string
	Start  int64
	End    int64
	Name   string
	Strand bed.Strand
}

// FlankRecord places the flank for one end of an interval:
// (5', +) and (3', -) sit before the start, (3', +) and (5', -) after the end.
// The name is <gene>_<end>_<distance>.
func FlankRecord(iv bed.Interval, end flank.End, distance int64) Record {
	r := Record{
		Chrom:  iv.Chrom,
		Name:   iv.Name + "_" + end.String() + "_" + strconv.FormatInt(distance, 10),
		Strand: iv.Strand,
	}
	if (end == flank.Five && iv.Strand == bed.Plus) || (end == flank.Three && iv.Strand == bed.Minus) {
		r.Start, r.End = iv.Start-distance, iv.Start
	} else {
		r.Start, r.End = iv.End, iv.End+distance
	}
	return r
}

// BEDWriter writes flank records as 6-column BED.
type BEDWriter struct {
	w   *bufio.Writer
	buf []byte
}

// NewBEDWriter creates a new BED flank writer.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{w: bufio.NewWriter(w)}
}

// Write writes a single record.
func (bw *BEDWriter) Write(r Record) error {
	b := bw.buf[:0]
	b = append(b, r.Chrom...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, r.Start, 10)
	b = append(b, '\t')
	b = strconv.AppendInt(b, r.End, 10)
	b = append(b, '\t')
	b = append(b, r.Name...)
	b = append(b, "\t1\t"...)
	b = append(b, byte(r.Strand), '\n')
	bw.buf = b

	_, err := bw.w.Write(b)
	return err
}

// WriteGene writes one record per computed end of g, in result order.
func (bw *BEDWriter) WriteGene(g flank.Gene) error {
	for _, res := range g.Results {
		if err := bw.Write(FlankRecord(g.Interval, res.End, res.Distance)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}
