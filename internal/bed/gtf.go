package bed

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Format identifies the layout of an interval file.
type Format int

const (
	FormatBED Format = iota
	FormatGTF
)

// ParseFormat parses an input format name. "auto" (or "") picks the format
// from the file name.
func ParseFormat(s, path string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return DetectFormat(path), nil
	case "bed":
		return FormatBED, nil
	case "gtf", "gff", "gencode":
		return FormatGTF, nil
	}
	return FormatBED, fmt.Errorf("invalid input format %q (want bed, gtf or auto)", s)
}

// DetectFormat guesses the format from the file extension, defaulting to BED.
func DetectFormat(path string) Format {
	lower := strings.TrimSuffix(strings.ToLower(path), ".gz")
	if strings.HasSuffix(lower, ".gtf") || strings.HasSuffix(lower, ".gff") {
		return FormatGTF
	}
	return FormatBED
}

func (f Format) String() string {
	if f == FormatGTF {
		return "gtf"
	}
	return "bed"
}

const gtfFields = 9

// GTFParser reads gene records from a GTF annotation as intervals.
// GTF coordinates are 1-based and closed; intervals are converted to
// 0-based half-open so that flanks line up with BED input.
type GTFParser struct {
	reader     *bufio.Reader
	src        *source
	path       string
	lineNumber int
	feature    string
}

// NewGTFParser creates a parser that yields every "gene" feature of path.
func NewGTFParser(path string) (*GTFParser, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	return &GTFParser{reader: src.reader, src: src, path: path, feature: "gene"}, nil
}

// Next reads the next gene record.
// Returns nil, nil when there are no more records.
func (p *GTFParser) Next() (*Interval, error) {
	for {
		line, ok, err := readLine(p.reader, p.path)
		if err != nil || !ok {
			return nil, err
		}
		p.lineNumber++

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < gtfFields {
			return nil, p.formatErr("expected %d columns, found %d", gtfFields, len(fields))
		}
		if fields[2] != p.feature {
			continue
		}
		return p.parseGene(fields)
	}
}

func (p *GTFParser) parseGene(fields []string) (*Interval, error) {
	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || start < 1 {
		return nil, p.formatErr("invalid start: %s", fields[3])
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, p.formatErr("invalid end: %s", fields[4])
	}
	if end < start {
		return nil, p.formatErr("end %d before start %d", end, start)
	}

	strand, err := ParseStrand(fields[6])
	if err != nil {
		return nil, p.formatErr("%v", err)
	}

	attrs := parseAttributes(fields[8])
	name := attrs["gene_name"]
	if name == "" {
		name = stripVersion(attrs["gene_id"])
	}
	if name == "" {
		return nil, p.formatErr("gene record has neither gene_name nor gene_id")
	}

	return &Interval{
		Chrom:  fields[0],
		Start:  start - 1,
		End:    end,
		Name:   name,
		Strand: strand,
	}, nil
}

func (p *GTFParser) formatErr(format string, args ...any) error {
	return &FormatError{
		Path:    p.path,
		Line:    p.lineNumber,
		Message: fmt.Sprintf(format, args...),
	}
}

// LineNumber returns the current line number being processed.
func (p *GTFParser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *GTFParser) Close() error {
	return p.src.Close()
}

// parseAttributes parses the GTF attribute column:
// key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Key and value are separated by the first space.
		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"")

		// Repeated keys (tag "basic"; tag "CCDS") keep the first value.
		if _, seen := attrs[key]; !seen {
			attrs[key] = value
		}
	}

	return attrs
}

// stripVersion removes the version suffix from an Ensembl ID (ENSG00000141510.18).
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
