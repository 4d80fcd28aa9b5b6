package bed

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// minFields is chrom, start, end, name, score, strand.
const minFields = 6

// Parser reads intervals from a BED file.
type Parser struct {
	reader     *bufio.Reader
	src        *source
	path       string
	lineNumber int
}

// source is an opened input file, transparently gunzipped.
type source struct {
	file       *os.File
	gzipReader *gzip.Reader
	reader     *bufio.Reader
}

// openSource opens path for reading; "-" is stdin. Gzip input is detected
// by its magic bytes rather than the file extension.
func openSource(path string) (*source, error) {
	if path == "-" {
		return &source{reader: bufio.NewReader(os.Stdin)}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	src := &source{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, &IOError{Op: "seek", Path: path, Err: err}
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		src.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, &IOError{Op: "gunzip", Path: path, Err: err}
		}
		src.reader = bufio.NewReader(src.gzipReader)
	} else {
		src.reader = bufio.NewReader(file)
	}

	return src, nil
}

func (s *source) Close() error {
	if s.gzipReader != nil {
		s.gzipReader.Close()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// readLine returns the next line without its terminator.
// ok is false at end of input.
func readLine(r *bufio.Reader, path string) (line string, ok bool, err error) {
	line, err = r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, &IOError{Op: "read", Path: path, Err: err}
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", false, nil
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// NewParser creates a new BED parser for the given file.
// Supports both plain and gzipped (.bed.gz) files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	return &Parser{reader: src.reader, src: src, path: path}, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReader(r),
		path:   "-",
	}
}

// Next reads the next interval from the file.
// Returns nil, nil when there are no more intervals.
func (p *Parser) Next() (*Interval, error) {
	for {
		line, ok, err := readLine(p.reader, p.path)
		if err != nil || !ok {
			return nil, err
		}
		p.lineNumber++

		if skipLine(line) {
			continue
		}
		return p.parseLine(line)
	}
}

// skipLine reports whether a line carries no interval (blank, comment, UCSC header).
func skipLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// parseLine parses a single BED data line into an Interval.
func (p *Parser) parseLine(line string) (*Interval, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return nil, p.formatErr("expected at least %d columns, found %d", minFields, len(fields))
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return nil, p.formatErr("invalid start: %s", fields[1])
	}
	end, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return nil, p.formatErr("invalid end: %s", fields[2])
	}
	if start < 0 {
		return nil, p.formatErr("negative start: %d", start)
	}
	if end < start {
		return nil, p.formatErr("end %d before start %d", end, start)
	}

	// Only the first token of the strand column counts.
	tokens := strings.Fields(fields[5])
	if len(tokens) == 0 {
		return nil, p.formatErr("missing strand")
	}
	strand, err := ParseStrand(tokens[0])
	if err != nil {
		return nil, p.formatErr("%v", err)
	}

	return &Interval{
		Chrom:  fields[0],
		Start:  start,
		End:    end,
		Name:   fields[3],
		Strand: strand,
	}, nil
}

func (p *Parser) formatErr(format string, args ...any) error {
	return &FormatError{
		Path:    p.path,
		Line:    p.lineNumber,
		Message: fmt.Sprintf(format, args...),
	}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.src != nil {
		return p.src.Close()
	}
	return nil
}

// IntervalReader is implemented by the BED and GTF parsers.
type IntervalReader interface {
	// Next reads the next interval.
	// Returns nil, nil when there are no more intervals.
	Next() (*Interval, error)

	// Close closes the reader and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// Load reads every interval from the parser. The first bad record aborts
// the load; nothing is returned alongside an error.
func Load(p IntervalReader) ([]Interval, error) {
	var intervals []Interval
	for {
		iv, err := p.Next()
		if err != nil {
			return nil, err
		}
		if iv == nil {
			return intervals, nil
		}
		intervals = append(intervals, *iv)
	}
}

// LoadFile opens path in the given format, reads all intervals and returns
// them sorted by start.
func LoadFile(path string, format Format) ([]Interval, error) {
	var (
		r   IntervalReader
		err error
	)
	switch format {
	case FormatGTF:
		r, err = NewGTFParser(path)
	default:
		r, err = NewParser(path)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	intervals, err := Load(r)
	if err != nil {
		return nil, err
	}
	SortByStart(intervals)
	return intervals, nil
}

// FormatError represents a malformed BED or GTF record with line context.
type FormatError struct {
	Path    string
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error in %s at line %d: %s", e.Path, e.Line, e.Message)
}

// IOError reports that the interval source could not be opened or read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s interval file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
