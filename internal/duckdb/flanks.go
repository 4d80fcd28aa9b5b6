package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/geneflank/internal/bed"
	"github.com/inodb/geneflank/internal/flank"
	"github.com/inodb/geneflank/internal/output"
)

// FlankRow is one exported flank record.
type FlankRow struct {
	RunID     int64
	Record    output.Record
	GeneName  string
	QueryEnd  string
	Distance  int64
	GeneStart int64
	GeneEnd   int64
}

// WriteGenes batch-inserts the flanks of every gene under runID using the
// Appender API. Rows follow gene order, then result order.
func (s *Store) WriteGenes(runID int64, genes []flank.Gene) (int, error) {
	if len(genes) == 0 {
		return 0, nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "flank_results")
		return err
	}); err != nil {
		return 0, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	n := 0
	for _, g := range genes {
		for _, res := range g.Results {
			rec := output.FlankRecord(g.Interval, res.End, res.Distance)
			if err := appender.AppendRow(
				runID, rec.Chrom, rec.Start, rec.End, rec.Name,
				g.Name, res.End.String(), res.Distance, rec.Strand.String(),
				g.Start, g.End,
			); err != nil {
				return n, fmt.Errorf("append flank: %w", err)
			}
			n++
		}
	}

	if err := appender.Flush(); err != nil {
		return n, fmt.Errorf("flush flanks: %w", err)
	}
	return n, nil
}

// FlankCount returns the number of flank rows stored for runID.
func (s *Store) FlankCount(runID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM flank_results WHERE run_id=?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flanks: %w", err)
	}
	return n, nil
}

// FlanksByGene returns every stored flank of a gene, across runs.
func (s *Store) FlanksByGene(geneName string) ([]FlankRow, error) {
	rows, err := s.db.Query(`SELECT
		run_id, chrom, flank_start, flank_end, name, strand,
		gene_name, query_end, distance, gene_start, gene_end
		FROM flank_results
		WHERE gene_name=?
		ORDER BY run_id, gene_start, query_end DESC`, geneName)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	var out []FlankRow
	for rows.Next() {
		var r FlankRow
		var strand string
		if err := rows.Scan(
			&r.RunID, &r.Record.Chrom, &r.Record.Start, &r.Record.End, &r.Record.Name, &strand,
			&r.GeneName, &r.QueryEnd, &r.Distance, &r.GeneStart, &r.GeneEnd,
		); err != nil {
			return nil, fmt.Errorf("scan flank: %w", err)
		}
		if strand != "" {
			r.Record.Strand = bed.Strand(strand[0])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flanks: %w", err)
	}
	return out, nil
}
