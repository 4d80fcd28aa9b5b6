package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
// Stdin ("-") gets a fingerprint with only the path set.
func StatFile(path string) (FileFingerprint, error) {
	if path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run describes one flank computation.
type Run struct {
	ID              int64
	Input           FileFingerprint
	BPLimit         int64
	Stream          string
	Policy          string
	SymmetricStrand bool
	ByChrom         bool
	IntervalCount   int64
	CreatedAt       time.Time
}

// BeginRun records a run and returns its id.
func (s *Store) BeginRun(r Run) (int64, error) {
	var modTime any
	if !r.Input.ModTime.IsZero() {
		modTime = r.Input.ModTime.UTC()
	}

	var id int64
	err := s.db.QueryRow(`INSERT INTO flank_runs
		(input_path, input_size, input_modtime, bp_limit, stream, policy, symmetric_strand, by_chrom, interval_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING run_id`,
		r.Input.Path, r.Input.Size, modTime, r.BPLimit, r.Stream, r.Policy,
		r.SymmetricStrand, r.ByChrom, r.IntervalCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Runs lists recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input_path, input_size, input_modtime, bp_limit, stream, policy,
		symmetric_strand, by_chrom, interval_count, created_at
		FROM flank_runs ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var modTime *time.Time
		if err := rows.Scan(
			&r.ID, &r.Input.Path, &r.Input.Size, &modTime, &r.BPLimit, &r.Stream, &r.Policy,
			&r.SymmetricStrand, &r.ByChrom, &r.IntervalCount, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if modTime != nil {
			r.Input.ModTime = *modTime
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
